package repository

import (
	"context"

	"github.com/AndriiKulakovskyi/efondamental-sub001/internal/database"
	"github.com/AndriiKulakovskyi/efondamental-sub001/internal/models"
)

func CreatePatient(ctx context.Context, patient *models.Patient) error {
	return database.DB.WithContext(ctx).Create(patient).Error
}

func GetPatientByID(ctx context.Context, id uint) (*models.Patient, error) {
	var patient models.Patient
	result := database.DB.WithContext(ctx).First(&patient, id)
	return &patient, result.Error
}

func ListPatients(ctx context.Context) ([]models.Patient, error) {
	var patients []models.Patient
	result := database.DB.WithContext(ctx).Order("last_name, first_name").Find(&patients)
	return patients, result.Error
}

func UpdatePatient(ctx context.Context, patient *models.Patient) error {
	return database.DB.WithContext(ctx).Save(patient).Error
}
