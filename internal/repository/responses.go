package repository

import (
	"context"

	"github.com/AndriiKulakovskyi/efondamental-sub001/internal/database"
	"github.com/AndriiKulakovskyi/efondamental-sub001/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SaveResponseTx persists a submitted questionnaire and its computed scores
// in a single transaction. The record ID is assigned here.
func SaveResponseTx(ctx context.Context, record *models.ResponseRecord) error {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	return database.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(record).Error
	})
}

func GetResponseByID(ctx context.Context, id string) (*models.ResponseRecord, error) {
	var record models.ResponseRecord
	result := database.DB.WithContext(ctx).First(&record, "id = ?", id)
	return &record, result.Error
}

// GetResponsesForPatient returns every submission for a patient, newest first.
// An empty instrumentCode means all instruments.
func GetResponsesForPatient(ctx context.Context, patientID uint, instrumentCode string) ([]models.ResponseRecord, error) {
	var records []models.ResponseRecord
	query := database.DB.WithContext(ctx).Where("patient_id = ?", patientID)
	if instrumentCode != "" {
		query = query.Where("instrument_code = ?", instrumentCode)
	}
	result := query.Order("created_at DESC").Find(&records)
	return records, result.Error
}
