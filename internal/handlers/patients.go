package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/AndriiKulakovskyi/efondamental-sub001/internal/models"
	"github.com/AndriiKulakovskyi/efondamental-sub001/internal/repository"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type PatientHandler struct {
	log *zap.Logger
}

func NewPatientHandler(log *zap.Logger) *PatientHandler {
	return &PatientHandler{log: log}
}

type patientRequest struct {
	FirstName      string `json:"first_name" binding:"required"`
	LastName       string `json:"last_name" binding:"required"`
	BirthDate      string `json:"birth_date" binding:"required"`
	EducationYears int    `json:"education_years"`
	Pathology      string `json:"pathology"`
}

func (h *PatientHandler) Create(c *gin.Context) {
	var req patientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	birthDate, err := time.Parse("2006-01-02", req.BirthDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "birth_date must be YYYY-MM-DD"})
		return
	}

	patient := &models.Patient{
		FirstName:      req.FirstName,
		LastName:       req.LastName,
		BirthDate:      birthDate,
		EducationYears: req.EducationYears,
		Pathology:      req.Pathology,
	}
	if err := repository.CreatePatient(c, patient); err != nil {
		h.log.Error("Failed to create patient", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create patient"})
		return
	}
	c.JSON(http.StatusCreated, patient)
}

func (h *PatientHandler) List(c *gin.Context) {
	patients, err := repository.ListPatients(c)
	if err != nil {
		h.log.Error("Failed to list patients", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list patients"})
		return
	}
	c.JSON(http.StatusOK, patients)
}

func (h *PatientHandler) Get(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid patient id"})
		return
	}
	patient, err := repository.GetPatientByID(c, uint(id))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown patient"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"patient": patient,
		"age":     patient.AgeAt(time.Now()),
	})
}
