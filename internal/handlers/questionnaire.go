package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/AndriiKulakovskyi/efondamental-sub001/internal/catalog"
	"github.com/AndriiKulakovskyi/efondamental-sub001/internal/logic"
	"github.com/AndriiKulakovskyi/efondamental-sub001/internal/models"
	"github.com/AndriiKulakovskyi/efondamental-sub001/internal/repository"
	"github.com/AndriiKulakovskyi/efondamental-sub001/internal/scoring"
	"github.com/AndriiKulakovskyi/efondamental-sub001/internal/validation"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type QuestionnaireHandler struct {
	log     *zap.Logger
	catalog *catalog.Catalog
}

func NewQuestionnaireHandler(log *zap.Logger, cat *catalog.Catalog) *QuestionnaireHandler {
	return &QuestionnaireHandler{log: log, catalog: cat}
}

type instrumentSummary struct {
	Code            string   `json:"code"`
	Name            string   `json:"name"`
	Version         string   `json:"version"`
	Language        string   `json:"language"`
	TargetRole      string   `json:"target_role"`
	Pathologies     []string `json:"pathologies,omitempty"`
	ReferencePeriod string   `json:"reference_period,omitempty"`
}

func (h *QuestionnaireHandler) List(c *gin.Context) {
	defs := h.catalog.Definitions()
	out := make([]instrumentSummary, 0, len(defs))
	for _, def := range defs {
		m := def.Metadata
		out = append(out, instrumentSummary{
			Code:            m.Code,
			Name:            m.Name,
			Version:         m.Version,
			Language:        m.Language,
			TargetRole:      m.TargetRole,
			Pathologies:     m.Pathologies,
			ReferencePeriod: m.ReferencePeriod,
		})
	}
	c.JSON(http.StatusOK, out)
}

type optionDTO struct {
	Code  string `json:"code"`
	Label string `json:"label"`
}

type questionDTO struct {
	ID          string              `json:"id"`
	Section     string              `json:"section"`
	Text        string              `json:"text"`
	Type        models.QuestionType `json:"type"`
	Required    bool                `json:"required"`
	Options     []optionDTO         `json:"options,omitempty"`
	Constraints *models.Constraints `json:"constraints,omitempty"`
	Conditional bool                `json:"conditional"`
}

type sectionDTO struct {
	ID        string   `json:"id"`
	Label     string   `json:"label"`
	Questions []string `json:"questions"`
}

func (h *QuestionnaireHandler) Get(c *gin.Context) {
	def, ok := h.catalog.Definition(c.Param("code"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown instrument"})
		return
	}

	sections := make([]sectionDTO, 0, len(def.Sections))
	for _, s := range def.Sections {
		sections = append(sections, sectionDTO{ID: s.ID, Label: s.Label, Questions: s.Questions})
	}
	questions := make([]questionDTO, 0, len(def.Questions))
	for _, q := range def.Questions {
		dto := questionDTO{
			ID:          q.ID,
			Section:     q.SectionID,
			Text:        q.Text,
			Type:        q.Type,
			Required:    q.Required,
			Constraints: q.Constraints,
			Conditional: q.DisplayIf != nil,
		}
		for _, o := range q.Options {
			dto.Options = append(dto.Options, optionDTO{Code: o.Code, Label: o.Label})
		}
		questions = append(questions, dto)
	}

	c.JSON(http.StatusOK, gin.H{
		"metadata":  def.Metadata,
		"sections":  sections,
		"questions": questions,
	})
}

type stateRequest struct {
	Answers map[string]any `json:"answers"`
}

// State evaluates the conditional display and requiredness rules against a
// partial answer set. The client calls this after every answer change.
func (h *QuestionnaireHandler) State(c *gin.Context) {
	def, ok := h.catalog.Definition(c.Param("code"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown instrument"})
		return
	}

	var req stateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	answers, err := models.BindAnswers(def, req.Answers)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	visible, err := logic.VisibleQuestions(def, answers)
	if err != nil {
		h.log.Error("Display rule evaluation failed", zap.Error(err), zap.String("instrument", def.Metadata.Code))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "rule evaluation failed"})
		return
	}
	required, err := logic.RequiredQuestions(def, answers, visible)
	if err != nil {
		h.log.Error("Requiredness rule evaluation failed", zap.Error(err), zap.String("instrument", def.Metadata.Code))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "rule evaluation failed"})
		return
	}

	visibleIDs := make([]string, 0)
	requiredIDs := make([]string, 0)
	for _, q := range def.Questions {
		if visible[q.ID] {
			visibleIDs = append(visibleIDs, q.ID)
		}
		if required[q.ID] {
			requiredIDs = append(requiredIDs, q.ID)
		}
	}
	c.JSON(http.StatusOK, gin.H{"visible": visibleIDs, "required": requiredIDs})
}

type submitRequest struct {
	PatientID uint           `json:"patient_id" binding:"required"`
	Answers   map[string]any `json:"answers" binding:"required"`
}

// Submit validates and scores a completed questionnaire, persists the result
// and returns the computed scores. The raw answers are stored alongside the
// scores so nothing is lost to later re-analysis.
func (h *QuestionnaireHandler) Submit(c *gin.Context) {
	def, ok := h.catalog.Definition(c.Param("code"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown instrument"})
		return
	}

	var req submitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if _, err := repository.GetPatientByID(c, req.PatientID); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown patient"})
		return
	}

	answers, err := models.BindAnswers(def, req.Answers)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	visible, err := logic.VisibleQuestions(def, answers)
	if err != nil {
		h.log.Error("Display rule evaluation failed", zap.Error(err), zap.String("instrument", def.Metadata.Code))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "rule evaluation failed"})
		return
	}

	result, err := validation.Validate(def, answers, visible)
	if err != nil {
		h.log.Error("Validation failed", zap.Error(err), zap.String("instrument", def.Metadata.Code))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "validation failed"})
		return
	}
	if !result.Valid {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"errors":   result.Errors,
			"warnings": result.Warnings,
		})
		return
	}

	record := &models.ResponseRecord{
		PatientID:         req.PatientID,
		ClinicianID:       currentUserID(c),
		InstrumentCode:    def.Metadata.Code,
		InstrumentVersion: def.Metadata.Version,
	}
	record.Answers, err = json.Marshal(req.Answers)
	if err != nil {
		h.log.Error("Failed to encode answers", zap.Error(err), zap.String("instrument", def.Metadata.Code))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save response"})
		return
	}

	var payload gin.H
	if def.Scoring != nil && def.Scoring.Screening != nil {
		screening, err := scoring.ScoreScreening(def, answers)
		if err != nil {
			h.scoringError(c, def.Metadata.Code, err)
			return
		}
		record.ScreeningVerdict = screening.ScreeningResult
		record.ClinicalAlerts = screening.ClinicalAlerts
		payload = gin.H{"screening": screening, "warnings": result.Warnings}
	} else {
		scored, err := scoring.Score(def, answers)
		if err != nil {
			h.scoringError(c, def.Metadata.Code, err)
			return
		}
		total := scored.TotalScore
		record.TotalScore = &total
		record.Severity = scored.Severity
		record.ClinicalAlerts = scored.ClinicalAlerts
		if len(scored.DomainScores) > 0 {
			record.DomainScores, err = json.Marshal(scored.DomainScores)
			if err != nil {
				h.log.Error("Failed to encode domain scores", zap.Error(err), zap.String("instrument", def.Metadata.Code))
				c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save response"})
				return
			}
		}
		payload = gin.H{"result": scored, "warnings": result.Warnings}
	}

	if err := repository.SaveResponseTx(c, record); err != nil {
		h.log.Error("Failed to save response", zap.Error(err), zap.String("instrument", def.Metadata.Code), zap.Uint("patientID", req.PatientID))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save response"})
		return
	}

	payload["response_id"] = record.ID
	c.JSON(http.StatusCreated, payload)
}

func (h *QuestionnaireHandler) scoringError(c *gin.Context, instrument string, err error) {
	var missing *scoring.MissingAnswersError
	if errors.As(err, &missing) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":   "missing required answers",
			"missing": missing.QuestionIDs,
		})
		return
	}
	h.log.Error("Scoring failed", zap.Error(err), zap.String("instrument", instrument))
	c.JSON(http.StatusInternalServerError, gin.H{"error": "scoring failed"})
}

func currentUserID(c *gin.Context) uint {
	session := sessions.Default(c)
	if id, ok := session.Get("userID").(uint); ok {
		return id
	}
	return 0
}
