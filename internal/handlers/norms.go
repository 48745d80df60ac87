package handlers

import (
	"errors"
	"net/http"

	"github.com/AndriiKulakovskyi/efondamental-sub001/internal/catalog"
	"github.com/AndriiKulakovskyi/efondamental-sub001/internal/norms"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type NormsHandler struct {
	log     *zap.Logger
	catalog *catalog.Catalog
}

func NewNormsHandler(log *zap.Logger, cat *catalog.Catalog) *NormsHandler {
	return &NormsHandler{log: log, catalog: cat}
}

func (h *NormsHandler) List(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"subtests": h.catalog.Norms.Subtests()})
}

type convertRequest struct {
	Age       int     `json:"age" binding:"required"`
	Education string  `json:"education"`
	RawScore  float64 `json:"raw_score"`
}

// Convert turns a raw subtest score into its demographically referenced
// standard score, z and percentile.
func (h *NormsHandler) Convert(c *gin.Context) {
	table, ok := h.catalog.Norms.Subtest(c.Param("instrument"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown norm table"})
		return
	}

	var req convertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	d := norms.Demographic{Age: req.Age, Education: req.Education}
	conv, err := table.Convert(d, req.RawScore)
	if err != nil {
		h.normError(c, err)
		return
	}
	c.JSON(http.StatusOK, conv)
}

type compositeRequest struct {
	Age            int    `json:"age" binding:"required"`
	Education      string `json:"education"`
	StandardScores []int  `json:"standard_scores" binding:"required"`
}

// Composite converts a set of component standard scores into the composite
// score for the subject's age band. The components are summed and the sum is
// looked up in the second-stage table.
func (h *NormsHandler) Composite(c *gin.Context) {
	table, ok := h.catalog.Norms.Composite(c.Param("instrument"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown composite table"})
		return
	}

	var req compositeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sum := 0
	for _, ss := range req.StandardScores {
		sum += ss
	}

	d := norms.Demographic{Age: req.Age, Education: req.Education}
	score, err := table.Convert(d, sum)
	if err != nil {
		h.normError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sum": sum, "composite": score})
}

func (h *NormsHandler) normError(c *gin.Context, err error) {
	var unsupported *norms.UnsupportedDemographicError
	if errors.As(err, &unsupported) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}
	h.log.Error("Norm conversion failed", zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"error": "conversion failed"})
}
