package handlers

import (
	"net/http"
	"strconv"

	"github.com/AndriiKulakovskyi/efondamental-sub001/internal/catalog"
	"github.com/AndriiKulakovskyi/efondamental-sub001/internal/repository"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
)

type ResultsHandler struct {
	log     *zap.Logger
	catalog *catalog.Catalog
}

func NewResultsHandler(log *zap.Logger, cat *catalog.Catalog) *ResultsHandler {
	return &ResultsHandler{log: log, catalog: cat}
}

// History returns every stored submission for one patient, newest first,
// optionally filtered by instrument.
func (h *ResultsHandler) History(c *gin.Context) {
	patientID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid patient id"})
		return
	}

	records, err := repository.GetResponsesForPatient(c, uint(patientID), c.Query("instrument"))
	if err != nil {
		h.log.Error("Failed to load response history", zap.Error(err), zap.Uint64("patientID", patientID))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load history"})
		return
	}
	c.JSON(http.StatusOK, records)
}

// GetResponse returns one stored submission by its identifier.
func (h *ResultsHandler) GetResponse(c *gin.Context) {
	record, err := repository.GetResponseByID(c, c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown response"})
		return
	}
	c.JSON(http.StatusOK, record)
}

// TimelineChart renders the score-over-time chart of one instrument for one
// patient as a standalone page.
func (h *ResultsHandler) TimelineChart(c *gin.Context) {
	patientID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid patient id"})
		return
	}

	code := c.Param("code")
	def, ok := h.catalog.Definition(code)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown instrument"})
		return
	}

	points, err := repository.GetScoreTimeline(c, uint(patientID), code)
	if err != nil {
		h.log.Error("Failed to get score timeline", zap.Error(err), zap.Uint64("patientID", patientID), zap.String("instrument", code))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load timeline"})
		return
	}

	chart := generateTimelineChart(points, def.Metadata.Name)
	c.Header("Content-Type", "text/html; charset=utf-8")
	if err := chart.Render(c.Writer); err != nil {
		h.log.Error("Failed to render chart", zap.Error(err))
	}
}

func generateTimelineChart(data []repository.TimelineDataPoint, instrumentName string) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    "Score Over Time",
			Subtitle: instrumentName,
		}),
		charts.WithXAxisOpts(opts.XAxis{
			Type: "time",
		}),
		charts.WithYAxisOpts(opts.YAxis{
			Type:  "value",
			Scale: opts.Bool(true),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithDataZoomOpts(opts.DataZoom{Type: "slider"}),
	)

	items := make([]opts.LineData, 0, len(data))
	for _, point := range data {
		items = append(items, opts.LineData{Value: []interface{}{point.Date, point.Value}})
	}

	line.AddSeries(instrumentName, items).SetSeriesOptions(charts.WithLineStyleOpts(opts.LineStyle{Width: 2}))
	return line
}
