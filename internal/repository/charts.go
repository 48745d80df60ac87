package repository

import (
	"context"
	"time"

	"github.com/AndriiKulakovskyi/efondamental-sub001/internal/database"
)

type TimelineDataPoint struct {
	Date  time.Time `json:"date"`
	Value float64   `json:"value"`
}

// GetScoreTimeline returns the total score of every scored submission of one
// instrument for one patient, oldest first. Screening instruments have no
// total score and never appear here.
func GetScoreTimeline(ctx context.Context, patientID uint, instrumentCode string) ([]TimelineDataPoint, error) {
	query := `
	SELECT created_at AS date, total_score AS value
	FROM response_records
	WHERE patient_id = ? AND instrument_code = ? AND total_score IS NOT NULL
	ORDER BY created_at ASC`

	var points []TimelineDataPoint
	result := database.DB.WithContext(ctx).Raw(query, patientID, instrumentCode).Scan(&points)
	return points, result.Error
}
