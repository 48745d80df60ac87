// record.go
package models

import (
	"encoding/json"
	"time"

	"github.com/lib/pq"
)

// Patient is one followed subject. The demographic fields feed normative
// band selection.
type Patient struct {
	ID             uint `gorm:"primaryKey"`
	FirstName      string
	LastName       string
	BirthDate      time.Time
	EducationYears int
	Pathology      string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// AgeAt returns the patient's age in whole years at the given time.
func (p *Patient) AgeAt(t time.Time) int {
	age := t.Year() - p.BirthDate.Year()
	if t.YearDay() < p.BirthDate.YearDay() {
		age--
	}
	return age
}

// ResponseRecord is one submitted questionnaire with its computed scores.
// The raw answers are kept verbatim so results can be re-derived if an
// instrument definition is ever corrected in a later version.
type ResponseRecord struct {
	ID                string `gorm:"primaryKey"`
	PatientID         uint
	Patient           Patient `gorm:"foreignKey:PatientID"`
	ClinicianID       uint
	InstrumentCode    string
	InstrumentVersion string
	Answers           json.RawMessage `gorm:"type:jsonb"`
	TotalScore        *float64
	Severity          string
	ScreeningVerdict  string
	DomainScores      json.RawMessage `gorm:"type:jsonb"`
	ClinicalAlerts    pq.StringArray  `gorm:"type:text[]"`
	CreatedAt         time.Time
}
