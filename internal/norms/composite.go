// composite.go
package norms

import "fmt"

// CompositeRow maps a ceiling on the summed component scores to the
// composite's own T-score and percentile. A ceiling of 0 is the sentinel for
// an unreachable entry and is skipped by the scan.
type CompositeRow struct {
	Ceiling    int     `yaml:"ceiling"`
	T          int     `yaml:"t"`
	Percentile float64 `yaml:"percentile"`
}

// CompositeBand is one age band of a composite index table, with its
// separately published confidence-interval half-width.
type CompositeBand struct {
	AgeMin      int            `yaml:"age_min"`
	AgeMax      int            `yaml:"age_max"`
	CIHalfWidth float64        `yaml:"ci_half_width"`
	Rows        []CompositeRow `yaml:"rows"`
}

// CompositeTable holds the second-stage lookup of a composite index score
// (e.g. an executive-function composite built from sub-scale T-scores). Each
// band's table is independently authored; there is no formula sharing.
type CompositeTable struct {
	Instrument string          `yaml:"instrument"`
	Name       string          `yaml:"name,omitempty"`
	Bands      []CompositeBand `yaml:"bands"`
}

// CompositeScore is a composite point estimate with its reporting interval.
type CompositeScore struct {
	CompositeScore              int     `json:"composite_score"`
	T                           int     `json:"t"`
	Percentile                  float64 `json:"percentile"`
	ConfidenceIntervalHalfWidth float64 `json:"confidence_interval_half_width"`
}

// Convert looks up the sum of component standard scores in the subject's
// band: the same smallest-ceiling scan as the first-stage tables, keyed by
// the summed value, saturating at the band's highest row.
func (t *CompositeTable) Convert(d Demographic, sum int) (CompositeScore, error) {
	var band *CompositeBand
	for i := range t.Bands {
		b := &t.Bands[i]
		if d.Age >= b.AgeMin && d.Age <= b.AgeMax {
			band = b
			break
		}
	}
	if band == nil {
		return CompositeScore{}, &UnsupportedDemographicError{Instrument: t.Instrument, Age: d.Age}
	}

	result := CompositeScore{
		CompositeScore:              sum,
		ConfidenceIntervalHalfWidth: band.CIHalfWidth,
	}
	var last *CompositeRow
	for i := range band.Rows {
		r := &band.Rows[i]
		if r.Ceiling == 0 {
			continue
		}
		last = r
		if sum <= r.Ceiling {
			result.T = r.T
			result.Percentile = r.Percentile
			return result, nil
		}
	}
	if last == nil {
		return CompositeScore{}, fmt.Errorf("instrument %q: band %d-%d has no usable rows", t.Instrument, band.AgeMin, band.AgeMax)
	}
	result.T = last.T
	result.Percentile = last.Percentile
	return result, nil
}

func (t *CompositeTable) validate() error {
	if t.Instrument == "" {
		return fmt.Errorf("composite table without instrument key")
	}
	if len(t.Bands) == 0 {
		return fmt.Errorf("instrument %q: no bands", t.Instrument)
	}
	for i := range t.Bands {
		b := &t.Bands[i]
		if b.AgeMin > b.AgeMax {
			return fmt.Errorf("instrument %q: band %d-%d inverted", t.Instrument, b.AgeMin, b.AgeMax)
		}
		if len(b.Rows) == 0 {
			return fmt.Errorf("instrument %q: band %d-%d has no rows", t.Instrument, b.AgeMin, b.AgeMax)
		}
		prev := -1
		for _, r := range b.Rows {
			if r.Ceiling == 0 {
				continue
			}
			if r.Ceiling < prev {
				return fmt.Errorf("instrument %q: band %d-%d ceilings decrease at %d",
					t.Instrument, b.AgeMin, b.AgeMax, r.Ceiling)
			}
			prev = r.Ceiling
		}
		for j := 0; j < i; j++ {
			a := &t.Bands[j]
			if a.AgeMin <= b.AgeMax && b.AgeMin <= a.AgeMax {
				return fmt.Errorf("instrument %q: bands %d-%d and %d-%d overlap",
					t.Instrument, a.AgeMin, a.AgeMax, b.AgeMin, b.AgeMax)
			}
		}
	}
	return nil
}
