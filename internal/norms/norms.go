// Normative conversion: demographic-banded raw-to-standard score lookups.
//
// Every band's table is a direct transcription of a published reference
// table and is treated as opaque ground truth; values are never re-derived
// or interpolated across bands.
package norms

import "fmt"

// Demographic identifies the subject for band selection.
type Demographic struct {
	Age       int    `json:"age"`
	Education string `json:"education,omitempty"`
}

// Row maps a closed raw-score interval to a standard score and percentile
// (the row form used by time-based instruments and T-score tables).
type Row struct {
	RawMin     float64 `yaml:"raw_min"`
	RawMax     float64 `yaml:"raw_max"`
	Standard   int     `yaml:"standard"`
	Percentile float64 `yaml:"percentile"`
}

// Band is one demographic cell of a norm table. Exactly one of Ceilings and
// Rows is set. In the ceiling form, index+1 is the standard score and a 0
// entry marks a standard score unreachable in this band.
type Band struct {
	AgeMin    int     `yaml:"age_min"`
	AgeMax    int     `yaml:"age_max"`
	Education string  `yaml:"education,omitempty"`
	Ceilings  []int   `yaml:"ceilings,omitempty"`
	Rows      []Row   `yaml:"rows,omitempty"`
}

func (b *Band) matches(d Demographic) bool {
	if d.Age < b.AgeMin || d.Age > b.AgeMax {
		return false
	}
	if b.Education != "" && b.Education != d.Education {
		return false
	}
	return true
}

// Table holds the banded norms of one instrument subscale.
type Table struct {
	Instrument string  `yaml:"instrument"`
	Name       string  `yaml:"name,omitempty"`
	ScaleMax   int     `yaml:"scale_max"`
	Mean       float64 `yaml:"mean"`
	SD         float64 `yaml:"sd"`
	Bands      []Band  `yaml:"bands"`
}

// Conversion is a raw score referenced against the subject's band.
type Conversion struct {
	StandardScore int     `json:"standard_score"`
	Z             float64 `json:"z"`
	Percentile    float64 `json:"percentile"`
}

// Derived holds the metrics computed from a standard score alone.
type Derived struct {
	Z          float64 `json:"z"`
	Percentile float64 `json:"percentile"`
}

// ToStandardScore converts a raw score within the subject's band. In the
// ceiling form the result is the smallest standard score whose ceiling is
// >= raw, skipping sentinel-0 entries, saturating at the scale maximum. A
// raw score of exactly 0 always yields standard score 1; this is an explicit
// boundary rule, not a consequence of the scan.
func (t *Table) ToStandardScore(d Demographic, raw float64) (int, error) {
	band, err := t.bandFor(d)
	if err != nil {
		return 0, err
	}

	if raw == 0 {
		return 1, nil
	}

	if len(band.Rows) > 0 {
		for _, r := range band.Rows {
			if raw >= r.RawMin && raw <= r.RawMax {
				return r.Standard, nil
			}
		}
		return 0, fmt.Errorf("instrument %q: raw score %.1f outside band table (age %d-%d)",
			t.Instrument, raw, band.AgeMin, band.AgeMax)
	}

	for i, c := range band.Ceilings {
		if c == 0 {
			// Standard score i+1 is unreachable in this band.
			continue
		}
		if raw <= float64(c) {
			return i + 1, nil
		}
	}
	return t.ScaleMax, nil
}

// Convert performs the full raw-to-standard conversion with derived metrics.
// Row-form bands report the percentile published in the row; ceiling-form
// tables use the instrument's declared linear convention.
func (t *Table) Convert(d Demographic, raw float64) (Conversion, error) {
	band, err := t.bandFor(d)
	if err != nil {
		return Conversion{}, err
	}

	ss, err := t.ToStandardScore(d, raw)
	if err != nil {
		return Conversion{}, err
	}

	conv := Conversion{StandardScore: ss, Z: t.zScore(ss)}
	if len(band.Rows) > 0 {
		conv.Percentile = band.rowPercentile(ss)
		return conv, nil
	}
	conv.Percentile = t.linearPercentile(ss)
	return conv, nil
}

// rowPercentile reports the published percentile for a standard score. The
// raw-0 floor can yield a standard score below every published row; such a
// score clamps to the nearest published row's percentile so the result stays
// within the table's range.
func (b *Band) rowPercentile(ss int) float64 {
	lo, hi := &b.Rows[0], &b.Rows[0]
	for i := range b.Rows {
		r := &b.Rows[i]
		if r.Standard == ss {
			return r.Percentile
		}
		if r.Standard < lo.Standard {
			lo = r
		}
		if r.Standard > hi.Standard {
			hi = r
		}
	}
	if ss < lo.Standard {
		return lo.Percentile
	}
	return hi.Percentile
}

// ToDerivedMetrics computes z and percentile from a standard score using the
// instrument's declared scale mean/SD and its linear percentile convention.
// The percentile is a table-defined linear proxy, not a normal-CDF value; it
// must reproduce the published figures exactly.
func (t *Table) ToDerivedMetrics(standardScore int) Derived {
	return Derived{
		Z:          t.zScore(standardScore),
		Percentile: t.linearPercentile(standardScore),
	}
}

func (t *Table) zScore(ss int) float64 {
	return (float64(ss) - t.Mean) / t.SD
}

func (t *Table) linearPercentile(ss int) float64 {
	return (float64(ss-1-9) / 3.0) * 100
}

func (t *Table) bandFor(d Demographic) (*Band, error) {
	for i := range t.Bands {
		if t.Bands[i].matches(d) {
			return &t.Bands[i], nil
		}
	}
	return nil, &UnsupportedDemographicError{Instrument: t.Instrument, Age: d.Age, Education: d.Education}
}

// validate checks the table's structural invariants at load time.
func (t *Table) validate() error {
	if t.Instrument == "" {
		return fmt.Errorf("norm table without instrument key")
	}
	if t.ScaleMax == 0 {
		t.ScaleMax = 19
	}
	if t.Mean == 0 && t.SD == 0 {
		t.Mean, t.SD = 10, 3
	}
	if t.SD == 0 {
		return fmt.Errorf("instrument %q: scale SD must be non-zero", t.Instrument)
	}
	if len(t.Bands) == 0 {
		return fmt.Errorf("instrument %q: no bands", t.Instrument)
	}

	for i := range t.Bands {
		b := &t.Bands[i]
		if b.AgeMin > b.AgeMax {
			return fmt.Errorf("instrument %q: band %d-%d inverted", t.Instrument, b.AgeMin, b.AgeMax)
		}
		if len(b.Ceilings) > 0 && len(b.Rows) > 0 {
			return fmt.Errorf("instrument %q: band %d-%d mixes ceiling and row forms", t.Instrument, b.AgeMin, b.AgeMax)
		}
		if len(b.Ceilings) == 0 && len(b.Rows) == 0 {
			return fmt.Errorf("instrument %q: band %d-%d is empty", t.Instrument, b.AgeMin, b.AgeMax)
		}
		if len(b.Ceilings) > t.ScaleMax {
			return fmt.Errorf("instrument %q: band %d-%d has %d ceilings for scale max %d",
				t.Instrument, b.AgeMin, b.AgeMax, len(b.Ceilings), t.ScaleMax)
		}

		// Ignoring sentinel entries, ceilings must be non-decreasing.
		prev := -1
		for _, c := range b.Ceilings {
			if c == 0 {
				continue
			}
			if c < prev {
				return fmt.Errorf("instrument %q: band %d-%d ceilings decrease at %d",
					t.Instrument, b.AgeMin, b.AgeMax, c)
			}
			prev = c
		}

		for j := 0; j < i; j++ {
			if bandsOverlap(&t.Bands[j], b) {
				return fmt.Errorf("instrument %q: bands %d-%d and %d-%d overlap",
					t.Instrument, t.Bands[j].AgeMin, t.Bands[j].AgeMax, b.AgeMin, b.AgeMax)
			}
		}
	}
	return nil
}

func bandsOverlap(a, b *Band) bool {
	if a.Education != b.Education {
		return false
	}
	return a.AgeMin <= b.AgeMax && b.AgeMin <= a.AgeMax
}
