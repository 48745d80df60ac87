package norms

import "fmt"

// UnsupportedDemographicError reports a subject outside every published
// band of a table. Callers must surface it, never clamp to the nearest band.
type UnsupportedDemographicError struct {
	Instrument string
	Age        int
	Education  string
}

func (e *UnsupportedDemographicError) Error() string {
	if e.Education != "" {
		return fmt.Sprintf("instrument %q: no normative band covers age %d with education %q", e.Instrument, e.Age, e.Education)
	}
	return fmt.Sprintf("instrument %q: no normative band covers age %d", e.Instrument, e.Age)
}
