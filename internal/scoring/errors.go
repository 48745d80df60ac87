package scoring

import (
	"fmt"
	"strings"
)

// MissingAnswersError reports the visible, required questions left
// unanswered at scoring time. Scoring never silently defaults them to zero.
type MissingAnswersError struct {
	Instrument  string
	QuestionIDs []string
}

func (e *MissingAnswersError) Error() string {
	return fmt.Sprintf("instrument %q: missing required answers: %s",
		e.Instrument, strings.Join(e.QuestionIDs, ", "))
}
