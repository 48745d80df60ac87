// screening.go
package scoring

import (
	"fmt"

	"github.com/AndriiKulakovskyi/efondamental-sub001/internal/logic"
	"github.com/AndriiKulakovskyi/efondamental-sub001/internal/models"
)

// ScreeningResult is the outcome of a conditional screening instrument. The
// verdict is the conjunction of three independent conditions, not a single
// numeric cutoff.
type ScreeningResult struct {
	Instrument         string   `json:"instrument"`
	SymptomCount       int      `json:"symptom_count"`
	CountThresholdMet  bool     `json:"count_threshold_met"`
	CoOccurrence       bool     `json:"co_occurrence"`
	ImpactLevel        float64  `json:"impact_level"`
	ImpactThresholdMet bool     `json:"impact_threshold_met"`
	ScreeningResult    string   `json:"screening_result"`
	Interpretation     string   `json:"interpretation,omitempty"`
	ClinicalAlerts     []string `json:"clinical_alerts"`
}

// ScoreScreening computes the conjunctive screening verdict: symptom count
// at threshold AND the co-occurrence question endorsed AND the impact level
// at threshold. The co-occurrence and impact questions only count while
// visible; their branching usually hides them below the symptom threshold.
func ScoreScreening(def *models.QuestionnaireDefinition, answers models.AnswerMap) (*ScreeningResult, error) {
	rules := def.Scoring
	if rules == nil || rules.Screening == nil {
		return nil, fmt.Errorf("instrument %q has no screening rules", def.Metadata.Code)
	}
	s := rules.Screening

	if err := checkRequired(def, answers); err != nil {
		return nil, err
	}
	visible, err := logic.VisibleQuestions(def, answers)
	if err != nil {
		return nil, err
	}

	count := 0.0
	for _, qid := range s.CountItems {
		if !answers.Has(qid) {
			continue
		}
		q, _ := def.Question(qid)
		v, err := itemScore(q, answers.Get(qid))
		if err != nil {
			return nil, err
		}
		count += v
	}

	result := &ScreeningResult{
		Instrument:        def.Metadata.Code,
		SymptomCount:      int(count),
		CountThresholdMet: int(count) >= s.CountThreshold,
		ClinicalAlerts:    []string{},
	}

	if visible[s.ConfirmItem] && answers.Has(s.ConfirmItem) {
		result.CoOccurrence = confirmMatches(answers.Get(s.ConfirmItem), s.ConfirmValue)
	}

	if visible[s.ImpactItem] && answers.Has(s.ImpactItem) {
		q, _ := def.Question(s.ImpactItem)
		level, err := itemScore(q, answers.Get(s.ImpactItem))
		if err != nil {
			return nil, err
		}
		result.ImpactLevel = level
		result.ImpactThresholdMet = level >= s.ImpactThreshold
	}

	if result.CountThresholdMet && result.CoOccurrence && result.ImpactThresholdMet {
		result.ScreeningResult = s.PositiveLabel
		result.Interpretation = s.PositiveText
	} else {
		result.ScreeningResult = s.NegativeLabel
		result.Interpretation = s.NegativeText
	}

	result.ClinicalAlerts = append(result.ClinicalAlerts, evaluateAlerts(def, rules, answers)...)
	return result, nil
}

func confirmMatches(v models.Value, want string) bool {
	switch v.Kind {
	case models.KindString:
		return models.CodeEqual(v.Str, want)
	case models.KindBool:
		return (want == "true" || want == "1" || want == "oui") == v.Bool
	}
	return false
}
