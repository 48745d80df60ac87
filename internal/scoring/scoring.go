// Scoring engine: aggregates an answer map into instrument scores.
package scoring

import (
	"fmt"
	"strings"

	"github.com/AndriiKulakovskyi/efondamental-sub001/internal/logic"
	"github.com/AndriiKulakovskyi/efondamental-sub001/internal/models"
)

// Result is the outcome of scoring a sum- or domain-shaped instrument.
type Result struct {
	Instrument     string             `json:"instrument"`
	TotalScore     float64            `json:"total_score"`
	Severity       string             `json:"severity,omitempty"`
	Interpretation string             `json:"interpretation,omitempty"`
	Range          models.Range       `json:"range"`
	DomainScores   map[string]float64 `json:"domain_scores,omitempty"`
	ClinicalAlerts []string           `json:"clinical_alerts"`
}

// Score computes the total and per-domain scores for a definition. It fails
// with *MissingAnswersError when any visible, required question is
// unanswered; it never scores a missing answer as zero.
func Score(def *models.QuestionnaireDefinition, answers models.AnswerMap) (*Result, error) {
	rules := def.Scoring
	if rules == nil {
		return nil, fmt.Errorf("instrument %q has no scoring rules", def.Metadata.Code)
	}
	if rules.Screening != nil {
		return nil, fmt.Errorf("instrument %q is a screening instrument, use ScoreScreening", def.Metadata.Code)
	}

	if err := checkRequired(def, answers); err != nil {
		return nil, err
	}

	result := &Result{
		Instrument:     def.Metadata.Code,
		Range:          rules.Total,
		ClinicalAlerts: []string{},
	}

	total := 0.0
	if len(rules.Domains) > 0 {
		result.DomainScores = make(map[string]float64, len(rules.Domains))
	}
	for i := range rules.Domains {
		d := &rules.Domains[i]
		ds, err := domainScore(def, d, answers)
		if err != nil {
			return nil, err
		}
		result.DomainScores[d.ID] = ds
		total += ds
	}

	for _, qid := range rules.DirectItems {
		// An unanswered optional direct item contributes nothing.
		if !answers.Has(qid) {
			continue
		}
		q, _ := def.Question(qid)
		s, err := itemScore(q, answers.Get(qid))
		if err != nil {
			return nil, err
		}
		total += s
	}
	result.TotalScore = total

	if len(rules.Thresholds) > 0 {
		band, ok := rules.BandFor(total)
		if !ok {
			return nil, fmt.Errorf("instrument %q: total %.1f is outside every threshold band", def.Metadata.Code, total)
		}
		result.Severity = band.Label
		result.Interpretation = band.Interpretation
		if result.Interpretation == "" {
			result.Interpretation = band.Label
		}
	}

	result.ClinicalAlerts = append(result.ClinicalAlerts, evaluateAlerts(def, rules, answers)...)
	result.ClinicalAlerts = append(result.ClinicalAlerts, ExclusivityConflicts(def, answers)...)
	return result, nil
}

// ExclusivityConflicts reports, for every domain flagged as clinically
// mutually exclusive, the member items endorsed simultaneously with non-zero
// scores. Conflicts are advisory for the reviewing clinician and never block
// scoring.
func ExclusivityConflicts(def *models.QuestionnaireDefinition, answers models.AnswerMap) []string {
	rules := def.Scoring
	if rules == nil {
		return nil
	}
	var warnings []string
	for i := range rules.Domains {
		d := &rules.Domains[i]
		if !d.MutuallyExclusive {
			continue
		}
		var endorsed []string
		for _, qid := range d.Items {
			if !answers.Has(qid) {
				continue
			}
			q, ok := def.Question(qid)
			if !ok {
				continue
			}
			s, err := itemScore(q, answers.Get(qid))
			if err == nil && s != 0 {
				endorsed = append(endorsed, qid)
			}
		}
		if len(endorsed) > 1 {
			warnings = append(warnings,
				fmt.Sprintf("domain %q: mutually exclusive items endorsed simultaneously: %s",
					d.ID, strings.Join(endorsed, ", ")))
		}
	}
	return warnings
}

// checkRequired returns *MissingAnswersError listing every visible, required
// question left unanswered, in definition order.
func checkRequired(def *models.QuestionnaireDefinition, answers models.AnswerMap) error {
	visible, err := logic.VisibleQuestions(def, answers)
	if err != nil {
		return err
	}
	required, err := logic.RequiredQuestions(def, answers, visible)
	if err != nil {
		return err
	}

	var missing []string
	for i := range def.Questions {
		qid := def.Questions[i].ID
		if required[qid] && !answers.Has(qid) {
			missing = append(missing, qid)
		}
	}
	if len(missing) > 0 {
		return &MissingAnswersError{Instrument: def.Metadata.Code, QuestionIDs: missing}
	}
	return nil
}

// domainScore applies the domain's aggregation over the numeric scores of
// its member items. An unanswered member contributes the identity element,
// zero for both max and sum on these bounded non-negative scales.
func domainScore(def *models.QuestionnaireDefinition, d *models.Domain, answers models.AnswerMap) (float64, error) {
	score := 0.0
	for _, qid := range d.Items {
		if !answers.Has(qid) {
			continue
		}
		q, _ := def.Question(qid)
		s, err := itemScore(q, answers.Get(qid))
		if err != nil {
			return 0, err
		}
		switch d.Aggregation {
		case models.AggregationMax:
			if s > score {
				score = s
			}
		case models.AggregationSum:
			score += s
		}
	}
	return score, nil
}

// itemScore converts one answered item into its numeric contribution: the
// matched option's score for choice questions, the raw number otherwise.
func itemScore(q *models.Question, v models.Value) (float64, error) {
	switch q.Type {
	case models.TypeSingleChoice:
		opt, ok := q.OptionByCode(v.Str)
		if !ok {
			return 0, fmt.Errorf("question %q: answer %q matches no option", q.ID, v.Str)
		}
		return opt.ScoreValue(), nil

	case models.TypeMultipleChoice:
		sum := 0.0
		for _, code := range v.Codes {
			opt, ok := q.OptionByCode(code)
			if !ok {
				return 0, fmt.Errorf("question %q: answer %q matches no option", q.ID, code)
			}
			sum += opt.ScoreValue()
		}
		return sum, nil

	case models.TypeNumber, models.TypeScale, models.TypeBoolean:
		f, ok := v.Float()
		if !ok {
			return 0, fmt.Errorf("question %q: answer is not numeric", q.ID)
		}
		return f, nil
	}
	return 0, fmt.Errorf("question %q: type %q is not scorable", q.ID, q.Type)
}

func evaluateAlerts(def *models.QuestionnaireDefinition, rules *models.ScoringRules, answers models.AnswerMap) []string {
	var alerts []string
	for _, rule := range rules.Alerts {
		count := 0
		for _, qid := range rule.Items {
			if !answers.Has(qid) {
				continue
			}
			q, ok := def.Question(qid)
			if !ok {
				continue
			}
			if s, err := itemScore(q, answers.Get(qid)); err == nil && s == rule.Value {
				count++
			}
		}
		if count >= rule.AtLeast {
			alerts = append(alerts, rule.Message)
		}
	}
	return alerts
}
