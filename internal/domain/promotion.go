package domain

// Promotion policy. The thresholds are the same for every learner and every
// level.
const (
	PromotionMasteryThreshold = 75.0
	PromotionMinRulesTracked  = 5
	PromotionMinRulesMastered = 5
	MasteredThreshold         = 80
	WeakThreshold             = 50
	DefaultWeaknessThreshold  = 60
)

// PromotionReason names the gate that blocked a promotion.
type PromotionReason string

const (
	ReasonNone                       PromotionReason = ""
	ReasonInsufficientRulesTracked   PromotionReason = "insufficient_rules_tracked"
	ReasonAtMaximumLevel             PromotionReason = "at_maximum_level"
	ReasonInsufficientAverageMastery PromotionReason = "insufficient_average_mastery"
	ReasonInsufficientRulesMastered  PromotionReason = "insufficient_rules_mastered"
	ReasonNoPracticeSincePromotion   PromotionReason = "no_practice_since_promotion"
)

// PromotionDecision is the outcome of evaluating a ledger snapshot.
type PromotionDecision struct {
	Eligible       bool
	CurrentLevel   Level
	NextLevel      Level
	AverageMastery float64
	RulesTracked   int
	RulesMastered  int
	Reason         PromotionReason
}

// EvaluatePromotion decides whether a learner at level may advance, given a
// snapshot of all their skill records. The gates are checked in a fixed
// order and the first failing one is reported: rules tracked, maximum
// level, average mastery, rules mastered.
func EvaluatePromotion(records []*SkillRecord, level Level) PromotionDecision {
	d := PromotionDecision{
		CurrentLevel:  level,
		NextLevel:     level,
		RulesTracked:  len(records),
		RulesMastered: countAtLeast(records, MasteredThreshold),
	}
	if len(records) > 0 {
		sum := 0
		for _, r := range records {
			sum += r.MasteryLevel
		}
		d.AverageMastery = float64(sum) / float64(len(records))
	}

	next, hasNext := level.Next()
	switch {
	case d.RulesTracked < PromotionMinRulesTracked:
		d.Reason = ReasonInsufficientRulesTracked
	case !hasNext:
		d.Reason = ReasonAtMaximumLevel
	case d.AverageMastery < PromotionMasteryThreshold:
		d.Reason = ReasonInsufficientAverageMastery
	case d.RulesMastered < PromotionMinRulesMastered:
		d.Reason = ReasonInsufficientRulesMastered
	default:
		d.Eligible = true
		d.NextLevel = next
	}
	return d
}

// EvaluateLearnerPromotion is EvaluatePromotion at the learner's level with
// one more gate: after a promotion, some rule must have been practiced
// again before the learner can be promoted a second time.
func EvaluateLearnerPromotion(records []*SkillRecord, l *Learner) PromotionDecision {
	d := EvaluatePromotion(records, l.Level)
	if !d.Eligible || l.PromotedAt == nil {
		return d
	}
	for _, r := range records {
		if r.LastPracticedAt != nil && r.LastPracticedAt.After(*l.PromotedAt) {
			return d
		}
	}
	d.Eligible = false
	d.NextLevel = l.Level
	d.Reason = ReasonNoPracticeSincePromotion
	return d
}

func countAtLeast(records []*SkillRecord, threshold int) int {
	n := 0
	for _, r := range records {
		if r.MasteryLevel >= threshold {
			n++
		}
	}
	return n
}
