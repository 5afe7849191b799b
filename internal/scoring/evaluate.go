package scoring

import (
	"sort"

	"github.com/opalforge/adaptiveplan/internal/evalerr"
	"github.com/opalforge/adaptiveplan/internal/intent"
	"github.com/opalforge/adaptiveplan/internal/invariant"
	"github.com/opalforge/adaptiveplan/internal/term"
)

type hardState struct {
	key string
}

type softState struct {
	key         string
	weightClass string
	weight      term.Decimal
}

// Evaluate runs Stage B over candidates using profile and the
// optional override set.
func Evaluate(profile *intent.OptimizationProfile, override *intent.OverrideSet, candidates []Candidate) (*Result, error) {
	invariant.NotNil(profile, "profile")
	invariant.Precondition(len(candidates) > 0, "stage B requires a non-empty candidate set")

	activeHard := map[string]bool{}
	for _, hc := range profile.HardConstraints {
		activeHard[hc.Key] = true
	}
	activeSoft := map[string]softState{}
	for _, st := range profile.SoftTerms {
		activeSoft[st.Key] = softState{key: st.Key, weightClass: st.WeightClass, weight: st.Weight}
	}
	threshold := profile.SatisficeThreshold
	var applied []AppliedRelaxation

	rules := append([]intent.RelaxationRule(nil), profile.RelaxationRules...)
	sort.Slice(rules, func(i, j int) bool { return relaxationRuleLess(rules[i], rules[j]) })

	strictOverride := override != nil && override.OverrideMode == "strict"

	for {
		feasible, err := feasibleCandidates(candidates, activeHard, strictOverride, override)
		if err != nil {
			return &Result{Status: StatusError}, err
		}

		if len(feasible) > 0 {
			scored, err := scoreCandidates(feasible, activeSoft)
			if err != nil {
				return &Result{Status: StatusError}, err
			}

			var qualifying []scoredCandidate
			for _, sc := range scored {
				if threshold == nil || sc.score.Cmp(*threshold) >= 0 {
					qualifying = append(qualifying, sc)
				}
			}
			if len(qualifying) > 0 {
				sort.Slice(qualifying, func(i, j int) bool { return qualifyingLess(qualifying[i], qualifying[j]) })
				invariant.Postcondition(qualifying[0].score.Sign() >= 0 && qualifying[0].score.Cmp(term.DecimalFromInt(1)) <= 0, "selected score must lie in [0,1]")
				return &Result{
					Status:             StatusOK,
					SelectedCandidate:  qualifying[0].id,
					SelectedScore:      qualifying[0].score,
					AppliedRelaxations: applied,
				}, nil
			}
		}

		if len(rules) == 0 {
			return &Result{Status: StatusError}, &evalerr.ExhaustionError{Reason: "relaxation cascade exhausted without a feasible and qualifying candidate"}
		}
		rule := rules[0]
		rules = rules[1:]
		threshold = applyRelaxation(rule, activeHard, activeSoft, threshold)
		applied = append(applied, AppliedRelaxation{
			RelaxOrder:       rule.RelaxOrder,
			RelaxWeightClass: rule.RelaxWeightClass,
			RelaxationAction: rule.RelaxationAction,
		})
	}
}

func relaxationRuleLess(a, b intent.RelaxationRule) bool {
	if a.RelaxOrder != b.RelaxOrder {
		return a.RelaxOrder < b.RelaxOrder
	}
	if a.RelaxWeightClass != b.RelaxWeightClass {
		return a.RelaxWeightClass < b.RelaxWeightClass
	}
	return a.RelaxationAction < b.RelaxationAction
}

func feasibleCandidates(candidates []Candidate, activeHard map[string]bool, strictOverride bool, override *intent.OverrideSet) ([]Candidate, error) {
	var out []Candidate
	for _, c := range candidates {
		ok, err := isFeasible(c, activeHard, strictOverride, override)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, c)
		}
	}
	return out, nil
}

func isFeasible(c Candidate, activeHard map[string]bool, strictOverride bool, override *intent.OverrideSet) (bool, error) {
	for k := range activeHard {
		v, ok := c.HardResults[k]
		if !ok {
			return false, &evalerr.SemanticConstraintError{Reason: "candidate " + c.ID + " is missing hard-constraint result for " + k}
		}
		if !v {
			return false, nil
		}
	}
	if strictOverride {
		for _, oc := range override.Constraints {
			v, ok := c.OverrideResults[OverrideKey{Kind: oc.OverrideKind, TargetRef: oc.TargetRef}]
			if !ok {
				return false, &evalerr.SemanticConstraintError{Reason: "candidate " + c.ID + " is missing override result for (" + oc.OverrideKind + ", " + oc.TargetRef + ")"}
			}
			if !v {
				return false, nil
			}
		}
	}
	return true, nil
}

type scoredCandidate struct {
	id    string
	score term.Decimal
}

func scoreCandidates(candidates []Candidate, activeSoft map[string]softState) ([]scoredCandidate, error) {
	if len(activeSoft) == 0 {
		return nil, &evalerr.SemanticConstraintError{Reason: "active soft-term set is empty"}
	}
	weightSum := term.DecimalZero
	for _, s := range activeSoft {
		weightSum = weightSum.Add(s.weight)
	}
	if weightSum.Sign() <= 0 {
		return nil, &evalerr.SemanticConstraintError{Reason: "active soft-term weights must sum positive"}
	}

	out := make([]scoredCandidate, 0, len(candidates))
	for _, c := range candidates {
		weighted := term.DecimalZero
		for key, s := range activeSoft {
			v, ok := c.SoftScores[key]
			if !ok {
				return nil, &evalerr.SemanticConstraintError{Reason: "candidate " + c.ID + " is missing soft score for " + key}
			}
			if v.Sign() < 0 || v.Cmp(term.DecimalFromInt(1)) > 0 {
				return nil, &evalerr.SemanticConstraintError{Reason: "candidate " + c.ID + " soft score for " + key + " is out of range [0,1]"}
			}
			weighted = weighted.Add(s.weight.Mul(v))
		}
		out = append(out, scoredCandidate{id: c.ID, score: weighted.Div(weightSum)})
	}
	return out, nil
}

func qualifyingLess(a, b scoredCandidate) bool {
	if cmp := a.score.Cmp(b.score); cmp != 0 {
		return cmp > 0 // −score ascending == score descending
	}
	return a.id < b.id
}

// applyRelaxation applies one relaxation rule (dropTerm, widenThreshold,
// or allowGroupSplit), returning the (possibly unchanged) satisfice
// threshold.
func applyRelaxation(rule intent.RelaxationRule, activeHard map[string]bool, activeSoft map[string]softState, threshold *term.Decimal) *term.Decimal {
	switch rule.RelaxationAction {
	case "dropTerm":
		if !rule.HasWeightClass {
			return threshold
		}
		survivors := map[string]softState{}
		for k, s := range activeSoft {
			if s.weightClass != rule.RelaxWeightClass {
				survivors[k] = s
			}
		}
		if len(survivors) == 0 {
			return threshold // would empty the active set; leave it unchanged
		}
		for k := range activeSoft {
			delete(activeSoft, k)
		}
		for k, s := range survivors {
			activeSoft[k] = s
		}
	case "widenThreshold":
		if threshold == nil {
			return threshold
		}
		widened := threshold.Sub(term.MustDecimal("0.1")).ClampNonNegative()
		return &widened
	case "allowGroupSplit":
		delete(activeHard, "preserveGroupCohesion")
	}
	return threshold
}
