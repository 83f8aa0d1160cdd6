package rank

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"resumerank-engine/internal/config"
	"resumerank-engine/internal/domain"
)

const weightSumTolerance = 1e-6

// Signal names as accepted in weight overrides and reported in issues.
const (
	SignalPartial     = "partial"
	SignalRelative    = "relative"
	SignalPenalty     = "penalty"
	SignalConsistency = "consistency"
	SignalDuplicate   = "duplicate"
)

var signalNames = []string{SignalPartial, SignalRelative, SignalPenalty, SignalConsistency, SignalDuplicate}

// IssueInvalidWeight is reported when a supplied weight was replaced by its
// default.
const IssueInvalidWeight = "invalid_weight"

// WeightSet is the relative importance of the five signals. After
// ResolveWeights the values are non-negative and sum to 1.
type WeightSet struct {
	Partial     float64 `json:"partial" yaml:"partial"`
	Relative    float64 `json:"relative" yaml:"relative"`
	Penalty     float64 `json:"penalty" yaml:"penalty"`
	Consistency float64 `json:"consistency" yaml:"consistency"`
	Duplicate   float64 `json:"duplicate" yaml:"duplicate"`
}

func DefaultWeights() WeightSet {
	return WeightSetFromConfig(config.DefaultWeights())
}

func WeightSetFromConfig(w config.Weights) WeightSet {
	return WeightSet{
		Partial:     w.Partial,
		Relative:    w.Relative,
		Penalty:     w.Penalty,
		Consistency: w.Consistency,
		Duplicate:   w.Duplicate,
	}
}

func (w WeightSet) Sum() float64 {
	return w.Partial + w.Relative + w.Penalty + w.Consistency + w.Duplicate
}

// Normalize scales the weights to sum to 1. A zero set is returned unchanged.
func (w WeightSet) Normalize() WeightSet {
	sum := w.Sum()
	if math.IsInf(sum, 1) {
		// Large finite weights can overflow the sum; rescale by the largest first.
		w = w.divide(w.max())
		sum = w.Sum()
	}
	if sum == 0 || math.IsNaN(sum) {
		return w
	}
	return w.divide(sum)
}

func (w WeightSet) divide(d float64) WeightSet {
	return WeightSet{
		Partial:     w.Partial / d,
		Relative:    w.Relative / d,
		Penalty:     w.Penalty / d,
		Consistency: w.Consistency / d,
		Duplicate:   w.Duplicate / d,
	}
}

func (w WeightSet) max() float64 {
	m := 0.0
	for _, v := range w.asList() {
		m = math.Max(m, v)
	}
	return m
}

// Validate checks that weights are non-negative, finite and sum to 1.
func (w WeightSet) Validate() error {
	for _, v := range w.asList() {
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("invalid weight: %v", v)
		}
	}
	if math.Abs(w.Sum()-1.0) > weightSumTolerance {
		return fmt.Errorf("weights sum to %.6f, must sum to 1.0", w.Sum())
	}
	return nil
}

// Signals converts the set into the per-signal record used in results.
func (w WeightSet) Signals() domain.Signals {
	return domain.Signals{
		Partial:     w.Partial,
		Relative:    w.Relative,
		Penalty:     w.Penalty,
		Consistency: w.Consistency,
		Duplicate:   w.Duplicate,
	}
}

func (w WeightSet) asList() []float64 {
	return []float64{w.Partial, w.Relative, w.Penalty, w.Consistency, w.Duplicate}
}

func (w *WeightSet) field(name string) *float64 {
	switch name {
	case SignalPartial:
		return &w.Partial
	case SignalRelative:
		return &w.Relative
	case SignalPenalty:
		return &w.Penalty
	case SignalConsistency:
		return &w.Consistency
	case SignalDuplicate:
		return &w.Duplicate
	}
	return nil
}

// ResolveWeights fills a WeightSet from caller overrides. Unknown keys are
// ignored; values that are not finite non-negative numbers fall back to the
// default for that key and are reported as issues. Keys that differ only in
// case or surrounding space name the same signal; when several are given the
// signal keeps its default and the clash is reported. If every weight ends up
// zero the defaults are used as-is. The result is rescaled to sum to 1.
func ResolveWeights(defaults WeightSet, overrides map[string]any) (WeightSet, []domain.Issue) {
	out := defaults
	var issues []domain.Issue

	keys := make([]string, 0, len(overrides))
	for k := range overrides {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	seen := make(map[string]string, len(keys))
	for _, key := range keys {
		name := strings.ToLower(strings.TrimSpace(key))
		dst := out.field(name)
		if dst == nil {
			continue
		}
		if first, dup := seen[name]; dup {
			*dst = *defaults.field(name)
			issues = append(issues, domain.Issue{
				Kind:    IssueInvalidWeight,
				Key:     name,
				Message: fmt.Sprintf("keys %q and %q both set %s; using default %v", first, key, name, *dst),
			})
			continue
		}
		seen[name] = key

		v, err := parseWeight(overrides[key])
		if err != nil {
			*dst = *defaults.field(name)
			issues = append(issues, domain.Issue{
				Kind:    IssueInvalidWeight,
				Key:     name,
				Message: fmt.Sprintf("%v; using default %v", err, *dst),
			})
			continue
		}
		*dst = v
	}

	if out.Sum() == 0 {
		out = defaults
	}
	// Overrides arrive as a map; order issues by key so results are repeatable.
	sort.SliceStable(issues, func(i, j int) bool { return issues[i].Key < issues[j].Key })
	return out.Normalize(), issues
}

func validWeight(v float64) bool {
	return v >= 0 && !math.IsInf(v, 0)
}

// orDefault returns v unless it is negative or not finite.
func orDefault(v, def float64) float64 {
	if validWeight(v) {
		return v
	}
	return def
}

func parseWeight(raw any) (float64, error) {
	var v float64
	switch x := raw.(type) {
	case float64:
		v = x
	case float32:
		v = float64(x)
	case int:
		v = float64(x)
	case int64:
		v = float64(x)
	case int32:
		v = float64(x)
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return 0, fmt.Errorf("weight %q is not a number", x.String())
		}
		v = f
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return 0, fmt.Errorf("weight %q is not a number", x)
		}
		v = f
	case nil:
		return 0, fmt.Errorf("weight is null")
	default:
		return 0, fmt.Errorf("weight of type %T is not a number", raw)
	}

	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("weight %v is not finite", v)
	}
	if v < 0 {
		return 0, fmt.Errorf("weight %v is negative", v)
	}
	return v, nil
}
