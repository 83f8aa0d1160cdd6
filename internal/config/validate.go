package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

func Validate(cfg Config) error {
	var errs []string

	if cfg.App.Port <= 0 || cfg.App.Port > 65535 {
		errs = append(errs, "app.port must be 1..65535")
	}
	if cfg.Retention.Days < 0 {
		errs = append(errs, "retention.days must be >= 0")
	}

	s := cfg.Scoring
	w := s.Weights
	for _, kv := range []struct {
		name string
		v    float64
	}{
		{"partial", w.Partial},
		{"relative", w.Relative},
		{"penalty", w.Penalty},
		{"consistency", w.Consistency},
		{"duplicate", w.Duplicate},
	} {
		if !finiteNonNeg(kv.v) {
			errs = append(errs, fmt.Sprintf("scoring.weights.%s must be a finite number >= 0", kv.name))
		}
	}
	if w.Partial+w.Relative+w.Penalty+w.Consistency+w.Duplicate <= 0 {
		errs = append(errs, "scoring.weights must not all be zero")
	}

	checkTerms := func(name string, terms []string) {
		for i, term := range terms {
			if term == "" {
				errs = append(errs, fmt.Sprintf("%s[%d] cannot be empty", name, i))
			}
		}
	}
	checkTerms("scoring.lexicon.weak", s.Lexicon.Weak)
	checkTerms("scoring.lexicon.strong", s.Lexicon.Strong)

	if !finiteNonNeg(s.Lexicon.WeakIncrement) || !finiteNonNeg(s.Lexicon.StrongIncrement) {
		errs = append(errs, "scoring.lexicon increments must be >= 0")
	}
	if !finiteNonNeg(s.Lexicon.Cap) {
		errs = append(errs, "scoring.lexicon.cap must be >= 0 (0 disables the cap)")
	}
	if !finiteNonNeg(s.PenaltyFactor) {
		errs = append(errs, "scoring.penalty_factor must be >= 0")
	}

	for i, r := range s.ConsistencyRules {
		if r.Skill == "" {
			errs = append(errs, fmt.Sprintf("scoring.consistency_rules[%d].skill is required", i))
		}
		if len(r.Contexts) == 0 {
			errs = append(errs, fmt.Sprintf("scoring.consistency_rules[%d].contexts must have at least 1 term", i))
		}
		checkTerms(fmt.Sprintf("scoring.consistency_rules[%d].contexts", i), r.Contexts)
	}

	if !(s.DuplicateThreshold > 0 && s.DuplicateThreshold <= 1) {
		errs = append(errs, "scoring.duplicate_threshold must be in (0, 1]")
	}
	if s.Output.High <= s.Output.Low {
		errs = append(errs, "scoring.output.high must be greater than scoring.output.low")
	}
	if !finiteNonNeg(s.Output.Epsilon) || s.Output.Epsilon == 0 {
		errs = append(errs, "scoring.output.epsilon must be > 0")
	}

	if len(errs) > 0 {
		return errors.New("config validation failed:\n- " + joinLines(errs))
	}
	return nil
}

// finiteNonNeg reports whether v is a usable table value; NaN fails.
func finiteNonNeg(v float64) bool {
	return v >= 0 && !math.IsInf(v, 0)
}

func SaveAtomic(path string, cfg Config) error {
	if err := Validate(cfg); err != nil {
		return err
	}

	b, err := yaml.Marshal(&cfg)
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp := path + ".tmp"
	bak := path + ".bak"

	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return err
	}

	_ = os.Remove(bak)
	_ = os.Rename(path, bak)

	return os.Rename(tmp, path)
}

func joinLines(lines []string) string {
	out := ""
	for i, s := range lines {
		if i > 0 {
			out += "\n- "
		}
		out += s
	}
	return out
}
