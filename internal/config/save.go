package config

import (
	"fmt"
	"strings"
)

type Validation struct {
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

func (v *Validation) addErr(format string, args ...any) {
	v.Errors = append(v.Errors, fmt.Sprintf(format, args...))
}
func (v *Validation) addWarn(format string, args ...any) {
	v.Warnings = append(v.Warnings, fmt.Sprintf(format, args...))
}
func (v Validation) OK() bool { return len(v.Errors) == 0 }

// NormalizeAndValidate returns a normalized copy of cfg (trimmed, lowercased,
// de-duplicated lexicon terms and rules) together with errors and warnings.
func NormalizeAndValidate(cfg Config) (Config, Validation) {
	var out = cfg
	var res Validation

	trimList := func(xs []string) []string {
		seen := map[string]bool{}
		var ys []string
		for _, x := range xs {
			x = strings.ToLower(strings.TrimSpace(x))
			if x == "" || seen[x] {
				continue
			}
			seen[x] = true
			ys = append(ys, x)
		}
		return ys
	}

	out.Scoring.Lexicon.Weak = trimList(out.Scoring.Lexicon.Weak)
	out.Scoring.Lexicon.Strong = trimList(out.Scoring.Lexicon.Strong)

	var rules []ConsistencyRule
	ruleIdx := map[string]int{}
	for _, r := range out.Scoring.ConsistencyRules {
		skill := strings.ToLower(strings.TrimSpace(r.Skill))
		ctxs := trimList(r.Contexts)
		if skill == "" || len(ctxs) == 0 {
			res.addWarn("dropping consistency rule %q with no skill or contexts", r.Skill)
			continue
		}
		if i, ok := ruleIdx[skill]; ok {
			rules[i].Contexts = trimList(append(rules[i].Contexts, ctxs...))
			continue
		}
		ruleIdx[skill] = len(rules)
		rules = append(rules, ConsistencyRule{Skill: skill, Contexts: ctxs})
	}
	out.Scoring.ConsistencyRules = rules

	out.App.LogLevel = strings.ToLower(strings.TrimSpace(out.App.LogLevel))
	out.App.LogFormat = strings.ToLower(strings.TrimSpace(out.App.LogFormat))

	// ---- Validation rules ----

	if err := Validate(out); err != nil {
		for _, line := range strings.Split(strings.TrimPrefix(err.Error(), "config validation failed:\n- "), "\n- ") {
			res.addErr("%s", line)
		}
	}

	switch out.App.LogLevel {
	case "", "debug", "info", "warn", "error":
	default:
		res.addErr("app.log_level must be one of debug, info, warn, error")
	}
	switch out.App.LogFormat {
	case "", "text", "json":
	default:
		res.addErr("app.log_format must be text or json")
	}

	if out.App.MaxUploadMB <= 0 {
		res.addWarn("app.max_upload_mb is %d; uploads will use the built-in 20 MB limit.", out.App.MaxUploadMB)
	}
	if out.App.UploadRatePerSec <= 0 {
		res.addWarn("app.upload_rate_per_sec is %v; upload rate limiting is disabled.", out.App.UploadRatePerSec)
	}

	lex := out.Scoring.Lexicon
	if len(lex.Weak) == 0 && len(lex.Strong) == 0 {
		res.addWarn("lexicon is empty; partial credit will be 0 for every document.")
	}
	if lex.WeakIncrement > lex.StrongIncrement {
		res.addWarn("weak_increment (%v) is larger than strong_increment (%v).", lex.WeakIncrement, lex.StrongIncrement)
	}

	// simple conflict check
	strongSet := map[string]bool{}
	for _, t := range lex.Strong {
		strongSet[t] = true
	}
	for _, t := range lex.Weak {
		if strongSet[t] {
			res.addWarn("term appears in both weak and strong lexicon: %q", t)
		}
	}

	if out.Scoring.DuplicateThreshold > 0 && out.Scoring.DuplicateThreshold < 0.5 {
		res.addWarn("duplicate_threshold %.2f is low; loosely related resumes will be flagged as duplicates.", out.Scoring.DuplicateThreshold)
	}
	if out.Retention.Days == 0 {
		res.addWarn("retention.days is 0; stored runs are never cleaned up.")
	}

	return out, res
}
