// config/overlay.go
package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

// LexiconFile is the shape of an optional lexicon.yml kept next to config.yml
// so recruiters can tune vocabulary without touching the rest of the config.
type LexiconFile struct {
	Weak             []string          `yaml:"weak"`
	Strong           []string          `yaml:"strong"`
	ConsistencyRules []ConsistencyRule `yaml:"consistency_rules"`
}

func OverlayLexicon(cfg *Config, lexiconPath string) error {
	b, err := os.ReadFile(lexiconPath)
	if err != nil {
		// Missing lexicon file should not kill startup
		return nil
	}

	var lf LexiconFile
	if err := yaml.Unmarshal(b, &lf); err != nil {
		return err
	}

	if len(lf.Weak) > 0 {
		cfg.Scoring.Lexicon.Weak = lf.Weak
	}
	if len(lf.Strong) > 0 {
		cfg.Scoring.Lexicon.Strong = lf.Strong
	}
	if len(lf.ConsistencyRules) > 0 {
		cfg.Scoring.ConsistencyRules = lf.ConsistencyRules
	}
	return nil
}
