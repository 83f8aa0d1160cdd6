// engine/internal/config/config.go
package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

type Weights struct {
	Partial     float64 `yaml:"partial" json:"partial"`
	Relative    float64 `yaml:"relative" json:"relative"`
	Penalty     float64 `yaml:"penalty" json:"penalty"`
	Consistency float64 `yaml:"consistency" json:"consistency"`
	Duplicate   float64 `yaml:"duplicate" json:"duplicate"`
}

type Lexicon struct {
	Weak            []string `yaml:"weak" json:"weak"`
	Strong          []string `yaml:"strong" json:"strong"`
	WeakIncrement   float64  `yaml:"weak_increment" json:"weak_increment"`
	StrongIncrement float64  `yaml:"strong_increment" json:"strong_increment"`
	// Cap bounds the partial-credit total; 0 disables the cap.
	Cap float64 `yaml:"cap" json:"cap"`
}

// ConsistencyRule pairs a skill phrase with the context phrases expected to
// appear next to it in a credible resume.
type ConsistencyRule struct {
	Skill    string   `yaml:"skill" json:"skill"`
	Contexts []string `yaml:"contexts" json:"contexts"`
}

type Output struct {
	Low     int     `yaml:"low" json:"low"`
	High    int     `yaml:"high" json:"high"`
	Epsilon float64 `yaml:"epsilon" json:"epsilon"`
}

type Scoring struct {
	Weights            Weights           `yaml:"weights" json:"weights"`
	Lexicon            Lexicon           `yaml:"lexicon" json:"lexicon"`
	PenaltyFactor      float64           `yaml:"penalty_factor" json:"penalty_factor"`
	ConsistencyRules   []ConsistencyRule `yaml:"consistency_rules" json:"consistency_rules"`
	DuplicateThreshold float64           `yaml:"duplicate_threshold" json:"duplicate_threshold"`
	Output             Output            `yaml:"output" json:"output"`
}

type Config struct {
	App struct {
		Port             int     `yaml:"port" json:"port"`
		DataDir          string  `yaml:"data_dir" json:"data_dir"`
		LogLevel         string  `yaml:"log_level" json:"log_level"`
		LogFormat        string  `yaml:"log_format" json:"log_format"`
		MaxUploadMB      int     `yaml:"max_upload_mb" json:"max_upload_mb"`
		UploadRatePerSec float64 `yaml:"upload_rate_per_sec" json:"upload_rate_per_sec"`
		UploadBurst      int     `yaml:"upload_burst" json:"upload_burst"`
	} `yaml:"app" json:"app"`

	Retention struct {
		Days         int `yaml:"days" json:"days"`
		SweepMinutes int `yaml:"sweep_minutes" json:"sweep_minutes"`
	} `yaml:"retention" json:"retention"`

	Scoring Scoring `yaml:"scoring" json:"scoring"`
}

// Load reads a YAML config. Keys missing from the file keep their Default()
// values, so a partial file is valid.
func Load(path string) (Config, error) {
	cfg := Default()
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	err = yaml.Unmarshal(b, &cfg)
	return cfg, err
}
