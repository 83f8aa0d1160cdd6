package config

func DefaultWeights() Weights {
	return Weights{
		Partial:     0.30,
		Relative:    0.20,
		Penalty:     0.10,
		Consistency: 0.20,
		Duplicate:   0.20,
	}
}

func DefaultScoring() Scoring {
	return Scoring{
		Weights: DefaultWeights(),
		Lexicon: Lexicon{
			Weak: []string{
				"basic", "familiar", "learning", "beginner",
				"exposure", "introductory", "novice",
			},
			Strong: []string{
				"expert", "certified", "professional", "advanced",
				"proficient", "extensive", "senior",
			},
			WeakIncrement:   0.25,
			StrongIncrement: 1.0,
			Cap:             5.0,
		},
		PenaltyFactor: 0.05,
		ConsistencyRules: []ConsistencyRule{
			{Skill: "python", Contexts: []string{"project", "django", "flask", "pandas", "automation", "api"}},
			{Skill: "javascript", Contexts: []string{"react", "node", "frontend", "web app"}},
			{Skill: "java", Contexts: []string{"spring", "backend", "microservice"}},
			{Skill: "sql", Contexts: []string{"database", "query", "postgres", "mysql"}},
			{Skill: "machine learning", Contexts: []string{"model", "tensorflow", "pytorch", "dataset"}},
			{Skill: "aws", Contexts: []string{"cloud", "deploy", "lambda", "ec2"}},
			{Skill: "docker", Contexts: []string{"container", "kubernetes", "ci/cd"}},
			{Skill: "golang", Contexts: []string{"microservice", "grpc", "concurrency"}},
		},
		DuplicateThreshold: 0.9,
		Output: Output{
			Low:     20,
			High:    100,
			Epsilon: 1e-4,
		},
	}
}

func Default() Config {
	var cfg Config
	cfg.App.Port = 38471
	cfg.App.DataDir = "."
	cfg.App.LogLevel = "info"
	cfg.App.LogFormat = "text"
	cfg.App.MaxUploadMB = 20
	cfg.App.UploadRatePerSec = 2
	cfg.App.UploadBurst = 5
	cfg.Retention.Days = 90
	cfg.Retention.SweepMinutes = 60
	cfg.Scoring = DefaultScoring()
	return cfg
}
