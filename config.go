package usaol

// Config holds options for playing a score.
type Config struct {
	// SRate and KRate override the orchestra's sampling and control
	// rates when positive. SRate must remain a multiple of KRate.
	SRate int
	KRate int

	// Realtime feeds the score while it plays, for live or unbounded
	// scores. Otherwise the score is read completely before playback,
	// which makes the rendering deterministic.
	Realtime bool

	// ScoreName is used in score error messages (default: "score").
	ScoreName string

	// OnScoreError receives each dropped score command as a *ParseError
	// or *SchedulingError. If nil, dropped commands are only traced.
	OnScoreError func(error)

	// OnRuntimeError receives each failed instrument pass as a
	// *RuntimeError. If nil, failures are only traced.
	OnRuntimeError func(error)
}

// applyDefaults fills in default values for unset Config fields.
func (c *Config) applyDefaults(o *Orchestra) {
	if c.SRate <= 0 {
		c.SRate = o.globals.SRate
	}
	if c.KRate <= 0 {
		c.KRate = o.globals.KRate
	}
	if c.ScoreName == "" {
		c.ScoreName = "score"
	}
}
