package scoring

// FitWeights are the relative weights of the four analyst fit factors.
// Defaults are equal; operators may rebalance them via the policy file.
type FitWeights struct {
	StackFit          float64 `yaml:"stackFit"`
	ClientFit         float64 `yaml:"clientFit"`
	Availability      float64 `yaml:"availability"`
	HistoricalSuccess float64 `yaml:"historicalSuccess"`
}

// Policy centralizes every tunable threshold of the scoring engine, so there
// is one place to adjust cutoffs instead of scattered conditionals.
type Policy struct {
	Weights FitWeights `yaml:"fitWeights"`

	// Adequacy tier cutoffs (score ≥ cutoff ⇒ tier), strictly decreasing.
	AdequacyExcellent int `yaml:"adequacyExcellent"`
	AdequacyGood      int `yaml:"adequacyGood"`
	AdequacyRegular   int `yaml:"adequacyRegular"`

	// Priority tier cutoffs (score ≥ cutoff ⇒ tier).
	PriorityHigh   int `yaml:"priorityHigh"`
	PriorityMedium int `yaml:"priorityMedium"`

	// Recommended SLA in days per priority tier.
	SLAHighDays   int `yaml:"slaHighDays"`
	SLAMediumDays int `yaml:"slaMediumDays"`
	SLALowDays    int `yaml:"slaLowDays"`
}

// DefaultPolicy returns the compiled-in thresholds used when no policy file
// is configured.
func DefaultPolicy() Policy {
	return Policy{
		Weights: FitWeights{
			StackFit:          1,
			ClientFit:         1,
			Availability:      1,
			HistoricalSuccess: 1,
		},
		AdequacyExcellent: 85,
		AdequacyGood:      65,
		AdequacyRegular:   40,
		PriorityHigh:      80,
		PriorityMedium:    50,
		SLAHighDays:       7,
		SLAMediumDays:     15,
		SLALowDays:        30,
	}
}

// weightSum returns the total factor weight, falling back to equal weights
// when the configured set is degenerate.
func (p Policy) weightSum() float64 {
	s := p.Weights.StackFit + p.Weights.ClientFit + p.Weights.Availability + p.Weights.HistoricalSuccess
	if s <= 0 {
		return 4
	}
	return s
}

// weights returns the effective per-factor weights, substituting the equal
// default when the configured set is degenerate.
func (p Policy) weights() FitWeights {
	if p.Weights.StackFit+p.Weights.ClientFit+p.Weights.Availability+p.Weights.HistoricalSuccess <= 0 {
		return FitWeights{StackFit: 1, ClientFit: 1, Availability: 1, HistoricalSuccess: 1}
	}
	return p.Weights
}
