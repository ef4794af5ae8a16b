package attempt

// Thresholds are the tunable heuristics used to classify attempts.
type Thresholds struct {
	// FastSeconds: answers quicker than this count as fast.
	FastSeconds float64
	// SlowSeconds: answers slower than this count as slow.
	SlowSeconds float64
	// EasyDifficulty: items whose empirical difficulty (success rate) is
	// above this are easy.
	EasyDifficulty float64
	// HardDifficulty: items whose empirical difficulty is below this are hard.
	HardDifficulty float64
	// RecencyDecay is the exponent of the mastery recency weight.
	RecencyDecay float64
}

// DefaultThresholds returns the stock heuristics.
func DefaultThresholds() Thresholds {
	return Thresholds{
		FastSeconds:    20,
		SlowSeconds:    60,
		EasyDifficulty: 0.7,
		HardDifficulty: 0.3,
		RecencyDecay:   0.14,
	}
}

// WithDefaults fills zero fields from DefaultThresholds.
func (t Thresholds) WithDefaults() Thresholds {
	d := DefaultThresholds()
	if t.FastSeconds <= 0 {
		t.FastSeconds = d.FastSeconds
	}
	if t.SlowSeconds <= 0 {
		t.SlowSeconds = d.SlowSeconds
	}
	if t.EasyDifficulty <= 0 {
		t.EasyDifficulty = d.EasyDifficulty
	}
	if t.HardDifficulty <= 0 {
		t.HardDifficulty = d.HardDifficulty
	}
	if t.RecencyDecay <= 0 {
		t.RecencyDecay = d.RecencyDecay
	}
	return t
}

// Fast reports whether the event was answered faster than FastSeconds.
func (t Thresholds) Fast(e Event) bool { return e.TimeTakenSeconds < t.FastSeconds }

// Slow reports whether the event took longer than SlowSeconds.
func (t Thresholds) Slow(e Event) bool { return e.TimeTakenSeconds > t.SlowSeconds }

// Easy reports whether an empirical difficulty falls in the easy band.
func (t Thresholds) Easy(difficulty float64) bool { return difficulty > t.EasyDifficulty }

// Hard reports whether an empirical difficulty falls in the hard band.
func (t Thresholds) Hard(difficulty float64) bool { return difficulty < t.HardDifficulty }
