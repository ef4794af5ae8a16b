package mastery

// Level buckets a mastery value for reporting.
type Level string

const (
	LevelWeak       Level = "weak"
	LevelDeveloping Level = "developing"
	LevelStrong     Level = "strong"
)

// Level boundaries.
const (
	WeakBelow   = 0.5
	StrongAbove = 0.8
)

// LevelOf maps a mastery value to its level.
func LevelOf(m float64) Level {
	switch {
	case m < WeakBelow:
		return LevelWeak
	case m > StrongAbove:
		return LevelStrong
	default:
		return LevelDeveloping
	}
}
