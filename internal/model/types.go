// Package model defines shared data structures.
package model

// Config defines practice settings.
type Config struct {
	ServerURL string
	Tempo     float64
	Device    string
}

// Accuracy classifies how close a played note was to its target.
type Accuracy int

// Accuracy levels reported by the analysis service, worst to best.
const (
	AccuracyUnknown Accuracy = iota
	AccuracyVeryPoor
	AccuracyPoor
	AccuracyFair
	AccuracyGood
	AccuracyExcellent
)

// ParseAccuracy maps a service accuracy_level string to an Accuracy.
// Unrecognized or empty values map to AccuracyUnknown.
func ParseAccuracy(s string) Accuracy {
	switch s {
	case "excellent":
		return AccuracyExcellent
	case "good":
		return AccuracyGood
	case "fair":
		return AccuracyFair
	case "poor":
		return AccuracyPoor
	case "very_poor":
		return AccuracyVeryPoor
	default:
		return AccuracyUnknown
	}
}

// String returns the service-side name of the accuracy level.
func (a Accuracy) String() string {
	switch a {
	case AccuracyExcellent:
		return "excellent"
	case AccuracyGood:
		return "good"
	case AccuracyFair:
		return "fair"
	case AccuracyPoor:
		return "poor"
	case AccuracyVeryPoor:
		return "very_poor"
	default:
		return "unknown"
	}
}
