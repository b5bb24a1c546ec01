package pullout

import (
	"errors"
	"fmt"
)

// Sample is one raw reading of the test rig.
type Sample struct {
	Displacement float64 `json:"displacement"` // mm
	Force        float64 `json:"force"`        // kN
}

// Reason explains why a per-recording value is missing.
type Reason string

const (
	ReasonThresholdNotCrossed  Reason = "threshold_not_crossed"
	ReasonZeroDisplacementSpan Reason = "zero_displacement_span"
	ReasonEmptyWorkWindow      Reason = "empty_work_window"
	ReasonInsufficientSamples  Reason = "insufficient_samples"
)

// ComputationWarning is the non-fatal error returned when a value cannot be derived
// for a single recording.
type ComputationWarning struct {
	Reason Reason
	Detail string
}

// Error implements the error interface
func (w *ComputationWarning) Error() string {
	if w.Detail == "" {
		return string(w.Reason)
	}
	return fmt.Sprintf("%s: %s", w.Reason, w.Detail)
}

func warn(reason Reason, format string, args ...any) *ComputationWarning {
	return &ComputationWarning{Reason: reason, Detail: fmt.Sprintf(format, args...)}
}

// Outcome holds a derived per-recording value or the reason it was omitted.
// The zero Outcome means the value has not been computed yet.
type Outcome struct {
	Value  float64 `json:"value"`
	Valid  bool    `json:"valid"`
	Reason Reason  `json:"reason,omitempty"`
}

// Computed reports whether the computation has run for this recording.
func (o Outcome) Computed() bool {
	return o.Valid || o.Reason != ""
}

func valueOutcome(v float64) Outcome {
	return Outcome{Value: v, Valid: true}
}

func failedOutcome(err error) Outcome {
	var w *ComputationWarning
	if errors.As(err, &w) {
		return Outcome{Reason: w.Reason}
	}
	return Outcome{Reason: Reason(err.Error())}
}

// Result is everything the analyzer knows about one loaded recording.
type Result struct {
	Index     int       `json:"index"`
	Source    string    `json:"source,omitempty"`
	Recording Recording `json:"-"`
	PeakForce float64   `json:"peak_force"`
	Modulus   Outcome   `json:"modulus"`
	Work      Outcome   `json:"work"`
}

// IndexedValue pairs a derived value with the index of the recording it belongs to.
type IndexedValue struct {
	Index int     `json:"index"`
	Value float64 `json:"value"`
}

// Stat is a mean and population standard deviation, both rounded to 2 decimals.
type Stat struct {
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std"`
}

// String formats the stat as "mean ± std".
func (s *Stat) String() string {
	if s == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.2f ± %.2f", s.Mean, s.StdDev)
}

// Summary holds the series statistics. A nil field means there was no data for it.
type Summary struct {
	PeakForce  *Stat `json:"max_force"`
	Work       *Stat `json:"work"`
	Modulus    *Stat `json:"modulus"`
	Recordings int   `json:"recordings"`
	Stale      bool  `json:"stale"`
}

// Empty reports whether none of the statistics are set.
func (s Summary) Empty() bool {
	return s.PeakForce == nil && s.Work == nil && s.Modulus == nil
}

// State is the lifecycle stage of an Analyzer.
type State int

const (
	StateEmpty State = iota
	StateLoaded
	StateDerived
	StateSummarized
)

// String returns the string representation of the state
func (s State) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StateLoaded:
		return "loaded"
	case StateDerived:
		return "derived"
	case StateSummarized:
		return "summarized"
	default:
		return "unknown"
	}
}
