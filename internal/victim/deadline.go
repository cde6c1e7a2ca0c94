package victim

import "time"

// Death deadlines. The short window applies once details exist or when the
// cause is the generic default; a specified cause without details gets the
// long window to fill them in.
const (
	ShortDeathWindow = 40 * time.Second
	LongDeathWindow  = 400 * time.Second
)

// Decision is the outcome of a deadline evaluation.
type Decision int

const (
	// NoAction leaves the victim untouched.
	NoAction Decision = iota
	// Expire transitions the victim to dead.
	Expire
)

// EvaluateDeadline decides whether a victim has crossed its death deadline
// at the given instant. It is pure: the caller applies the decision.
//
// A victim with no images never starts its clock; attaching an image later
// does not reset it — elapsed time is always measured from the last edit
// (or creation), never from when an image was added.
func EvaluateDeadline(v *Victim, now time.Time) Decision {
	if !v.IsAlive {
		return NoAction
	}
	if len(v.Images) == 0 {
		return NoAction
	}

	elapsed := now.Sub(v.ReferenceTime())

	switch {
	case v.DeathType == DefaultDeathType && elapsed >= ShortDeathWindow:
		return Expire
	case v.HasDetails() && elapsed >= ShortDeathWindow:
		return Expire
	case !v.HasDetails() && elapsed >= LongDeathWindow:
		return Expire
	}
	return NoAction
}
