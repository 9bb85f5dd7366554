// Package reconcile fits each translated narration segment into its timeline
// slot: use it as-is when it fits, speed it up slightly when it almost fits,
// truncate with a fade-out when it is far too long.
package reconcile

import "slidesync/internal/manifest"

// Decision is the reconciliation outcome for one segment.
type Decision string

const (
	DecisionAsIs      Decision = "as_is"
	DecisionSpedUp    Decision = "sped_up"
	DecisionTruncated Decision = "truncated"
	// DecisionSkipped marks segments with a zero or negative slot; they
	// cannot be placed and are dropped with a warning.
	DecisionSkipped Decision = "skipped"
)

// Plan is the pure reconciliation decision for one segment, separated from
// the ffmpeg application so the policy is testable on its own.
type Plan struct {
	Decision Decision
	// Ratio is natural duration over slot duration.
	Ratio float64
	// Tempo is the atempo factor; set only for DecisionSpedUp.
	Tempo float64
	// TargetDuration is the cut length; set only for DecisionTruncated.
	TargetDuration float64
}

// PlanSegment decides how a segment with the given natural duration fits its
// slot. maxTempo bounds how much speed-up is tolerable before intelligibility
// suffers and truncation is the lesser evil.
func PlanSegment(seg manifest.SpeechSegment, naturalDuration, maxTempo float64) Plan {
	slot := seg.Slot()
	if slot <= 0 {
		return Plan{Decision: DecisionSkipped}
	}

	ratio := naturalDuration / slot
	switch {
	case ratio <= 1.0:
		return Plan{Decision: DecisionAsIs, Ratio: ratio}
	case ratio <= maxTempo:
		return Plan{Decision: DecisionSpedUp, Ratio: ratio, Tempo: ratio}
	default:
		return Plan{Decision: DecisionTruncated, Ratio: ratio, TargetDuration: slot}
	}
}
