package timeline

// leadingGapThreshold is the smallest intro gap (seconds) worth absorbing
// into the first slide segment. Gaps below it are treated as placement jitter.
const leadingGapThreshold = 0.5

// DeriveTarget builds the slide timeline for a re-timed narration from the
// speech placement spans and their mapped slide labels. Consecutive spans
// with the same label collapse into one segment; each segment runs from its
// first span's start to the next segment's start, so inter-span silence is
// absorbed by the preceding slide. The final segment closes at totalDuration.
//
// When the narration starts late (first span beyond the leading-gap
// threshold), the first segment is stretched back to zero so the intro shows
// its slide instead of a gap.
//
// spans and labels must be the same length and ordered by start time.
func DeriveTarget(spans []Interval, labels []Label, totalDuration float64) []Segment {
	if len(spans) == 0 {
		return nil
	}

	var segments []Segment
	current := labels[0]
	start := spans[0].Start

	for i := 1; i < len(spans); i++ {
		if labels[i] != current {
			segments = append(segments, Segment{Label: current, Start: start, End: spans[i].Start})
			current = labels[i]
			start = spans[i].Start
		}
	}
	segments = append(segments, Segment{Label: current, Start: start, End: totalDuration})

	if spans[0].Start > leadingGapThreshold {
		segments[0].Start = 0
	}
	return segments
}
