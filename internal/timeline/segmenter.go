package timeline

// Debounce suppresses single-sample label noise: any interior sample whose
// label differs from both immediate neighbors while the neighbors agree with
// each other is snapped to the neighbors' shared label. Longer runs of noise
// are deliberately left alone so real short segments survive.
//
// The input is not modified; the corrected copy is returned. Corrections
// cascade left to right: the previous-neighbor comparison sees earlier
// corrections.
func Debounce(samples []SampleMatch) []SampleMatch {
	result := make([]SampleMatch, len(samples))
	copy(result, samples)

	for i := 1; i < len(result)-1; i++ {
		prev := result[i-1].Label
		curr := result[i].Label
		next := result[i+1].Label
		if curr != prev && curr != next && prev == next {
			result[i].Label = prev
		}
	}
	return result
}

// Group scans the (already debounced) samples left to right and closes a
// segment at every label change. Sample indices are converted to timestamps
// with rate, the sampling rate in samples per second. The first segment
// starts at zero and the final segment's end is forced to totalDuration so
// the timeline is always fully covered, even when the last sample timestamp
// falls short of the true media duration.
//
// Returns nil for an empty sample sequence.
func Group(samples []SampleMatch, rate, totalDuration float64) []Segment {
	if len(samples) == 0 {
		return nil
	}
	if rate <= 0 {
		rate = 1
	}

	var segments []Segment
	current := samples[0].Label
	start := 0.0

	for i := 1; i < len(samples); i++ {
		if samples[i].Label != current {
			end := float64(samples[i].Index) / rate
			segments = append(segments, Segment{Label: current, Start: start, End: end})
			current = samples[i].Label
			start = end
		}
	}

	segments = append(segments, Segment{Label: current, Start: start, End: totalDuration})
	return segments
}

// Segments runs the full pipeline: debounce then group.
func Segments(samples []SampleMatch, rate, totalDuration float64) []Segment {
	return Group(Debounce(samples), rate, totalDuration)
}
