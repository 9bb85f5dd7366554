package timeline

// MapMidpoints assigns each target interval a slide label by looking up its
// midpoint in the reference timeline. A reference segment matches when its
// half-open range [start, end) contains the midpoint; the first match wins,
// scanning in order. Intervals whose midpoint falls outside every reference
// segment (a midpoint exactly on or past the total duration, usually from
// rounding) get the null label.
//
// The reference timeline is expected to be ordered and non-overlapping, as
// produced by Group; the scan does not verify that.
func MapMidpoints(targets []Interval, reference []Segment) []Label {
	labels := make([]Label, len(targets))
	for i, target := range targets {
		mid := target.Midpoint()
		for _, seg := range reference {
			if seg.Start <= mid && mid < seg.End {
				labels[i] = seg.Label
				break
			}
		}
	}
	return labels
}
