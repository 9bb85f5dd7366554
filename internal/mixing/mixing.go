// Package mixing places reconciled narration segments onto a silent base
// track of the full timeline length. Large segment counts are mixed in
// batches so a single ffmpeg filter graph never takes more inputs than it
// can reliably handle.
package mixing

import (
	"fmt"
	"strings"

	"slidesync/internal/media/ffmpeg"
)

// Placement is one prepared audio file and the timeline position where it
// starts.
type Placement struct {
	Start float64
	Path  string
}

// Batches partitions placements into runs of at most size, preserving order.
func Batches(placements []Placement, size int) [][]Placement {
	if size <= 0 || len(placements) == 0 {
		return nil
	}
	var batches [][]Placement
	for start := 0; start < len(placements); start += size {
		end := start + size
		if end > len(placements) {
			end = len(placements)
		}
		batches = append(batches, placements[start:end])
	}
	return batches
}

// delayMixFilter builds the filter graph for one batch: each segment is
// delayed to its start position (both channels), then everything is mixed
// over the silent base. duration=first pins the output length to the base
// track; normalize=0 keeps segment loudness untouched.
func delayMixFilter(batch []Placement) string {
	var parts []string
	for i, placement := range batch {
		delayMillis := int(placement.Start * 1000)
		parts = append(parts, fmt.Sprintf("[%d:a]adelay=%d|%d[d%d]", i+1, delayMillis, delayMillis, i))
	}

	var mix strings.Builder
	mix.WriteString("[0:a]")
	for i := range batch {
		fmt.Fprintf(&mix, "[d%d]", i)
	}
	fmt.Fprintf(&mix, "amix=inputs=%d:duration=first:dropout_transition=0:normalize=0[out]", len(batch)+1)

	parts = append(parts, mix.String())
	return strings.Join(parts, ";")
}

// mergeFilter mixes batch outputs into one track. Batches are all
// base-length, but duration=longest guards against a short batch from a
// truncated run.
func mergeFilter(count int) string {
	var refs strings.Builder
	for i := 0; i < count; i++ {
		fmt.Fprintf(&refs, "[%d:a]", i)
	}
	return fmt.Sprintf("%samix=inputs=%d:duration=longest:dropout_transition=0:normalize=0[out]", refs.String(), count)
}

func batchArgs(batch []Placement, totalDuration float64, sampleRate int, channelLayout, outputPath string) []string {
	args := []string{
		"-y",
		"-f", "lavfi",
		"-i", fmt.Sprintf("anullsrc=r=%d:cl=%s:d=%s", sampleRate, channelLayout, ffmpeg.FormatSeconds(totalDuration)),
	}
	for _, placement := range batch {
		args = append(args, "-i", placement.Path)
	}
	args = append(args,
		"-filter_complex", delayMixFilter(batch),
		"-map", "[out]",
		"-t", ffmpeg.FormatSeconds(totalDuration),
		outputPath,
	)
	return args
}

func mergeArgs(batchFiles []string, totalDuration float64, outputPath string) []string {
	args := []string{"-y"}
	for _, file := range batchFiles {
		args = append(args, "-i", file)
	}
	args = append(args,
		"-filter_complex", mergeFilter(len(batchFiles)),
		"-map", "[out]",
		"-t", ffmpeg.FormatSeconds(totalDuration),
		outputPath,
	)
	return args
}
