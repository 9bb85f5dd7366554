// Package stitching renders one clip per target segment and joins them with
// paired video/audio crossfades, falling back to hard cuts when the crossfade
// graph fails.
package stitching

import (
	"fmt"
	"strings"

	"slidesync/internal/media/ffmpeg"
)

// Offsets computes where each crossfade starts. Every transition consumes
// transition seconds from the end of the leading clip and the start of the
// trailing clip, so offsets accumulate as
//
//	off[0] = d[0] - x
//	off[i] = off[i-1] + d[i] - x
//
// Returns len(durations)-1 offsets, or nil for fewer than two clips.
func Offsets(durations []float64, transition float64) []float64 {
	if len(durations) < 2 {
		return nil
	}
	offsets := make([]float64, len(durations)-1)
	offsets[0] = durations[0] - transition
	for i := 1; i < len(offsets); i++ {
		offsets[i] = offsets[i-1] + durations[i] - transition
	}
	return offsets
}

// StitchedDuration is the expected length of the crossfaded result: each of
// the n-1 transitions overlaps the clips by transition seconds.
func StitchedDuration(durations []float64, transition float64) float64 {
	var total float64
	for _, d := range durations {
		total += d
	}
	if len(durations) > 1 {
		total -= float64(len(durations)-1) * transition
	}
	return total
}

// crossfadeFilter chains xfade (video) and acrossfade (audio) filters over n
// inputs. Video and audio run as parallel chains so every cut fades both
// tracks together.
func crossfadeFilter(offsets []float64, transition float64) string {
	n := len(offsets) + 1
	var video []string
	var audio []string

	if n == 2 {
		video = append(video, fmt.Sprintf(
			"[0:v][1:v]xfade=transition=fade:duration=%s:offset=%.3f[vout]",
			ffmpeg.FormatSeconds(transition), offsets[0]))
		audio = append(audio, fmt.Sprintf(
			"[0:a][1:a]acrossfade=d=%s:c1=tri:c2=tri[aout]",
			ffmpeg.FormatSeconds(transition)))
		return strings.Join(append(video, audio...), ";")
	}

	video = append(video, fmt.Sprintf(
		"[0:v][1:v]xfade=transition=fade:duration=%s:offset=%.3f[v1]",
		ffmpeg.FormatSeconds(transition), offsets[0]))
	audio = append(audio, fmt.Sprintf(
		"[0:a][1:a]acrossfade=d=%s:c1=tri:c2=tri[a1]",
		ffmpeg.FormatSeconds(transition)))

	for i := 2; i < n; i++ {
		videoOut := fmt.Sprintf("[v%d]", i)
		audioOut := fmt.Sprintf("[a%d]", i)
		if i == n-1 {
			videoOut = "[vout]"
			audioOut = "[aout]"
		}
		video = append(video, fmt.Sprintf(
			"[v%d][%d:v]xfade=transition=fade:duration=%s:offset=%.3f%s",
			i-1, i, ffmpeg.FormatSeconds(transition), offsets[i-1], videoOut))
		audio = append(audio, fmt.Sprintf(
			"[a%d][%d:a]acrossfade=d=%s:c1=tri:c2=tri%s",
			i-1, i, ffmpeg.FormatSeconds(transition), audioOut))
	}

	return strings.Join(append(video, audio...), ";")
}
