// Package ffmpeg is the boundary to the external transcoding engine. The
// Engine wraps every invocation with a timeout and captures the stderr tail
// for diagnostics. Single-input operations build their argument lists with
// github.com/u2takey/ffmpeg-go; multi-input filter_complex graphs (mixing,
// crossfades, muxing) are assembled by their owning packages and executed
// through Engine.Run.
package ffmpeg
