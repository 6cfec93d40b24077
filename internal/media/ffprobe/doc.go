// Package ffprobe provides a typed wrapper around ffprobe JSON output.
//
// This package has no framecull-specific dependencies and could be extracted
// as a standalone library.
//
// Key types:
//   - Result: parsed ffprobe output containing streams and format metadata
//   - Stream: individual audio/video/subtitle stream properties
//   - Info: the distilled video metadata the curation tools gate on
//
// Primary entry points:
//   - Inspect: executes ffprobe and returns a parsed Result
//   - Result.VideoInfo: distills codec, dimensions, duration, and frame rate,
//     treating any missing field as an error rather than a zero value
package ffprobe
