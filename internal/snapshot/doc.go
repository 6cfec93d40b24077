// Package snapshot extracts still frames from videos: it probes each file,
// samples timestamps, decodes frames through an external tool, and keeps
// only the frames that pass the blur gate.
package snapshot
