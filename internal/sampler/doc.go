// Package sampler selects frame timestamps from a video timeline.
//
// A Request describes the timeline (duration, exclusion margin) and how many
// timestamps to draw under one of three policies: evenly spaced, uniform
// random, or a blend of both. Sampling is a pure function; callers that need
// reproducible draws supply their own seeded rand source.
package sampler
