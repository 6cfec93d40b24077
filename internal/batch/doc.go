// Package batch carries the shared machinery of the batch tools: the bounded
// worker pool that parallelizes independent per-file work, and the error
// taxonomy that decides whether a failure aborts the run, skips a file, or
// only abandons a single frame.
package batch
