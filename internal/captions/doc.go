// Package captions maintains the caption text files that sit alongside
// extracted frames: cleaning tag lists, reporting attribute frequency, and
// pruning caption/image pairs by keyword.
package captions
