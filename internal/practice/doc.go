// Package practice implements the per-sentence practice card: listening to
// the reference audio, recording an attempt, showing scored feedback with
// flagged words, and requesting an illustrative video.
//
// A card's phase (idle, playing, recording, analyzing) is a single state
// machine guarded by a mutex; network and audio I/O always happen outside
// the lock. Video generation is tracked separately and may overlap any phase.
package practice
