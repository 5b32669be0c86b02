// Package audio converts between the wire formats used by parrot and the
// sample buffers the sound devices need.
//
// Reference speech travels as base64 encoded raw PCM: signed 16-bit little
// endian, mono, 24 kHz, no header. DecodePCM16 turns it into a float32 Buffer
// for playback. Microphone capture goes the other way: float32 frames become
// PCM16 chunks that are wrapped in a WAV container and base64 encoded before
// they are sent for analysis.
//
// The package also holds the speech Provider abstraction used by the proxy
// (Gemini primary, OpenAI fallback). The PortAudio backed Speaker and
// Microphone live in the device subpackage so the proxy does not link
// PortAudio.
package audio
