package audio

// Capture is an active microphone session
type Capture interface {
	Stop() error
}
