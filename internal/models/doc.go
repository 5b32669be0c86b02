// Package models defines the data shared by the proxy service and the
// practice client: generated sentence contexts, pronunciation feedback and
// the word index space used for highlighting. It also lists the Gemini
// models that are available to the configured API key.
package models
