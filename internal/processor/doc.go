// Package processor contains the terminal front-end of parrot. The
// interactive session is a bubbletea program that reads commands, drives the
// application shell and its practice cards. Batch mode runs headless: it
// searches a word list and exports reference audio.
package processor
