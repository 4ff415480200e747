// Package audio plays the chime that accompanies a portrait appearing.
// It uses the beep library to play WAV, OGG, and MP3 files, and synthesises
// a short two-tone chime when no file is configured.
package audio
