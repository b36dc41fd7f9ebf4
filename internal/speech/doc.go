// Package speech turns utterances into audio. A Backend renders text to WAV
// and the Engine plays it, keeping at most one utterance alive at a time.
package speech
