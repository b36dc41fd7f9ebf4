// Package audio plays PCM audio on the default output device using the
// oto/v3 library. It also decodes engine WAV output into the device format
// and synthesizes the countdown timer's tone.
package audio
