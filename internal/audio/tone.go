package audio

import (
	"fmt"
	"time"

	"github.com/faiface/beep"
)

// Tone parameters of the countdown timer's expiry beep.
const (
	BeepFrequency = 220.0
	BeepDuration  = 500 * time.Millisecond
	beepAmplitude = 0.3
)

// SquareWave returns an endless square wave streamer.
func SquareWave(sr beep.SampleRate, freq, amplitude float64) beep.Streamer {
	period := float64(sr) / freq
	var pos float64
	return beep.StreamerFunc(func(samples [][2]float64) (int, bool) {
		for i := range samples {
			v := amplitude
			if pos >= period/2 {
				v = -amplitude
			}
			samples[i][0], samples[i][1] = v, v
			pos++
			if pos >= period {
				pos -= period
			}
		}
		return len(samples), true
	})
}

// SquareTone renders d of a square wave at freq into PCM for format f.
func SquareTone(f Format, freq float64, d time.Duration) []byte {
	sr := beep.SampleRate(f.SampleRate)
	return EncodePCM(beep.Take(sr.N(d), SquareWave(sr, freq, beepAmplitude)), f.Channels)
}

// Beeper plays the timer tone on a Sink.
type Beeper struct {
	sink Sink
	pcm  []byte
}

// NewBeeper renders the tone once for the sink's format.
func NewBeeper(sink Sink) *Beeper {
	return &Beeper{
		sink: sink,
		pcm:  SquareTone(sink.Format(), BeepFrequency, BeepDuration),
	}
}

// Tone starts the beep and returns without waiting for it to finish.
func (b *Beeper) Tone() error {
	if _, err := b.sink.Play(b.pcm); err != nil {
		return fmt.Errorf("play tone: %w", err)
	}
	return nil
}
