package audio

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"

	"github.com/faiface/beep"
	"github.com/faiface/beep/wav"
)

// resampleQuality is beep's interpolation quality (1-64). 4 is plenty for
// speech.
const resampleQuality = 4

// DecodeWAV converts a WAV file into PCM in the target format, resampling
// and remixing channels as needed.
func DecodeWAV(data []byte, target Format) ([]byte, error) {
	streamer, format, err := wav.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode wav: %w", err)
	}
	defer streamer.Close() //nolint:errcheck

	var s beep.Streamer = streamer
	if int(format.SampleRate) != target.SampleRate {
		s = beep.Resample(resampleQuality, format.SampleRate, beep.SampleRate(target.SampleRate), s)
	}

	pcm := EncodePCM(s, target.Channels)
	if err := streamer.Err(); err != nil {
		return nil, fmt.Errorf("read wav samples: %w", err)
	}
	return pcm, nil
}

// EncodePCM drains s into 16-bit little-endian PCM with the given channel
// count. Mono output averages beep's two channels.
func EncodePCM(s beep.Streamer, channels int) []byte {
	var (
		out bytes.Buffer
		buf = make([][2]float64, 512)
		b   [2]byte
	)

	for {
		n, ok := s.Stream(buf)
		for _, frame := range buf[:n] {
			if channels == 1 {
				binary.LittleEndian.PutUint16(b[:], uint16(toInt16((frame[0]+frame[1])/2)))
				out.Write(b[:])
				continue
			}
			binary.LittleEndian.PutUint16(b[:], uint16(toInt16(frame[0])))
			out.Write(b[:])
			binary.LittleEndian.PutUint16(b[:], uint16(toInt16(frame[1])))
			out.Write(b[:])
		}
		if !ok {
			break
		}
	}
	return out.Bytes()
}

func toInt16(v float64) int16 {
	v = math.Max(-1, math.Min(1, v))
	return int16(math.Round(v * math.MaxInt16))
}
