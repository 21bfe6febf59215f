package audio

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/youpy/go-wav"

	"parley/internal/domain"
)

const (
	bitsPerSample = 16
	maxChannels   = 2
)

// ErrUnsupportedChannels is returned for clips wider than stereo.
var ErrUnsupportedChannels = errors.New("wav: more than 2 channels")

// EncodeWAV wraps the clip's 16-bit little-endian PCM in a RIFF/WAVE container.
func EncodeWAV(clip domain.AudioClip) ([]byte, error) {
	channels := clip.Channels
	if channels <= 0 {
		channels = 1
	}
	if channels > maxChannels {
		return nil, fmt.Errorf("%w: got %d", ErrUnsupportedChannels, channels)
	}
	sampleRate := clip.SampleRate
	if sampleRate <= 0 {
		sampleRate = 16000
	}

	frames := clip.Frames()
	samples := make([]wav.Sample, frames)
	frameSize := 2 * channels
	for i := range samples {
		frame := clip.PCM[i*frameSize : (i+1)*frameSize]
		for ch := 0; ch < channels; ch++ {
			samples[i].Values[ch] = int(int16(binary.LittleEndian.Uint16(frame[ch*2:])))
		}
	}

	var out bytes.Buffer
	out.Grow(44 + frames*frameSize)
	writer := wav.NewWriter(&out, uint32(frames), uint16(channels), uint32(sampleRate), bitsPerSample)
	if err := writer.WriteSamples(samples); err != nil {
		return nil, fmt.Errorf("encode wav: %w", err)
	}
	return out.Bytes(), nil
}
