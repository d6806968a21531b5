package audiofile

import (
	"fmt"
	"io"

	gomp3 "github.com/hajimehoshi/go-mp3"
)

// DecodeMP3 decodes an MP3 stream into float32 amplitudes. go-mp3 always
// emits 16-bit little-endian stereo PCM, so the result is two channels at the
// decoder's reported sample rate.
func DecodeMP3(r io.Reader) (PCM, error) {
	dec, err := gomp3.NewDecoder(r)
	if err != nil {
		return PCM{}, fmt.Errorf("%w: %v", ErrNotValidFile, err)
	}

	raw, err := io.ReadAll(dec)
	if err != nil {
		return PCM{}, fmt.Errorf("could not read MP3 PCM data: %w", err)
	}

	samples := len(raw) / 2
	if samples == 0 {
		return PCM{}, ErrEmptyAudioData
	}

	data := make([]float32, samples)
	for i := range data {
		v := int16(uint16(raw[2*i]) | uint16(raw[2*i+1])<<8)
		data[i] = float32(v) / 32768.0
	}

	const channels = 2
	return PCM{
		Data:       data[:(samples/channels)*channels],
		Channels:   channels,
		SampleRate: dec.SampleRate(),
		Frames:     samples / channels,
	}, nil
}
