package audiofile

import (
	"fmt"
	"io"

	"github.com/go-audio/wav"
)

// DecodeWAV decodes a PCM WAV stream into float32 amplitudes. Integer sample
// values are scaled by the bit depth so a full-scale 16-bit sample lands on
// the same amplitude as a full-scale 24-bit one.
func DecodeWAV(r io.ReadSeeker) (PCM, error) {
	decoder := wav.NewDecoder(r)
	if !decoder.IsValidFile() {
		return PCM{}, fmt.Errorf("%w: %v", ErrNotValidFile, decoder.Err())
	}

	buf, err := decoder.FullPCMBuffer()
	if err != nil {
		return PCM{}, fmt.Errorf("could not read WAV PCM data: %w", err)
	}
	if len(buf.Data) == 0 {
		return PCM{}, ErrEmptyAudioData
	}

	channels := buf.Format.NumChannels
	if channels <= 0 {
		return PCM{}, fmt.Errorf("%w: %d channels", ErrNotValidFile, channels)
	}
	if decoder.BitDepth < 8 || decoder.BitDepth > 32 {
		return PCM{}, fmt.Errorf("%w: %d-bit samples", ErrNotValidFile, decoder.BitDepth)
	}

	scale := float32(int(1) << (decoder.BitDepth - 1))
	data := make([]float32, len(buf.Data))
	for i, v := range buf.Data {
		data[i] = float32(v) / scale
	}

	return PCM{
		Data:       data,
		Channels:   channels,
		SampleRate: buf.Format.SampleRate,
		Frames:     len(data) / channels,
	}, nil
}
