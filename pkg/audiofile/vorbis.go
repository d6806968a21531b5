package audiofile

import (
	"fmt"
	"io"

	"github.com/jfreymuth/oggvorbis"
)

// DecodeVorbis decodes an Ogg Vorbis stream into float32 amplitudes. The
// vorbis decoder already produces floats, so the data is used as-is.
func DecodeVorbis(r io.Reader) (PCM, error) {
	data, format, err := oggvorbis.ReadAll(r)
	if err != nil {
		return PCM{}, fmt.Errorf("%w: %v", ErrNotValidFile, err)
	}
	if len(data) == 0 {
		return PCM{}, ErrEmptyAudioData
	}

	return PCM{
		Data:       data,
		Channels:   format.Channels,
		SampleRate: format.SampleRate,
		Frames:     len(data) / format.Channels,
	}, nil
}
