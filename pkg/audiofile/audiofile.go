package audiofile

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// PCM is a fully decoded audio file: a flat sequence of float amplitudes in
// [-1, 1], interleaved if stereo.
type PCM struct {
	Data       []float32
	Channels   int
	SampleRate int
	Frames     int
}

// Load opens and decodes the audio file at path, choosing the decoder from
// the file extension (.wav, .mp3, .ogg / .oga).
func Load(path string) (PCM, error) {
	f, err := os.Open(path)
	if err != nil {
		return PCM{}, fmt.Errorf("could not open audio file %q: %w", path, err)
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".wav":
		return DecodeWAV(f)
	case ".mp3":
		return DecodeMP3(f)
	case ".ogg", ".oga":
		return DecodeVorbis(f)
	default:
		return PCM{}, fmt.Errorf("%w: %q", ErrUnknownFormat, filepath.Ext(path))
	}
}
