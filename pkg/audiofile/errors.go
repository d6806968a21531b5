package audiofile

import "errors"

var (
	ErrUnknownFormat  = errors.New("unknown audio file format")
	ErrNotValidFile   = errors.New("not a valid audio file")
	ErrEmptyAudioData = errors.New("file contains no audio data")
)
