package engine

import "errors"

var (
	// ErrConfiguration indicates rejected engine properties at construction.
	ErrConfiguration = errors.New("invalid engine configuration")

	// ErrResourceExhausted indicates an empty handle free-list.
	ErrResourceExhausted = errors.New("no free handles remain")

	// ErrInvalidHandle indicates a zero, out-of-range, or unallocated handle.
	ErrInvalidHandle = errors.New("invalid handle")

	// ErrFormatUnsupported indicates PCM data the engine cannot mix,
	// either an unsupported channel count or a sample rate mismatch.
	ErrFormatUnsupported = errors.New("unsupported sample format")

	// ErrInvalidState indicates a clip state transition that is not legal.
	ErrInvalidState = errors.New("operation not valid in current clip state")

	// ErrSampleInUse indicates an operation that requires a sample with no
	// bound clips.
	ErrSampleInUse = errors.New("sample has bound clips")

	// ErrDevice indicates an audio output device failure: the device could not
	// be opened, started, or stopped.
	ErrDevice = errors.New("audio output device failure")
)
