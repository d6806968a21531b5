// Package jukebox is a simple audio player built on the mixing engine: it
// loads audio files as samples, launches clips from them, and plays the mix
// through an output device.
package jukebox

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/Honorable-Knights-of-the-Roundtable/jukebox/pkg/audiodevice"
	"github.com/Honorable-Knights-of-the-Roundtable/jukebox/pkg/audiodevice/device"
	"github.com/Honorable-Knights-of-the-Roundtable/jukebox/pkg/audiofile"
	"github.com/Honorable-Knights-of-the-Roundtable/jukebox/pkg/engine"
)

// Options configures a Jukebox. Zero fields take the defaults below. If
// Device is nil the default hardware output device is opened.
type Options struct {
	SampleRate     int
	BufferFrames   int
	MaxSampleCount int
	MaxClipCount   int
	Device         audiodevice.AudioOutputDevice
}

const (
	DefaultSampleRate     = 44100
	DefaultBufferFrames   = 512
	DefaultMaxSampleCount = 2048
	DefaultMaxClipCount   = 2048
)

// Jukebox owns one engine and one output device. All methods are safe for
// concurrent use from the control context.
type Jukebox struct {
	logger *slog.Logger
	engine *engine.Engine
	device audiodevice.AudioOutputDevice

	mu      sync.Mutex
	lastErr string
	loaded  []engine.Sample
}

// New constructs a jukebox, opens its output device, and starts rendering.
// The returned jukebox is silent until clips are played.
func New(opts Options) (*Jukebox, error) {
	if opts.SampleRate == 0 {
		opts.SampleRate = DefaultSampleRate
	}
	if opts.BufferFrames == 0 {
		opts.BufferFrames = DefaultBufferFrames
	}
	if opts.MaxSampleCount == 0 {
		opts.MaxSampleCount = DefaultMaxSampleCount
	}
	if opts.MaxClipCount == 0 {
		opts.MaxClipCount = DefaultMaxClipCount
	}

	logger := slog.Default().With("component", "jukebox")

	eng, err := engine.New(engine.Properties{
		BufferFrames:   opts.BufferFrames,
		SampleRate:     opts.SampleRate,
		MaxSampleCount: opts.MaxSampleCount,
		MaxClipCount:   opts.MaxClipCount,
	})
	if err != nil {
		return nil, err
	}

	out := opts.Device
	if out == nil {
		out, err = device.NewMalgoOutputDevice(opts.SampleRate, opts.BufferFrames)
		if err != nil {
			return nil, fmt.Errorf("could not open output device: %w", err)
		}
	}

	if err := out.Start(eng.Render); err != nil {
		out.Close()
		return nil, fmt.Errorf("could not start output device: %w", err)
	}

	logger.Info("jukebox ready",
		"sampleRate", opts.SampleRate,
		"bufferFrames", opts.BufferFrames,
	)

	return &Jukebox{
		logger: logger,
		engine: eng,
		device: out,
	}, nil
}

// Close stops the output device and releases every sample and clip.
func (j *Jukebox) Close() {
	if err := j.device.Stop(); err != nil {
		j.logger.Error("error stopping output device", "err", err)
	}
	j.device.Close()
	j.engine.Close()
	j.logger.Info("jukebox closed")
}

// Err returns the message from the most recently failed operation, or the
// empty string.
func (j *Jukebox) Err() string {
	j.mu.Lock()
	if j.lastErr != "" {
		defer j.mu.Unlock()
		return j.lastErr
	}
	j.mu.Unlock()
	return j.engine.LastError()
}

// Engine exposes the underlying mixing engine for callers that need direct
// control.
func (j *Jukebox) Engine() *engine.Engine {
	return j.engine
}

/* -------------------------------------------------------------------------- */
/*                                   Samples                                  */
/* -------------------------------------------------------------------------- */

// Load decodes the audio file at path into a pooled sample. Returns 0 if the
// file cannot be decoded or does not match the engine's format.
func (j *Jukebox) Load(path string) engine.Sample {
	j.logger.Info("loading sample", "path", path)

	pcm, err := audiofile.Load(path)
	if err != nil {
		j.fail("load sample", err)
		return 0
	}

	sample := j.engine.CreateSample(pcm.Data, pcm.Channels, pcm.SampleRate, pcm.Frames)
	if sample == 0 {
		return 0
	}

	j.mu.Lock()
	j.lastErr = ""
	j.loaded = append(j.loaded, sample)
	j.mu.Unlock()
	return sample
}

// Free stops every clip playing from the sample and schedules it for
// reclamation.
func (j *Jukebox) Free(sample engine.Sample) {
	j.engine.DestroySample(sample)

	j.mu.Lock()
	for i, s := range j.loaded {
		if s == sample {
			j.loaded = append(j.loaded[:i], j.loaded[i+1:]...)
			break
		}
	}
	j.mu.Unlock()
}

// Reset stops and frees every loaded sample and all of their clips. As with
// any destroy, storage is recycled by later Flush calls.
func (j *Jukebox) Reset() {
	j.mu.Lock()
	loaded := j.loaded
	j.loaded = nil
	j.mu.Unlock()

	for _, s := range loaded {
		j.engine.DestroySample(s)
	}
	j.logger.Info("jukebox reset", "samplesFreed", len(loaded))
}

/* -------------------------------------------------------------------------- */
/*                                    Clips                                   */
/* -------------------------------------------------------------------------- */

// Clip launches a new paused clip of the sample. Returns 0 on failure.
func (j *Jukebox) Clip(sample engine.Sample) engine.Clip {
	return j.engine.CreateClip(sample)
}

// PlaySample creates a clip of the sample and starts it immediately,
// returning the clip handle, or 0 on failure.
func (j *Jukebox) PlaySample(sample engine.Sample) engine.Clip {
	clip := j.engine.CreateClip(sample)
	if clip == 0 {
		return 0
	}
	j.engine.Play(clip)
	return clip
}

// Play starts or resumes the clip.
func (j *Jukebox) Play(clip engine.Clip) { j.engine.Play(clip) }

// Pause suspends the clip, keeping its position.
func (j *Jukebox) Pause(clip engine.Clip) { j.engine.Pause(clip) }

// Stop ends the clip; its handle is recycled by a later Flush.
func (j *Jukebox) Stop(clip engine.Clip) { j.engine.Stop(clip) }

// IsPlaying reports whether the clip is playing.
func (j *Jukebox) IsPlaying(clip engine.Clip) bool { return j.engine.IsPlaying(clip) }

// SetVolume sets the clip's linear gain, intended range [0, 1].
func (j *Jukebox) SetVolume(clip engine.Clip, volume float32) { j.engine.SetVolume(clip, volume) }

// SetPan sets the clip's stereo position, -1 hard left to +1 hard right.
func (j *Jukebox) SetPan(clip engine.Clip, pan float32) { j.engine.SetPan(clip, pan) }

// SetLoop makes the clip loop forever or play through once.
func (j *Jukebox) SetLoop(clip engine.Clip, loop bool) {
	if loop {
		j.engine.SetLoopCount(clip, engine.LoopForever)
	} else {
		j.engine.SetLoopCount(clip, 0)
	}
}

// Flush reclaims finished clips and destroyed samples, and reports whether
// any clip is still playing. Call it from the control loop no more than once
// per render period; the period delay is what makes reclamation safe.
func (j *Jukebox) Flush() bool {
	return j.engine.Flush()
}

func (j *Jukebox) fail(op string, err error) {
	j.mu.Lock()
	j.lastErr = err.Error()
	j.mu.Unlock()
	j.logger.Warn(op+" failed", "err", err)
}
