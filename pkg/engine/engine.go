// Package engine implements a real-time audio mixing engine. It owns fixed
// capacity pools of decoded samples and playback clips, and renders a
// periodic callback that mixes every playing clip into an interleaved stereo
// buffer with per-clip volume, constant-power pan, and looping.
//
// The engine is split across two execution contexts. Control operations
// (create, play, stop, parameter changes) may be called from any goroutine
// and are serialized internally. Render is called by an audio output device
// on a hard real-time cadence and never allocates, locks, logs, or returns an
// error; the two contexts meet only through the pooled slot arrays and the
// deferred reclamation protocol (see Flush).
package engine

import (
	"fmt"
	"log/slog"
	"math"
	"sync"
	"sync/atomic"
)

// Properties configures the engine at construction.
//
// BufferFrames is the number of frames rendered per callback. SampleRate is
// the fixed engine rate; CreateSample rejects any other rate. MaxSampleCount
// and MaxClipCount fix the pool capacities for the engine's lifetime.
type Properties struct {
	BufferFrames   int
	SampleRate     int
	MaxSampleCount int
	MaxClipCount   int
}

// Engine is the mixing engine context. Construct with New; there is no
// ambient global instance.
type Engine struct {
	logger *slog.Logger
	props  Properties

	// mu serializes the control context. The render context never takes it.
	mu        sync.Mutex
	lastErr   string
	sampleIDs *handleAllocator
	clipIDs   *handleAllocator

	// Pools are indexed directly by handle; index 0 is never used.
	samples []sampleSlot
	clips   []clipSlot

	// renderEpoch is incremented by the render context after each completed
	// callback. Reclamation of a stopped slot is gated on this advancing past
	// the epoch at which the stop was issued.
	renderEpoch atomic.Uint64
}

// New constructs an engine with the given properties. All properties must be
// positive.
func New(props Properties) (*Engine, error) {
	logger := slog.Default().With(
		"component", "audio engine",
		"sampleRate", props.SampleRate,
		"bufferFrames", props.BufferFrames,
	)

	if props.BufferFrames <= 0 || props.SampleRate <= 0 ||
		props.MaxSampleCount <= 0 || props.MaxClipCount <= 0 {
		err := fmt.Errorf("%w: %+v", ErrConfiguration, props)
		logger.Error("engine construction rejected", "err", err)
		return nil, err
	}

	e := &Engine{
		logger:    logger,
		props:     props,
		sampleIDs: newHandleAllocator(props.MaxSampleCount),
		clipIDs:   newHandleAllocator(props.MaxClipCount),
		samples:   make([]sampleSlot, props.MaxSampleCount+1),
		clips:     make([]clipSlot, props.MaxClipCount+1),
	}

	logger.Info("audio engine initialized",
		"maxSamples", props.MaxSampleCount,
		"maxClips", props.MaxClipCount,
	)
	return e, nil
}

// Properties returns the construction properties.
func (e *Engine) Properties() Properties {
	return e.props
}

// Close releases every pooled buffer unconditionally. The caller must have
// stopped the output device first: after Close the render callback must not
// run again.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()

	for i := 1; i < len(e.clips); i++ {
		e.clips[i].reset()
	}
	for i := 1; i < len(e.samples); i++ {
		e.samples[i].reset()
	}
	e.sampleIDs = newHandleAllocator(e.props.MaxSampleCount)
	e.clipIDs = newHandleAllocator(e.props.MaxClipCount)
	e.logger.Info("audio engine terminated")
}

// LastError returns the message recorded by the most recent failed control
// operation, or the empty string.
func (e *Engine) LastError() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastErr
}

// fail records and logs a control operation failure. Callers hold e.mu.
func (e *Engine) fail(op string, err error) {
	e.lastErr = err.Error()
	e.logger.Warn(op+" failed", "err", err)
}

/* -------------------------------------------------------------------------- */
/*                                   Samples                                  */
/* -------------------------------------------------------------------------- */

// CreateSample copies the given interleaved PCM data into a pooled sample and
// returns its handle, or 0 on failure. channels must be 1 or 2. sampleRate
// must equal the engine's configured rate: the engine does not resample.
// frameCount frames are consumed from pcm, which must hold at least
// frameCount*channels amplitudes.
func (e *Engine) CreateSample(pcm []float32, channels, sampleRate, frameCount int) Sample {
	e.mu.Lock()
	defer e.mu.Unlock()

	if channels != 1 && channels != 2 {
		e.fail("create sample", fmt.Errorf("%w: %d channels", ErrFormatUnsupported, channels))
		return 0
	}
	if sampleRate != e.props.SampleRate {
		e.fail("create sample", fmt.Errorf("%w: sample rate %d, engine runs at %d",
			ErrFormatUnsupported, sampleRate, e.props.SampleRate))
		return 0
	}
	if frameCount <= 0 || len(pcm) < frameCount*channels {
		e.fail("create sample", fmt.Errorf("%w: %d frames with %d amplitudes",
			ErrFormatUnsupported, frameCount, len(pcm)))
		return 0
	}

	id, ok := e.sampleIDs.Allocate()
	if !ok {
		e.fail("create sample", fmt.Errorf("%w: all %d sample slots allocated",
			ErrResourceExhausted, e.props.MaxSampleCount))
		return 0
	}

	slot := &e.samples[id]
	slot.data = make([]float32, frameCount*channels)
	copy(slot.data, pcm)
	slot.frames = frameCount
	slot.channels = channels
	slot.allocated = true

	e.logger.Debug("created sample",
		"sample", id,
		"frames", frameCount,
		"channels", channels,
	)
	return Sample(id)
}

// DestroySample force-stops every clip bound to the sample and schedules the
// slot for reclamation. The buffer is not freed here: a render callback may
// still be reading it through a clip that was just stopped. An invalid or
// already pending handle is a recorded no-op.
func (e *Engine) DestroySample(sample Sample) {
	e.mu.Lock()
	defer e.mu.Unlock()

	slot, ok := e.sampleSlot("destroy sample", sample)
	if !ok || slot.pending {
		return
	}

	for i := 1; i < len(e.clips); i++ {
		c := &e.clips[i]
		if c.loadState() != stateFree && c.sampleIdx == uint32(sample) {
			e.stopClip(c)
		}
	}

	slot.pending = true
	slot.retireEpoch = e.renderEpoch.Load()
	e.logger.Debug("destroying sample", "sample", sample, "retireEpoch", slot.retireEpoch)
}

// ApplyLowpass runs a one-pole low-pass filter over the sample buffer in
// place, per channel. The sample must have no bound clips: the render context
// may read a bound buffer at any moment and must never observe it mid-edit.
func (e *Engine) ApplyLowpass(sample Sample, cutoffHz float64) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	slot, ok := e.sampleSlot("apply lowpass", sample)
	if !ok {
		return false
	}
	if slot.boundClips > 0 {
		e.fail("apply lowpass", fmt.Errorf("%w: sample %d has %d bound clips",
			ErrSampleInUse, sample, slot.boundClips))
		return false
	}
	if cutoffHz <= 0 {
		e.fail("apply lowpass", fmt.Errorf("%w: cutoff %f Hz", ErrConfiguration, cutoffHz))
		return false
	}

	dt := 1.0 / float64(e.props.SampleRate)
	rc := 1.0 / (2 * math.Pi * cutoffHz)
	alpha := float32(dt / (rc + dt))

	for ch := 0; ch < slot.channels; ch++ {
		prev := slot.data[ch]
		for i := ch + slot.channels; i < len(slot.data); i += slot.channels {
			prev += alpha * (slot.data[i] - prev)
			slot.data[i] = prev
		}
	}
	return true
}

// sampleSlot validates a sample handle and returns its slot. Records the
// error on failure. Callers hold e.mu.
func (e *Engine) sampleSlot(op string, sample Sample) (*sampleSlot, bool) {
	if sample == 0 || int(sample) >= len(e.samples) || !e.samples[sample].allocated {
		e.fail(op, fmt.Errorf("%w: sample %d", ErrInvalidHandle, sample))
		return nil, false
	}
	return &e.samples[sample], true
}
