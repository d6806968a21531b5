package engine

import "fmt"

/* -------------------------------------------------------------------------- */
/*                                    Clips                                   */
/* -------------------------------------------------------------------------- */

// CreateClip binds a new clip to the sample and returns its handle, or 0 on
// failure. The clip starts Paused with its cursor at 0, volume 1, pan 0, and
// no looping.
func (e *Engine) CreateClip(sample Sample) Clip {
	e.mu.Lock()
	defer e.mu.Unlock()

	slot, ok := e.sampleSlot("create clip", sample)
	if !ok {
		return 0
	}
	if slot.pending {
		e.fail("create clip", fmt.Errorf("%w: sample %d is being destroyed", ErrInvalidHandle, sample))
		return 0
	}

	id, ok := e.clipIDs.Allocate()
	if !ok {
		e.fail("create clip", fmt.Errorf("%w: all %d clip slots allocated",
			ErrResourceExhausted, e.props.MaxClipCount))
		return 0
	}

	c := &e.clips[id]
	c.sampleIdx = uint32(sample)
	c.sampleGen = slot.gen
	c.cursor.Store(0)
	c.volume.Store(1)
	c.pan.Store(0)
	c.loops.Store(0)
	c.retireEpoch.Store(0)
	// Publishing the state is what makes the slot visible to the render
	// context; every field above must be in place first.
	c.storeState(statePaused)

	slot.boundClips++

	e.logger.Debug("created clip", "clip", id, "sample", sample)
	return Clip(id)
}

// Play starts or resumes the clip. A paused clip resumes from its current
// cursor; it is not rewound. To restart from the beginning, reposition first
// or create a fresh clip.
func (e *Engine) Play(clip Clip) {
	e.mu.Lock()
	defer e.mu.Unlock()

	c, ok := e.clipSlot("play", clip)
	if !ok {
		return
	}
	switch c.loadState() {
	case statePlaying:
		// Already playing.
	case statePaused:
		c.storeState(statePlaying)
	default:
		e.fail("play", fmt.Errorf("%w: clip %d is stopped", ErrInvalidState, clip))
	}
}

// Pause suspends a playing clip without altering its cursor.
func (e *Engine) Pause(clip Clip) {
	e.mu.Lock()
	defer e.mu.Unlock()

	c, ok := e.clipSlot("pause", clip)
	if !ok {
		return
	}
	switch c.loadState() {
	case statePaused:
		// Already paused.
	case statePlaying:
		c.storeState(statePaused)
	default:
		e.fail("pause", fmt.Errorf("%w: clip %d is stopped", ErrInvalidState, clip))
	}
}

// Stop ends playback of the clip from any non-free state. The clip is
// logically stopped at once (IsPlaying reports false and the next render
// callback contributes silence) but its handle and slot are only reclaimed by
// a later Flush, once the render context has provably moved past the current
// period.
func (e *Engine) Stop(clip Clip) {
	e.mu.Lock()
	defer e.mu.Unlock()

	c, ok := e.clipSlot("stop", clip)
	if !ok {
		return
	}
	e.stopClip(c)
}

// stopClip marks the slot stopped and records the retire epoch. Safe to call
// on an already stopped slot. Callers hold e.mu.
func (e *Engine) stopClip(c *clipSlot) {
	if c.loadState() == stateComplete {
		return
	}
	// The stopped state must be visible before the epoch is sampled. A
	// callback still mixing this slot observed Playing before the store, so
	// the epoch it publishes on completion is at most the one recorded here
	// and Flush's gate holds. Sampling first opens a window: a period
	// boundary between the two operations lets Flush reclaim the slot while
	// that callback is reading it.
	c.storeState(stateComplete)
	c.retireEpoch.Store(e.renderEpoch.Load())
}

// IsPlaying reports whether the clip is currently in the Playing state. An
// invalid handle reports false.
func (e *Engine) IsPlaying(clip Clip) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	c, ok := e.clipSlot("is playing", clip)
	if !ok {
		return false
	}
	return c.loadState() == statePlaying
}

// PlayingClipCount returns the number of clips currently playing.
func (e *Engine) PlayingClipCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()

	count := 0
	for i := 1; i < len(e.clips); i++ {
		if e.clips[i].loadState() == statePlaying {
			count++
		}
	}
	return count
}

/* -------------------------------------------------------------------------- */
/*                               Clip Parameters                              */
/* -------------------------------------------------------------------------- */

// SetVolume sets the clip's linear gain. The intended range is [0, 1]; the
// engine applies the value as given.
func (e *Engine) SetVolume(clip Clip, volume float32) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if c, ok := e.clipSlot("set volume", clip); ok {
		c.volume.Store(volume)
	}
}

// Volume returns the clip's gain, or 0 for an invalid handle.
func (e *Engine) Volume(clip Clip) float32 {
	e.mu.Lock()
	defer e.mu.Unlock()

	c, ok := e.clipSlot("get volume", clip)
	if !ok {
		return 0
	}
	return c.volume.Load()
}

// SetPan sets the clip's stereo position, -1 hard left to +1 hard right. The
// intended range is [-1, 1]; the engine applies the value as given.
func (e *Engine) SetPan(clip Clip, pan float32) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if c, ok := e.clipSlot("set pan", clip); ok {
		c.pan.Store(pan)
	}
}

// Pan returns the clip's stereo position, or 0 for an invalid handle.
func (e *Engine) Pan(clip Clip) float32 {
	e.mu.Lock()
	defer e.mu.Unlock()

	c, ok := e.clipSlot("get pan", clip)
	if !ok {
		return 0
	}
	return c.pan.Load()
}

// SetLoopCount sets how many more times the clip wraps after the current
// pass: 0 plays once, N repeats N more times, LoopForever loops endlessly.
func (e *Engine) SetLoopCount(clip Clip, count int) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if count < LoopForever {
		e.fail("set loop count", fmt.Errorf("%w: loop count %d", ErrInvalidState, count))
		return
	}
	if c, ok := e.clipSlot("set loop count", clip); ok {
		c.loops.Store(int32(count))
	}
}

// LoopCount returns the clip's remaining loop count, or 0 for an invalid
// handle.
func (e *Engine) LoopCount(clip Clip) int {
	e.mu.Lock()
	defer e.mu.Unlock()

	c, ok := e.clipSlot("get loop count", clip)
	if !ok {
		return 0
	}
	return int(c.loops.Load())
}

// PlaybackPosition returns the clip's cursor as a normalized position in
// [0, 1], or 0 for an invalid or unbound handle.
func (e *Engine) PlaybackPosition(clip Clip) float64 {
	e.mu.Lock()
	defer e.mu.Unlock()

	c, ok := e.clipSlot("get position", clip)
	if !ok {
		return 0
	}
	s := e.boundSample(c)
	if s == nil || len(s.data) == 0 {
		return 0
	}
	return float64(c.cursor.Load()) / float64(len(s.data))
}

// SetPlaybackPosition moves the clip's cursor to the normalized position in
// [0, 1], rounded to the nearest frame boundary. Out-of-range positions are
// clamped.
//
// Seeking a playing clip is safe: a callback already mixing the period yields
// its cursor save to the seek, which takes effect on the next callback. A clip
// that exhausts its data in that same period still completes. Seek while
// paused for a sample-exact start point.
func (e *Engine) SetPlaybackPosition(clip Clip, position float64) {
	e.mu.Lock()
	defer e.mu.Unlock()

	c, ok := e.clipSlot("set position", clip)
	if !ok {
		return
	}
	s := e.boundSample(c)
	if s == nil || s.frames == 0 {
		e.fail("set position", fmt.Errorf("%w: clip %d has no sample", ErrInvalidHandle, clip))
		return
	}

	if position < 0 {
		position = 0
	} else if position > 1 {
		position = 1
	}
	frame := int(position*float64(s.frames) + 0.5)
	if frame > s.frames-1 {
		frame = s.frames - 1
	}
	c.cursor.Store(uint32(frame * s.channels))
}

/* -------------------------------------------------------------------------- */

// clipSlot validates a clip handle and returns its slot. Records the error on
// failure. Callers hold e.mu.
func (e *Engine) clipSlot(op string, clip Clip) (*clipSlot, bool) {
	if clip == 0 || int(clip) >= len(e.clips) || e.clips[clip].loadState() == stateFree {
		e.fail(op, fmt.Errorf("%w: clip %d", ErrInvalidHandle, clip))
		return nil, false
	}
	return &e.clips[clip], true
}

// boundSample resolves the clip's sample reference, validating the
// generation. Returns nil if the reference is unbound or dangling. Callers
// hold e.mu.
func (e *Engine) boundSample(c *clipSlot) *sampleSlot {
	if c.sampleIdx == 0 || int(c.sampleIdx) >= len(e.samples) {
		return nil
	}
	s := &e.samples[c.sampleIdx]
	if s.gen != c.sampleGen {
		return nil
	}
	return s
}
