package engine

import (
	"math"
	"sync/atomic"
)

// Sample is a handle to a pooled decoded PCM buffer. 0 is invalid.
type Sample uint32

// Clip is a handle to a pooled playback instance of a sample. 0 is invalid.
type Clip uint32

// LoopForever is the loop count sentinel for endless looping.
const LoopForever = -1

// clipState is the closed set of playback states. Only the control context
// performs transitions, except for the Playing -> Complete transition on
// cursor exhaustion, which belongs to the render context.
type clipState int32

const (
	stateFree clipState = iota
	statePaused
	statePlaying
	stateComplete
)

// atomicFloat32 is a float32 published through its bit pattern, so volume and
// pan can be adjusted while the render context reads them. A stale value for
// one period is benign; a torn one is impossible.
type atomicFloat32 struct {
	bits atomic.Uint32
}

func (f *atomicFloat32) Load() float32 {
	return math.Float32frombits(f.bits.Load())
}

func (f *atomicFloat32) Store(v float32) {
	f.bits.Store(math.Float32bits(v))
}

// sampleSlot is the pooled storage behind one Sample handle. The slot owns
// its buffer; clips reference it by pool index plus generation and never own
// it. Fields other than gen are only touched by the control context, and the
// buffer is only replaced or released once the reclamation protocol
// guarantees the render context no longer reads it.
type sampleSlot struct {
	data     []float32 // interleaved if stereo
	frames   int
	channels int

	// gen is bumped every time the slot is reclaimed. Clips snapshot it at
	// bind time; the mixer treats a mismatch as a dangling reference and
	// renders silence for that clip.
	gen uint32

	allocated  bool
	boundClips int

	// pending marks the slot as scheduled for reclamation. retireEpoch is the
	// render epoch published when the destroy was issued.
	pending     bool
	retireEpoch uint64
}

func (s *sampleSlot) reset() {
	s.data = nil
	s.frames = 0
	s.channels = 0
	s.allocated = false
	s.boundClips = 0
	s.pending = false
	s.retireEpoch = 0
}

// clipSlot is the pooled storage behind one Clip handle. state, cursor,
// volume, pan, loops and retireEpoch cross the control/render boundary and
// are atomic. sampleIdx and sampleGen are written only while the slot is
// invisible to the render context (at bind time, before the state leaves
// Free, and at reclaim time, after the epoch fence).
type clipSlot struct {
	state  atomic.Int32
	cursor atomic.Uint32 // next sample index into the bound buffer
	volume atomicFloat32
	pan    atomicFloat32
	loops  atomic.Int32

	// retireEpoch is the render epoch published when the clip was stopped or
	// completed. Stored before the Complete state so the control context
	// never observes Complete without it.
	retireEpoch atomic.Uint64

	sampleIdx uint32
	sampleGen uint32
}

func (c *clipSlot) loadState() clipState {
	return clipState(c.state.Load())
}

func (c *clipSlot) storeState(s clipState) {
	c.state.Store(int32(s))
}

func (c *clipSlot) reset() {
	c.sampleIdx = 0
	c.sampleGen = 0
	c.cursor.Store(0)
	c.volume.Store(1)
	c.pan.Store(0)
	c.loops.Store(0)
	c.retireEpoch.Store(0)
	c.storeState(stateFree)
}
