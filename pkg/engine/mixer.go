package engine

// panGain is 1/sqrt(2): the constant-power pan law's center normalization,
// keeping perceived loudness flat across the stereo field.
const panGain = 0.70710678

// Render is the audio callback. It mixes every playing clip into out, an
// interleaved stereo buffer of the given frame count, then hard-clamps the
// result to [-1, 1].
//
// Render runs on the output device's real-time thread. It performs no
// allocation, takes no locks, does no I/O, and never fails: any inconsistency
// it finds (a dangling sample reference, an out-of-range cursor) degrades to
// silence for that clip. Clip order is unspecified; mixing is additive and
// commutative within float tolerance.
func (e *Engine) Render(out []float32, frames int) {
	if frames*2 > len(out) {
		frames = len(out) / 2
	}
	out = out[:frames*2]

	for i := range out {
		out[i] = 0
	}

	for i := 1; i < len(e.clips); i++ {
		c := &e.clips[i]
		if c.loadState() != statePlaying {
			continue
		}
		e.mixClip(c, out, frames)
	}

	for i, v := range out {
		if v > 1 {
			out[i] = 1
		} else if v < -1 {
			out[i] = -1
		}
	}

	// Publish the completed period. Reclamation of anything stopped during
	// or before this callback becomes legal once this value has advanced.
	e.renderEpoch.Add(1)
}

// mixClip accumulates one clip into the output buffer, advancing its cursor
// and handling looping and completion.
func (e *Engine) mixClip(c *clipSlot, out []float32, frames int) {
	if c.sampleIdx == 0 || int(c.sampleIdx) >= len(e.samples) {
		return
	}
	s := &e.samples[c.sampleIdx]
	if s.gen != c.sampleGen {
		// The sample slot was reclaimed out from under us. Should not happen
		// under the reclamation protocol; degrade to silence.
		return
	}
	data := s.data
	if len(data) == 0 {
		return
	}

	// Volume and pan are sampled once per period. A concurrent control-side
	// change lands no later than the next callback.
	volume := c.volume.Load()
	pan := c.pan.Load()
	leftGain := (1 - pan) * panGain * volume
	rightGain := (1 + pan) * panGain * volume
	mono := s.channels == 1

	start := c.cursor.Load()
	cursor := int(start)
	for f := 0; f < frames; f++ {
		var left, right float32
		if mono {
			if cursor >= len(data) {
				c.cursor.CompareAndSwap(start, uint32(cursor))
				return
			}
			left = data[cursor]
			right = left
			cursor++
		} else {
			if cursor+1 >= len(data) {
				c.cursor.CompareAndSwap(start, uint32(cursor))
				return
			}
			left = data[cursor]
			right = data[cursor+1]
			cursor += 2
		}

		out[2*f] += left * leftGain
		out[2*f+1] += right * rightGain

		if cursor >= len(data) {
			loops := c.loops.Load()
			switch {
			case loops == LoopForever:
				cursor = 0
			case loops > 0:
				cursor = 0
				c.loops.Store(loops - 1)
			default:
				// Exhausted. Mark complete; this and all later periods
				// contribute silence until a Flush reclaims the slot.
				c.cursor.Store(uint32(cursor))
				c.retireEpoch.Store(e.renderEpoch.Load())
				c.storeState(stateComplete)
				return
			}
		}
	}
	// The save yields to a concurrent seek: if the cursor moved under this
	// period, the seeked position wins and plays from the next callback.
	c.cursor.CompareAndSwap(start, uint32(cursor))
}
