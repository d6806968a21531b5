package engine

/* -------------------------------------------------------------------------- */
/*                            Deferred Reclamation                            */
/* -------------------------------------------------------------------------- */

// Flush reclaims every stopped or completed slot whose retire epoch the
// render context has provably moved past, returning their handles to the
// free-lists for reuse. It returns true while any clip is still playing, so a
// caller can drive a "keep running while clips remain" loop.
//
// A slot stopped during render epoch E is reclaimed only once the published
// epoch exceeds E, which guarantees the callback that may still have been
// reading the slot has completed. Sample slots are additionally held until
// every clip bound to them has itself been reclaimed. Flush is the only path
// that returns handles to the allocators, so each id is released exactly
// once.
func (e *Engine) Flush() bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	published := e.renderEpoch.Load()
	anyPlaying := false

	for id := 1; id < len(e.clips); id++ {
		c := &e.clips[id]
		switch c.loadState() {
		case statePlaying:
			anyPlaying = true
		case stateComplete:
			if published > c.retireEpoch.Load() {
				e.reclaimClip(c, uint32(id))
			}
		}
	}

	for id := 1; id < len(e.samples); id++ {
		s := &e.samples[id]
		if s.pending && s.boundClips == 0 && published > s.retireEpoch {
			e.reclaimSample(s, uint32(id))
		}
	}

	return anyPlaying
}

// reclaimClip detaches the clip from its sample, resets the slot, and
// recycles the handle. Callers hold e.mu and have established the epoch
// safety margin.
func (e *Engine) reclaimClip(c *clipSlot, id uint32) {
	if s := e.boundSample(c); s != nil {
		s.boundClips--
	}
	c.reset()
	e.clipIDs.Release(id)
	e.logger.Debug("reclaimed clip", "clip", id)
}

// reclaimSample releases the slot's buffer, bumps its generation so any
// stale clip reference is detectable, and recycles the handle. Callers hold
// e.mu and have established the epoch safety margin.
func (e *Engine) reclaimSample(s *sampleSlot, id uint32) {
	s.reset()
	s.gen++
	e.sampleIDs.Release(id)
	e.logger.Debug("reclaimed sample", "sample", id)
}
