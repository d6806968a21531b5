package engine_test

import (
	"testing"

	"github.com/Honorable-Knights-of-the-Roundtable/jukebox/pkg/engine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const panGain = 0.70710678

func TestMixMonoDuplicatesToBothChannels(t *testing.T) {
	e := newTestEngine(t)
	s := monoSample(t, e, 1000, 0.5)
	c := e.CreateClip(s)
	e.Play(c)

	out := render(e, 64)
	for f := 0; f < 64; f++ {
		assert.InDelta(t, 0.5*panGain, out[2*f], 1e-6, "left frame %d", f)
		assert.InDelta(t, 0.5*panGain, out[2*f+1], 1e-6, "right frame %d", f)
	}
}

func TestMixStereoReadsInterleavedFrames(t *testing.T) {
	e := newTestEngine(t)
	pcm := make([]float32, 2000)
	for f := 0; f < 1000; f++ {
		pcm[2*f] = 0.8
		pcm[2*f+1] = 0.2
	}
	s := e.CreateSample(pcm, 2, 44100, 1000)
	require.NotZero(t, s)
	c := e.CreateClip(s)
	e.Play(c)

	out := render(e, 32)
	for f := 0; f < 32; f++ {
		assert.InDelta(t, 0.8*panGain, out[2*f], 1e-6)
		assert.InDelta(t, 0.2*panGain, out[2*f+1], 1e-6)
	}
}

func TestConstantPowerPanning(t *testing.T) {
	e := newTestEngine(t)
	s := monoSample(t, e, 10000, 0.5)

	tests := []struct {
		name        string
		pan         float32
		left, right float32
	}{
		{"hard left", -1, 0.5 * 2 * panGain, 0},
		{"hard right", +1, 0, 0.5 * 2 * panGain},
		{"center", 0, 0.5 * panGain, 0.5 * panGain},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := e.CreateClip(s)
			require.NotZero(t, c)
			e.SetPan(c, tt.pan)
			e.Play(c)

			out := render(e, 16)
			assert.InDelta(t, tt.left, out[0], 1e-6)
			assert.InDelta(t, tt.right, out[1], 1e-6)

			e.Stop(c)
			render(e, 16)
			e.Flush()
		})
	}
}

func TestVolumeScalesOutput(t *testing.T) {
	e := newTestEngine(t)
	s := monoSample(t, e, 1000, 0.5)
	c := e.CreateClip(s)
	e.SetVolume(c, 0.5)
	e.Play(c)

	out := render(e, 8)
	assert.InDelta(t, 0.5*0.5*panGain, out[0], 1e-6)
}

func TestClipCompletesAfterExactFrameCount(t *testing.T) {
	e := newTestEngine(t)
	const frames = 100
	s := monoSample(t, e, frames, 0.5)
	c := e.CreateClip(s)
	e.Play(c)

	out := render(e, frames)
	assert.NotZero(t, out[2*(frames-1)], "final source frame is still rendered")
	assert.False(t, e.IsPlaying(c), "clip is complete after exactly N frames")

	// Every subsequent period contributes exact silence.
	out = render(e, 64)
	for _, v := range out {
		assert.Zero(t, v)
	}
}

func TestCompletionMidPeriod(t *testing.T) {
	e := newTestEngine(t)
	s := monoSample(t, e, 40, 0.5)
	c := e.CreateClip(s)
	e.Play(c)

	out := render(e, 64)
	assert.NotZero(t, out[2*39], "frame 39 carries the last source sample")
	assert.Zero(t, out[2*40], "frames past exhaustion are silent within the same period")
	assert.Zero(t, out[2*63])
	assert.False(t, e.IsPlaying(c))
}

func TestLoopCountPlaysSampleThreeTimes(t *testing.T) {
	e := newTestEngine(t)
	const frames = 50
	s := monoSample(t, e, frames, 0.5)
	c := e.CreateClip(s)
	e.SetLoopCount(c, 2)
	e.Play(c)

	// Initial pass plus two repeats: 3*frames non-silent frames in total.
	out := render(e, 3*frames)
	for f := 0; f < 3*frames; f++ {
		assert.InDelta(t, 0.5*panGain, out[2*f], 1e-6, "frame %d", f)
	}
	assert.False(t, e.IsPlaying(c), "complete after the final repeat")
	assert.Zero(t, e.LoopCount(c), "all repeats consumed")

	out = render(e, 16)
	for _, v := range out {
		assert.Zero(t, v)
	}
}

func TestLoopForeverKeepsWrapping(t *testing.T) {
	e := newTestEngine(t)
	s := monoSample(t, e, 10, 0.5)
	c := e.CreateClip(s)
	e.SetLoopCount(c, engine.LoopForever)
	e.Play(c)

	for range_i := 0; range_i < 20; range_i++ {
		out := render(e, 64)
		assert.True(t, e.IsPlaying(c))
		assert.NotZero(t, out[0])
	}
	assert.Equal(t, engine.LoopForever, e.LoopCount(c))
}

func TestOutputClampedOnHeavyOverlap(t *testing.T) {
	e := newTestEngine(t)
	s := monoSample(t, e, 1000, 1.0)
	for range_i := 0; range_i < 5; range_i++ {
		c := e.CreateClip(s)
		require.NotZero(t, c)
		e.Play(c)
	}

	// Five full-scale clips sum well past full scale; output must be hard
	// limited, never out of range.
	out := render(e, 64)
	for i, v := range out {
		assert.LessOrEqual(t, v, float32(1), "sample %d", i)
		assert.GreaterOrEqual(t, v, float32(-1), "sample %d", i)
	}
	assert.Equal(t, float32(1), out[0], "heavily overlapped output saturates")
}

func TestHardPannedClipsSeparateChannels(t *testing.T) {
	e := newTestEngine(t)

	// Two one-second mono samples at the engine rate, panned hard apart.
	a := monoSample(t, e, 44100, 0.5)
	b := monoSample(t, e, 44100, 0.25)

	ca := e.CreateClip(a)
	cb := e.CreateClip(b)
	e.SetVolume(ca, 1)
	e.SetVolume(cb, 1)
	e.SetPan(ca, -1)
	e.SetPan(cb, +1)
	e.Play(ca)
	e.Play(cb)

	for range_i := 0; range_i < 10; range_i++ {
		out := render(e, 512)
		for f := 0; f < 512; f++ {
			assert.InDelta(t, 0.5*2*panGain, out[2*f], 1e-5, "left dominated by clip A")
			assert.InDelta(t, 0.25*2*panGain, out[2*f+1], 1e-5, "right dominated by clip B")
		}
	}
}

func TestRenderToleratesShortOutputBuffer(t *testing.T) {
	e := newTestEngine(t)
	s := monoSample(t, e, 1000, 0.5)
	c := e.CreateClip(s)
	e.Play(c)

	// Asking for more frames than the buffer holds must not panic or write
	// out of bounds.
	out := make([]float32, 20)
	e.Render(out, 64)
	assert.InDelta(t, 0.5*panGain, out[0], 1e-6)
	assert.InDelta(t, 0.01, e.PlaybackPosition(c), 1e-9, "only ten frames consumed")
}
