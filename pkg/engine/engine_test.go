package engine_test

import (
	"io"
	"log/slog"
	"os"
	"testing"

	"github.com/Honorable-Knights-of-the-Roundtable/jukebox/pkg/engine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))
	os.Exit(m.Run())
}

// newTestEngine builds an engine with a small fixed configuration. The
// render cadence is driven by hand in tests via Engine.Render.
func newTestEngine(t *testing.T) *engine.Engine {
	t.Helper()
	e, err := engine.New(engine.Properties{
		BufferFrames:   64,
		SampleRate:     44100,
		MaxSampleCount: 8,
		MaxClipCount:   8,
	})
	require.NoError(t, err)
	return e
}

// monoSample loads a constant-amplitude mono sample of the given frame count.
func monoSample(t *testing.T, e *engine.Engine, frames int, amplitude float32) engine.Sample {
	t.Helper()
	pcm := make([]float32, frames)
	for i := range pcm {
		pcm[i] = amplitude
	}
	s := e.CreateSample(pcm, 1, 44100, frames)
	require.NotZero(t, s, "creating a valid mono sample must succeed: %s", e.LastError())
	return s
}

// render drives one period of the given frame count by hand.
func render(e *engine.Engine, frames int) []float32 {
	out := make([]float32, frames*2)
	e.Render(out, frames)
	return out
}

func TestNewRejectsBadProperties(t *testing.T) {
	badProps := []engine.Properties{
		{BufferFrames: 0, SampleRate: 44100, MaxSampleCount: 8, MaxClipCount: 8},
		{BufferFrames: 64, SampleRate: 0, MaxSampleCount: 8, MaxClipCount: 8},
		{BufferFrames: 64, SampleRate: 44100, MaxSampleCount: 0, MaxClipCount: 8},
		{BufferFrames: 64, SampleRate: 44100, MaxSampleCount: 8, MaxClipCount: 0},
	}
	for _, props := range badProps {
		e, err := engine.New(props)
		assert.Nil(t, e)
		assert.ErrorIs(t, err, engine.ErrConfiguration)
	}
}

func TestCreateSampleValidation(t *testing.T) {
	e := newTestEngine(t)
	pcm := make([]float32, 400)

	assert.Zero(t, e.CreateSample(pcm, 3, 44100, 100), "three channels must be rejected")
	assert.NotEmpty(t, e.LastError())

	assert.Zero(t, e.CreateSample(pcm, 1, 48000, 100), "sample rate mismatch must be rejected")
	assert.Zero(t, e.CreateSample(pcm, 2, 44100, 300), "short buffer must be rejected")
	assert.Zero(t, e.CreateSample(pcm, 1, 44100, 0), "zero frames must be rejected")

	assert.NotZero(t, e.CreateSample(pcm, 1, 44100, 400))
	assert.NotZero(t, e.CreateSample(pcm, 2, 44100, 200))
}

func TestZeroHandleRejectedEverywhere(t *testing.T) {
	e := newTestEngine(t)

	// Sample handle space.
	e.DestroySample(0)
	assert.NotEmpty(t, e.LastError())
	assert.Zero(t, e.CreateClip(0))
	assert.False(t, e.ApplyLowpass(0, 1000))

	// Clip handle space, independently.
	e.Play(0)
	e.Pause(0)
	e.Stop(0)
	e.SetVolume(0, 1)
	e.SetPan(0, 0)
	e.SetLoopCount(0, 1)
	e.SetPlaybackPosition(0, 0.5)
	assert.Zero(t, e.Volume(0))
	assert.Zero(t, e.Pan(0))
	assert.Zero(t, e.LoopCount(0))
	assert.Zero(t, e.PlaybackPosition(0))
	assert.False(t, e.IsPlaying(0))
	assert.NotEmpty(t, e.LastError())
}

func TestSamplePoolExhaustion(t *testing.T) {
	e, err := engine.New(engine.Properties{
		BufferFrames:   64,
		SampleRate:     44100,
		MaxSampleCount: 2,
		MaxClipCount:   2,
	})
	require.NoError(t, err)

	pcm := make([]float32, 16)
	s1 := e.CreateSample(pcm, 1, 44100, 16)
	s2 := e.CreateSample(pcm, 1, 44100, 16)
	require.NotZero(t, s1)
	require.NotZero(t, s2)

	assert.Zero(t, e.CreateSample(pcm, 1, 44100, 16), "pool is full")
	assert.Contains(t, e.LastError(), "sample slots")

	// Releasing exactly one slot permits exactly one more allocation.
	e.DestroySample(s1)
	render(e, 64)
	e.Flush()

	assert.NotZero(t, e.CreateSample(pcm, 1, 44100, 16))
	assert.Zero(t, e.CreateSample(pcm, 1, 44100, 16))
}

func TestDestroySampleForceStopsClips(t *testing.T) {
	e := newTestEngine(t)
	s := monoSample(t, e, 1000, 0.5)

	c1 := e.CreateClip(s)
	c2 := e.CreateClip(s)
	require.NotZero(t, c1)
	require.NotZero(t, c2)
	e.Play(c1)
	e.Play(c2)

	e.DestroySample(s)
	assert.False(t, e.IsPlaying(c1), "destroy must force-stop bound clips")
	assert.False(t, e.IsPlaying(c2))

	// The sample slot is not reusable until the render context has moved on.
	assert.Zero(t, e.CreateClip(s), "clip creation on a destroyed sample must fail")

	render(e, 64)
	e.Flush()

	// Both clip handles and the sample handle are recycled now; the pools
	// should be back to full capacity.
	for range_i := 0; range_i < 8; range_i++ {
		require.NotZero(t, e.CreateClip(monoSample(t, e, 16, 0)))
		e.Flush()
	}
}

func TestApplyLowpassRequiresUnboundSample(t *testing.T) {
	e := newTestEngine(t)
	s := monoSample(t, e, 256, 0.5)

	c := e.CreateClip(s)
	require.NotZero(t, c)
	assert.False(t, e.ApplyLowpass(s, 1000), "lowpass on a bound sample must be rejected")
	assert.Contains(t, e.LastError(), "bound")

	e.Stop(c)
	render(e, 64)
	e.Flush()
	assert.True(t, e.ApplyLowpass(s, 1000))
	assert.False(t, e.ApplyLowpass(s, 0), "non-positive cutoff must be rejected")
}

func TestCloseReleasesEverything(t *testing.T) {
	e := newTestEngine(t)
	s := monoSample(t, e, 64, 0.1)
	c := e.CreateClip(s)
	e.Play(c)

	e.Close()

	assert.False(t, e.IsPlaying(c))
	// Pools are back to full capacity.
	for range_i := 0; range_i < 8; range_i++ {
		require.NotZero(t, monoSample(t, e, 16, 0))
	}
}
