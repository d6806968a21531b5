package audiodevice

type DeviceProperties struct {
	SampleRate   int
	NumChannels  int
	BufferFrames int
}

// RenderFunc fills out with frames frames of interleaved float32 audio. It is
// invoked by an output device on its real-time thread once per audio period,
// so implementations must not block, allocate, or log.
type RenderFunc func(out []float32, frames int)

// Interface for audio output devices, e.g. speakers.
//
// Output devices pull audio: they own the cadence, and invoke the render
// callback once per period to fill each hardware buffer. The engine never
// calls into the device; the device calls into the engine.
type AudioOutputDevice interface {
	// Start opening the underlying stream and begin invoking render once per
	// period. Returns an error if the stream cannot be opened or started.
	Start(render RenderFunc) error

	// Stop the stream. The render callback will not be invoked after Stop
	// returns. The device may be started again.
	Stop() error

	// Meaningfully close the device, including any cleanup of the underlying
	// stream and context. Once closed, a device cannot be restarted.
	Close()

	GetDeviceProperties() DeviceProperties
}
