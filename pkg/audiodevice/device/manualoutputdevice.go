package device

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Honorable-Knights-of-the-Roundtable/jukebox/pkg/audiodevice"
	"github.com/Honorable-Knights-of-the-Roundtable/jukebox/pkg/engine"
)

// ManualOutputDevice is an AudioOutputDevice with no hardware behind it.
//
// The caller drives the render cadence: RenderOnce renders a single period on
// demand, and Run renders on a real-time ticker until the context is
// canceled. Useful in testing and for headless dry-runs where no sound card
// is available.
type ManualOutputDevice struct {
	properties   audiodevice.DeviceProperties
	shutdownOnce sync.Once

	mu      sync.Mutex
	render  audiodevice.RenderFunc
	started bool
	buffer  []float32
}

func NewManualOutputDevice(sampleRate int, bufferFrames int) *ManualOutputDevice {
	return &ManualOutputDevice{
		properties: audiodevice.DeviceProperties{
			SampleRate:   sampleRate,
			NumChannels:  2,
			BufferFrames: bufferFrames,
		},
		buffer: make([]float32, bufferFrames*2),
	}
}

func (d *ManualOutputDevice) Start(render audiodevice.RenderFunc) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.started {
		return fmt.Errorf("%w: already started", engine.ErrDevice)
	}
	d.render = render
	d.started = true
	return nil
}

func (d *ManualOutputDevice) Stop() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.started = false
	return nil
}

func (d *ManualOutputDevice) Close() {
	d.shutdownOnce.Do(func() {
		_ = d.Stop()
	})
}

func (d *ManualOutputDevice) GetDeviceProperties() audiodevice.DeviceProperties {
	return d.properties
}

// RenderOnce invokes the render callback for one period and returns the
// rendered buffer. The buffer is reused across calls; callers that keep the
// audio must copy it. Returns silence if the device is stopped.
func (d *ManualOutputDevice) RenderOnce() []float32 {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.started || d.render == nil {
		for i := range d.buffer {
			d.buffer[i] = 0
		}
		return d.buffer
	}
	d.render(d.buffer, d.properties.BufferFrames)
	return d.buffer
}

// Run invokes the render callback once per period duration until the context
// is canceled, mimicking a hardware stream's cadence without a device.
func (d *ManualOutputDevice) Run(ctx context.Context) {
	period := time.Duration(d.properties.BufferFrames) * time.Second /
		time.Duration(d.properties.SampleRate)

	ticker := time.NewTicker(period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			d.RenderOnce()
		}
	}
}
