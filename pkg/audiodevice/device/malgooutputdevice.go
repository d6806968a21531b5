package device

import (
	"encoding/binary"
	"fmt"
	"log/slog"
	"math"
	"sync"

	"github.com/Honorable-Knights-of-the-Roundtable/jukebox/pkg/audiodevice"
	"github.com/Honorable-Knights-of-the-Roundtable/jukebox/pkg/engine"
	"github.com/gen2brain/malgo"
	"github.com/google/uuid"
)

// MalgoOutputDevice plays audio to the default output device using malgo
// (miniaudio). It implements the AudioOutputDevice interface.
//
// The device opens a float32 stereo stream and invokes the render callback
// from miniaudio's audio thread once per period, converting the rendered
// float buffer into the device's byte buffer in place.
type MalgoOutputDevice struct {
	logger *slog.Logger
	uuid   uuid.UUID

	ctx          *malgo.AllocatedContext
	device       *malgo.Device
	sampleRate   int
	numChannels  int
	bufferFrames int

	// Scratch buffer the render callback fills, sized once at construction
	// so the audio thread never allocates.
	scratch []float32

	shutdownOnce sync.Once
}

// NewMalgoOutputDevice creates a new MalgoOutputDevice using the default
// output device. sampleRate and bufferFrames define the stream format; output
// is always interleaved stereo.
func NewMalgoOutputDevice(sampleRate int, bufferFrames int) (*MalgoOutputDevice, error) {
	uuid := uuid.New()
	logger := slog.Default().With(
		"malgo output device uuid", uuid,
	)

	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, func(message string) {
		logger.Debug("miniaudio", "message", message)
	})
	if err != nil {
		logger.Error("failed to initialize malgo context", "err", err)
		return nil, fmt.Errorf("%w: initializing audio context: %v", engine.ErrDevice, err)
	}

	logger.Debug(
		"initialized malgo output device",
		"sampleRate", sampleRate,
		"bufferFrames", bufferFrames,
	)

	return &MalgoOutputDevice{
		logger:       logger,
		uuid:         uuid,
		ctx:          ctx,
		sampleRate:   sampleRate,
		numChannels:  2,
		bufferFrames: bufferFrames,
		scratch:      make([]float32, bufferFrames*2),
	}, nil
}

// Start opens the playback stream and begins invoking render once per period.
func (d *MalgoOutputDevice) Start(render audiodevice.RenderFunc) error {
	if d.device != nil {
		return fmt.Errorf("%w: already started", engine.ErrDevice)
	}

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Playback)
	deviceConfig.Playback.Format = malgo.FormatF32
	deviceConfig.Playback.Channels = uint32(d.numChannels)
	deviceConfig.SampleRate = uint32(d.sampleRate)
	deviceConfig.PeriodSizeInFrames = uint32(d.bufferFrames)
	deviceConfig.Alsa.NoMMap = 1

	onSamples := func(outputSamples, inputSamples []byte, frameCount uint32) {
		frames := int(frameCount)
		if frames > d.bufferFrames {
			// miniaudio asked for more than one period; render what fits and
			// leave the remainder silent rather than allocate here.
			frames = d.bufferFrames
		}

		n := frames * d.numChannels
		render(d.scratch[:n], frames)

		for i := 0; i < n; i++ {
			binary.LittleEndian.PutUint32(outputSamples[4*i:], math.Float32bits(d.scratch[i]))
		}
		for i := 4 * n; i < len(outputSamples); i++ {
			outputSamples[i] = 0
		}
	}

	device, err := malgo.InitDevice(d.ctx.Context, deviceConfig, malgo.DeviceCallbacks{
		Data: onSamples,
	})
	if err != nil {
		d.logger.Error("failed to open playback stream", "err", err)
		return fmt.Errorf("%w: opening playback stream: %v", engine.ErrDevice, err)
	}

	if err := device.Start(); err != nil {
		device.Uninit()
		d.logger.Error("failed to start playback stream", "err", err)
		return fmt.Errorf("%w: starting playback stream: %v", engine.ErrDevice, err)
	}

	d.device = device
	d.logger.Info("malgo output device started successfully")
	return nil
}

// Stop halts the playback stream. The device may be started again.
func (d *MalgoOutputDevice) Stop() error {
	if d.device == nil {
		return nil
	}

	if err := d.device.Stop(); err != nil {
		d.logger.Error("error stopping playback stream", "err", err)
		return fmt.Errorf("%w: stopping playback stream: %v", engine.ErrDevice, err)
	}
	d.device.Uninit()
	d.device = nil

	d.logger.Debug("malgo output device stopped")
	return nil
}

// Close stops the stream and releases the malgo context.
func (d *MalgoOutputDevice) Close() {
	d.logger.Debug("shutdown called")
	d.shutdownOnce.Do(func() {
		if err := d.Stop(); err != nil {
			d.logger.Error("error stopping device during shutdown", "err", err)
		}

		if err := d.ctx.Uninit(); err != nil {
			d.logger.Error("error releasing malgo context", "err", err)
		}
		d.ctx.Free()

		d.logger.Info("malgo output device closed")
	})
}

// GetDeviceProperties returns the stream format of this device.
func (d *MalgoOutputDevice) GetDeviceProperties() audiodevice.DeviceProperties {
	return audiodevice.DeviceProperties{
		SampleRate:   d.sampleRate,
		NumChannels:  d.numChannels,
		BufferFrames: d.bufferFrames,
	}
}
