package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/Honorable-Knights-of-the-Roundtable/jukebox/cmd/juke/config"
	"github.com/Honorable-Knights-of-the-Roundtable/jukebox/pkg/audiodevice"
	"github.com/Honorable-Knights-of-the-Roundtable/jukebox/pkg/audiodevice/device"
	"github.com/Honorable-Knights-of-the-Roundtable/jukebox/pkg/jukebox"
	"github.com/spf13/viper"
)

func main() {
	configFilePath := flag.String("configFilePath", "config.yaml", "Set the file path to the config file.")
	flag.Parse()

	config.LoadConfig(*configFilePath)
	logFilePointer := config.ConfigureLogger()
	if logFilePointer != nil {
		defer logFilePointer.Close()
	}

	tracks := flag.Args()
	if len(tracks) == 0 {
		tracks = viper.GetStringSlice("tracks")
	}
	if len(tracks) == 0 {
		slog.Error("no tracks to play; pass file paths as arguments or set `tracks` in the config")
		os.Exit(1)
	}

	// --------------------------------------------------------------------------------

	sampleRate := viper.GetInt("samplerate")
	bufferFrames := viper.GetInt("bufferframes")

	var out audiodevice.AudioOutputDevice
	var manual *device.ManualOutputDevice
	if viper.GetBool("headless") {
		manual = device.NewManualOutputDevice(sampleRate, bufferFrames)
		out = manual
	}

	juke, err := jukebox.New(jukebox.Options{
		SampleRate:     sampleRate,
		BufferFrames:   bufferFrames,
		MaxSampleCount: viper.GetInt("maxsamples"),
		MaxClipCount:   viper.GetInt("maxclips"),
		Device:         out,
	})
	if err != nil {
		slog.Error("could not start jukebox", "err", err)
		os.Exit(1)
	}
	defer juke.Close()

	if manual != nil {
		// No sound card: drive the render callback on a wall-clock cadence.
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go manual.Run(ctx)
	}

	// --------------------------------------------------------------------------------

	// Alternate tracks hard left and hard right, the classic two-loop demo.
	pan := float32(-1)
	for _, track := range tracks {
		sample := juke.Load(track)
		if sample == 0 {
			slog.Error("could not load track", "track", track, "err", juke.Err())
			os.Exit(1)
		}

		clip := juke.Clip(sample)
		if clip == 0 {
			slog.Error("could not create clip", "track", track, "err", juke.Err())
			os.Exit(1)
		}
		juke.SetVolume(clip, 1)
		juke.SetPan(clip, pan)
		pan = -pan

		juke.Play(clip)
		slog.Info("playing track", "track", track)
	}

	// --------------------------------------------------------------------------------

	// Reclaim finished clips once per render period until playback completes.
	period := time.Duration(bufferFrames) * time.Second / time.Duration(sampleRate)
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	for range ticker.C {
		if !juke.Flush() {
			break
		}
	}

	slog.Info("playback complete")
}
