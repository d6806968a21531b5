package config

import (
	"log/slog"
	"os"

	"github.com/Honorable-Knights-of-the-Roundtable/jukebox/internal/utils"
	"github.com/spf13/viper"
)

func setViperDefaults() {
	viper.SetDefault("loglevel", "info")
	viper.SetDefault("logfile", "")
	viper.SetDefault("samplerate", 44100)
	viper.SetDefault("bufferframes", 512)
	viper.SetDefault("maxsamples", 2048)
	viper.SetDefault("maxclips", 2048)
	viper.SetDefault("headless", false)
	viper.SetDefault("tracks", []string{})
}

func LoadConfig(configFilePath string) {
	setViperDefaults()

	viper.SetConfigFile(configFilePath)
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			slog.Info("no config file found", "configFilePath", configFilePath)
		} else if os.IsNotExist(err) {
			slog.Info("no config file found", "configFilePath", configFilePath)
		} else {
			slog.Error("error during config read", "err", err)
			panic(err)
		}
	}
}

// ConfigureLogger installs the default slog logger from the loaded config,
// returning the log file pointer (nil for stdout) so main can close it.
func ConfigureLogger() *os.File {
	logFilePointer, err := utils.ConfigureDefaultLogger(
		viper.GetString("loglevel"),
		viper.GetString("logfile"),
		slog.HandlerOptions{},
	)
	if err != nil {
		slog.Error("error during logger configuration", "err", err)
		panic(err)
	}
	return logFilePointer
}
