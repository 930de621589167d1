package logging

import (
	"fmt"
	"os"
	"time"

	log "github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"

	"restaurant_pos/internal/config"
)

// Setup configures the global logrus logger. An empty LogPath keeps output
// on stderr.
func Setup(cfg *config.Config) error {
	if cfg.LogPath != "" {
		log.SetOutput(&lumberjack.Logger{
			Filename:   cfg.LogPath,
			MaxSize:    32, // megabytes
			MaxBackups: 5,
			MaxAge:     28, //days
			Compress:   true,
		})
	} else {
		log.SetOutput(os.Stderr)
	}

	level, err := parseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	log.SetLevel(level)
	log.SetFormatter(&log.TextFormatter{
		PadLevelText:    true,
		DisableColors:   cfg.LogPath != "",
		FullTimestamp:   true,
		TimestampFormat: time.DateTime,
	})
	return nil
}

func parseLevel(level string) (log.Level, error) {
	switch level {
	case "trace":
		return log.TraceLevel, nil
	case "debug":
		return log.DebugLevel, nil
	case "info", "":
		return log.InfoLevel, nil
	case "warn":
		return log.WarnLevel, nil
	case "error":
		return log.ErrorLevel, nil
	case "fatal":
		return log.FatalLevel, nil
	default:
		return log.InfoLevel, fmt.Errorf("unknown logging level %q", level)
	}
}
