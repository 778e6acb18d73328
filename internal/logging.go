package internal

import (
	"io"
	"os"
	"sync"

	"github.com/sirupsen/logrus"
)

const LogLevelEnvVar = "GITNOTES_LOG_LEVEL"

var (
	baseLogger   = newBaseLogger()
	baseLoggerMu sync.Mutex
)

func newBaseLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	l.SetLevel(logrus.InfoLevel)
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	return l
}

// ConfigureLogging applies the logging section to the shared logger.
// GITNOTES_LOG_LEVEL wins over the configured level.
func ConfigureLogging(cfg LoggingConfig, out io.Writer) {
	baseLoggerMu.Lock()
	defer baseLoggerMu.Unlock()

	if out != nil {
		baseLogger.SetOutput(out)
	}

	levelStr := cfg.Level
	if env := os.Getenv(LogLevelEnvVar); env != "" {
		levelStr = env
	}
	level, err := logrus.ParseLevel(levelStr)
	if err != nil {
		level = logrus.InfoLevel
	}
	baseLogger.SetLevel(level)

	switch cfg.Format {
	case "json":
		baseLogger.SetFormatter(&logrus.JSONFormatter{})
	default:
		baseLogger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
}

// NewLogger returns an entry tagged with the component name.
func NewLogger(component string) *logrus.Entry {
	return baseLogger.WithField("component", component)
}
