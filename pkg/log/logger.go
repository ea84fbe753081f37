// Package log owns the process-wide zerolog logger. Init is called once at
// startup; components take the logger by value afterwards.
package log

import (
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	logger zerolog.Logger
	once   sync.Once
)

type Option func(*settings)

type settings struct {
	level    zerolog.Level
	console  bool
	fileName string
}

func WithLevel(level string) Option {
	return func(s *settings) {
		parsed, err := zerolog.ParseLevel(strings.ToLower(level))
		if err != nil {
			return
		}
		s.level = parsed
	}
}

func WithConsole() Option {
	return func(s *settings) {
		s.console = true
	}
}

// WithFile adds a rotated file sink alongside stdout.
func WithFile(fileName string) Option {
	return func(s *settings) {
		s.fileName = fileName
	}
}

func Init(serviceName string, opts ...Option) {
	once.Do(func() {
		zerolog.TimeFieldFormat = time.RFC3339Nano

		s := &settings{level: zerolog.InfoLevel}
		for _, opt := range opts {
			opt(s)
		}

		writers := make([]io.Writer, 0, 2)
		if s.console {
			writers = append(writers, zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})
		}
		if s.fileName != "" {
			writers = append(writers, &lumberjack.Logger{
				Filename:   s.fileName,
				MaxSize:    50,
				MaxBackups: 10,
				MaxAge:     14,
				Compress:   true,
			})
		}
		if len(writers) == 0 {
			writers = append(writers, os.Stdout)
		}

		logger = zerolog.New(zerolog.MultiLevelWriter(writers...)).
			Level(s.level).
			With().
			Timestamp().
			Str("service", serviceName).
			Logger()
	})
}

func Logger() zerolog.Logger {
	return logger
}
