package config

import (
	"io"
	"log"
	"os"
	"path/filepath"

	"gopkg.in/natefinch/lumberjack.v2"
)

// NewLogger returns a logger writing to the rotating log file and to every
// extra writer. Close the returned io.Closer on exit.
func NewLogger(c LogConfig, extra ...io.Writer) (*log.Logger, io.Closer, error) {
	if err := os.MkdirAll(filepath.Dir(c.File), 0o755); err != nil {
		return nil, nil, err
	}
	file := &lumberjack.Logger{
		Filename:   c.File,
		MaxSize:    c.MaxSizeMB,
		MaxBackups: c.MaxBackups,
		MaxAge:     c.MaxAgeDays,
	}

	writers := append([]io.Writer{file}, extra...)
	return log.New(io.MultiWriter(writers...), "", log.LstdFlags|log.Lmicroseconds), file, nil
}

// ChannelWriter forwards each written line to a channel, dropping lines the
// reader is too slow to take.
type ChannelWriter struct {
	ch chan<- string
}

func NewChannelWriter(ch chan<- string) *ChannelWriter {
	return &ChannelWriter{ch: ch}
}

func (w *ChannelWriter) Write(p []byte) (int, error) {
	select {
	case w.ch <- string(p):
	default:
	}
	return len(p), nil
}
