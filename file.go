package conproxy

import (
	"io"

	"gopkg.in/natefinch/lumberjack.v2"
)

// newFileWriter creates a rotating file writer. Returns nil if the path is empty.
func newFileWriter(cfg FileConfig) io.Writer {
	if cfg.Path == "" {
		return nil
	}

	maxSize := cfg.MaxSizeMB
	if maxSize <= 0 {
		maxSize = 100
	}
	maxAge := cfg.MaxAgeDays
	if maxAge <= 0 {
		maxAge = 7
	}
	maxBackups := cfg.MaxBackups
	if maxBackups <= 0 {
		maxBackups = 5
	}

	return &lumberjack.Logger{
		Filename:   cfg.Path,
		MaxSize:    maxSize,
		MaxAge:     maxAge,
		MaxBackups: maxBackups,
		Compress:   cfg.Compress,
		LocalTime:  true,
	}
}
