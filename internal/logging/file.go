package logging

import (
	"io"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Rotation limits for leader log files.
const (
	fileMaxSizeMB  = 10
	fileMaxBackups = 5
	fileMaxAgeDays = 30
)

// NewFileWriter returns a size-rotated writer for path. Old files are
// compressed and pruned after fileMaxBackups or fileMaxAgeDays.
func NewFileWriter(path string) io.WriteCloser {
	return &lumberjack.Logger{
		Filename:   path,
		MaxSize:    fileMaxSizeMB,
		MaxBackups: fileMaxBackups,
		MaxAge:     fileMaxAgeDays,
		Compress:   true,
	}
}

// WithFile returns a copy of l that also writes JSON lines to w.
// The console output is left as it was.
func (l *Logger) WithFile(w io.Writer) *Logger {
	child := *l
	child.SetOutput(zerolog.MultiLevelWriter(l.output, w))
	return &child
}
