package logging

import (
	"os"

	"go.uber.org/zap/zapcore"
)

// DefaultTimeFormatStr is the time format used by the console appenders.
const DefaultTimeFormatStr = "2006-01-02T15:04:05.000Z0700"

// Appender is an output for log entries. Any zapcore.Core satisfies it, which is how the
// observer used by tests is attached.
type Appender interface {
	Write(zapcore.Entry, []zapcore.Field) error
	Sync() error
}

// ConsoleAppender writes entries through a zap console encoder.
type ConsoleAppender struct {
	encoder zapcore.Encoder
	out     zapcore.WriteSyncer
}

// NewStdoutAppender returns an appender writing human readable lines to stdout.
func NewStdoutAppender() ConsoleAppender {
	return NewWriterAppender(os.Stdout)
}

// NewWriterAppender returns an appender writing human readable lines to the given syncer.
func NewWriterAppender(out zapcore.WriteSyncer) ConsoleAppender {
	config := NewLoggerConfig().EncoderConfig
	config.EncodeTime = zapcore.TimeEncoderOfLayout(DefaultTimeFormatStr)
	return ConsoleAppender{encoder: zapcore.NewConsoleEncoder(config), out: out}
}

// Write encodes the entry and writes it out.
func (appender ConsoleAppender) Write(entry zapcore.Entry, fields []zapcore.Field) error {
	buf, err := appender.encoder.EncodeEntry(entry, fields)
	if err != nil {
		return err
	}
	defer buf.Free()
	_, err = appender.out.Write(buf.Bytes())
	return err
}

// Sync flushes the underlying writer.
func (appender ConsoleAppender) Sync() error {
	return appender.out.Sync()
}
