package logger

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

var log = New(os.Stdout, logrus.InfoLevel)

// Options controls Init. A non-empty File adds a rotating file sink next to stdout.
type Options struct {
	Level      string
	File       string
	MaxSizeMB  int
	MaxBackups int
}

// New builds a JSON logrus logger writing to out.
func New(out io.Writer, level logrus.Level) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(out)
	l.SetLevel(level)
	l.SetFormatter(&logrus.JSONFormatter{})
	return l
}

func Init(opts ...Options) {
	var o Options
	if len(opts) > 0 {
		o = opts[0]
	}

	level, err := logrus.ParseLevel(o.Level)
	if err != nil {
		level = logrus.InfoLevel
	}

	var out io.Writer = os.Stdout
	if o.File != "" {
		maxSize := o.MaxSizeMB
		if maxSize <= 0 {
			maxSize = 10
		}
		out = io.MultiWriter(os.Stdout, &lumberjack.Logger{
			Filename:   o.File,
			MaxSize:    maxSize,
			MaxBackups: o.MaxBackups,
			LocalTime:  true,
		})
	}

	log = New(out, level)
}

// SetOutput swaps the package logger; used by tests to capture output.
func SetOutput(out io.Writer, level logrus.Level) {
	log = New(out, level)
}

// fields turns alternating key/value pairs into logrus fields.
func fields(keyvals []interface{}) logrus.Fields {
	f := logrus.Fields{}
	for i := 0; i < len(keyvals); i += 2 {
		key := fmt.Sprint(keyvals[i])
		if i+1 >= len(keyvals) {
			f[key] = "(missing)"
			break
		}
		if err, ok := keyvals[i+1].(error); ok {
			f[key] = err.Error()
			continue
		}
		f[key] = keyvals[i+1]
	}
	return f
}

func Info(msg string, keyvals ...interface{}) {
	log.WithFields(fields(keyvals)).Info(msg)
}

func Infof(format string, v ...interface{}) {
	log.Infof(format, v...)
}

func Warn(msg string, keyvals ...interface{}) {
	log.WithFields(fields(keyvals)).Warn(msg)
}

func Error(msg string, keyvals ...interface{}) {
	log.WithFields(fields(keyvals)).Error(msg)
}

func Errorf(format string, v ...interface{}) {
	log.Errorf(format, v...)
}

func Debug(msg string, keyvals ...interface{}) {
	log.WithFields(fields(keyvals)).Debug(msg)
}

func Debugf(format string, v ...interface{}) {
	log.Debugf(format, v...)
}

func Fatal(msg string) {
	log.Fatal(msg)
}

func Fatalf(format string, v ...interface{}) {
	log.Fatalf(format, v...)
}

func WithError(err error) *logrus.Entry {
	return log.WithError(err)
}

func WithFields(f map[string]interface{}) *logrus.Entry {
	return log.WithFields(logrus.Fields(f))
}
