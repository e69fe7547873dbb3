package logging

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger is the side-channel observer the services write to. It never
// influences control flow; *logrus.Logger satisfies it, and tests inject
// the no-op implementation from NewNop.
type Logger interface {
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

var instance = logrus.New()
var once sync.Once

// CustomFormatter renders entries as comma-separated key/value pairs with a
// generated event ID, matching the format the log pipeline expects.
type CustomFormatter struct {
	SystemName string
}

func (f *CustomFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	var b *bytes.Buffer
	if entry.Buffer != nil {
		b = entry.Buffer
	} else {
		b = &bytes.Buffer{}
	}

	b.WriteString(fmt.Sprintf("Date: %s, Time: %s, ", entry.Time.Format("2006-01-02"), entry.Time.Format("15:04:05")))
	b.WriteString(fmt.Sprintf("Event Source: %s, ", f.SystemName))
	b.WriteString(fmt.Sprintf("Event Type: %s, ", strings.ToUpper(entry.Level.String())))
	b.WriteString(fmt.Sprintf("Event ID: %s, ", uuid.New().String()))
	b.WriteString(fmt.Sprintf("Message: %s", entry.Message))

	if entry.HasCaller() {
		b.WriteString(fmt.Sprintf(", Location: %s:%d in %s", entry.Caller.File, entry.Caller.Line, entry.Caller.Function))
	}

	b.WriteByte('\n')
	return b.Bytes(), nil
}

// Init configures the shared logger: rotating file output, console mirror in
// development, caller reporting. Safe to call more than once.
func Init() *logrus.Logger {
	once.Do(func() {
		logFile := &lumberjack.Logger{
			Filename:   "logs/ober-api.log",
			MaxSize:    10, // megabytes
			MaxBackups: 3,
			MaxAge:     28, // days
			Compress:   true,
		}

		out := io.Writer(logFile)
		if os.Getenv("APP_ENV") == "development" {
			out = io.MultiWriter(logFile, os.Stdout)
		}

		instance.SetOutput(out)
		instance.SetFormatter(&CustomFormatter{SystemName: "ober-api"})
		instance.SetLevel(logrus.InfoLevel)
		instance.SetReportCaller(true)

		instance.Infof("Event ID: LOGGER_INITIALIZED, Description: Logger initialized, output to: %s", logFile.Filename)
	})
	return instance
}

// NewNop returns a logger that discards everything. Used by tests.
func NewNop() Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}
