// Package logger hands out named logrus loggers sharing one configuration.
package logger

import (
	"io"
	"os"
	"sync"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

type Options struct {
	Level  string
	Format string
	File   string
}

var (
	mu      sync.Mutex
	opts    = Options{Level: "info", Format: "text"}
	output  io.Writer = os.Stdout
	loggers = make(map[string]*logrus.Logger)
)

// Init applies options to every logger, including ones already handed out.
func Init(o Options) {
	mu.Lock()
	defer mu.Unlock()

	opts = o
	output = os.Stdout
	if o.File != "" {
		output = io.MultiWriter(os.Stdout, &lumberjack.Logger{
			Filename:   o.File,
			MaxSize:    50,
			MaxBackups: 5,
			MaxAge:     14,
			Compress:   true,
		})
	}
	for _, l := range loggers {
		configure(l)
	}
}

// Get returns the logger registered under name, creating it on first use.
func Get(name string) *logrus.Entry {
	mu.Lock()
	defer mu.Unlock()

	l, ok := loggers[name]
	if !ok {
		l = logrus.New()
		configure(l)
		loggers[name] = l
	}
	return l.WithField("component", name)
}

func configure(l *logrus.Logger) {
	level, err := logrus.ParseLevel(opts.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	l.SetLevel(level)
	l.SetOutput(output)
	if opts.Format == "json" {
		l.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02 15:04:05.000",
			FieldMap: logrus.FieldMap{
				logrus.FieldKeyTime: "timestamp",
				logrus.FieldKeyMsg:  "message",
			},
		})
		return
	}
	l.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05.000",
	})
}
