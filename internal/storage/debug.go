package storage

import (
	"github.com/sirupsen/logrus"
)

type logger struct {
	entry           *logrus.Entry
	debuggerEnabled bool
}

// d is the storage tracer; silent unless Config.Debugger is set
func (s *storage) d(format string, args ...interface{}) {
	s.log.debug(format, args...)
}

func (l *logger) debug(format string, args ...interface{}) {
	if l.debuggerEnabled && l.entry != nil {
		l.entry.Debugf(format, args...)
	}
}

// warn is always on; used when the cache misbehaves and we fall back to the db
func (l *logger) warn(err error, format string, args ...interface{}) {
	if l.entry != nil {
		l.entry.WithError(err).Warnf(format, args...)
	}
}
