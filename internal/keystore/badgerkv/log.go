package badgerkv

import (
	"strings"

	logger "github.com/PolarWolf314/lockbox/internal/logging"
)

// badgerLogger routes badger's internal logging to the lockbox logger.
// Badger is chatty at info level, so info goes to debug.
type badgerLogger struct {
	l logger.Logger
}

func (b badgerLogger) Errorf(format string, args ...interface{}) {
	b.l.Errorf("badger: "+strings.TrimSuffix(format, "\n"), args...)
}

func (b badgerLogger) Warningf(format string, args ...interface{}) {
	b.l.Warnf("badger: "+strings.TrimSuffix(format, "\n"), args...)
}

func (b badgerLogger) Infof(format string, args ...interface{}) {
	b.l.Debugf("badger: "+strings.TrimSuffix(format, "\n"), args...)
}

func (b badgerLogger) Debugf(format string, args ...interface{}) {
	b.l.Debugf("badger: "+strings.TrimSuffix(format, "\n"), args...)
}
