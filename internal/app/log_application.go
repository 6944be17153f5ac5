package app

import (
	"time"

	"github.com/grovetools/termestra/internal/framer"
	"github.com/grovetools/termestra/logging"
	"github.com/sirupsen/logrus"
)

// LogApplication logs every session event.
type LogApplication struct {
	logger *logrus.Entry
	ticks  int
}

// NewLogApplication logs through logger, or the "app" component logger when
// nil.
func NewLogApplication(logger *logrus.Entry) *LogApplication {
	if logger == nil {
		logger = logging.NewLogger("app")
	}
	return &LogApplication{logger: logger}
}

func (l *LogApplication) ConnMade(name string) {
	l.logger.Infof("Connected: '%s'", name)
}

func (l *LogApplication) ConnLost(name string, err error) {
	if err != nil {
		l.logger.WithError(err).Warnf("Disconnected: '%s'", name)
		return
	}
	l.logger.Infof("Disconnected: '%s'", name)
}

func (l *LogApplication) DataReceived(name string, lines []framer.Line, elapsed time.Duration) {
	if !l.logger.Logger.IsLevelEnabled(logrus.DebugLevel) {
		return
	}
	for _, line := range lines {
		l.logger.WithFields(logrus.Fields{
			"session": name,
			"elapsed": elapsed.String(),
			"partial": line.Partial,
		}).Debugf("DataReceived: %q", line.Text)
	}
}

func (l *LogApplication) Housekeeping() {
	l.ticks++
	l.logger.WithField("tick", l.ticks).Info("Housekeeping")
}
