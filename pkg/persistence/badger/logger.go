package badger

import (
	"strings"

	badgerdb "github.com/dgraph-io/badger/v3"
	"go.uber.org/zap"
)

var _ badgerdb.Logger = (*journalLogger)(nil)

// journalLogger routes badger's printf style output through zap. Badger's
// informational chatter is demoted to debug so it stays out of CLI output.
type journalLogger struct {
	sugar *zap.SugaredLogger
}

func newJournalLogger(l *zap.Logger) *journalLogger {
	return &journalLogger{sugar: l.With(zap.String("component", "badger")).Sugar()}
}

func (j *journalLogger) Errorf(format string, args ...interface{}) {
	j.sugar.Errorf(strings.TrimSpace(format), args...)
}

func (j *journalLogger) Warningf(format string, args ...interface{}) {
	j.sugar.Warnf(strings.TrimSpace(format), args...)
}

func (j *journalLogger) Infof(format string, args ...interface{}) {
	j.sugar.Debugf(strings.TrimSpace(format), args...)
}

func (j *journalLogger) Debugf(format string, args ...interface{}) {
	j.sugar.Debugf(strings.TrimSpace(format), args...)
}
