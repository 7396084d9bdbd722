package strategy

import (
	"time"

	"github.com/rxtech-lab/argo-quant/internal/logger"
	"github.com/rxtech-lab/argo-quant/internal/types"
	"go.uber.org/zap"
)

// Note is a point of interest a strategy wants to surface, such as the reason
// behind a signal.
type Note struct {
	Strategy  string
	Asset     types.Asset
	Timestamp time.Time
	Message   string
}

// Notifier receives strategy notes.
type Notifier interface {
	Notify(note Note)
}

type NopNotifier struct{}

func (NopNotifier) Notify(Note) {}

// LogNotifier writes notes to the structured log.
type LogNotifier struct {
	logger *logger.Logger
}

func NewLogNotifier(log *logger.Logger) *LogNotifier {
	return &LogNotifier{logger: log.Named("notifier")}
}

func (n *LogNotifier) Notify(note Note) {
	n.logger.Info(note.Message,
		zap.String("strategy", note.Strategy),
		zap.String("asset", note.Asset.String()),
		zap.Time("timestamp", note.Timestamp),
	)
}

// RecordingNotifier keeps every note in memory.
type RecordingNotifier struct {
	notes []Note
}

func (n *RecordingNotifier) Notify(note Note) {
	n.notes = append(n.notes, note)
}

func (n *RecordingNotifier) Notes() []Note {
	return n.notes
}
