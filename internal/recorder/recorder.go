package recorder

import (
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ReadingEvent is one generated report.
type ReadingEvent struct {
	ID          string
	Kind        string
	Subject     string // profile or person name, may be empty
	Query       string // place as typed
	Location    string // resolved place name
	Lat         float64
	Lon         float64
	Fallback    bool
	SunSign     string
	MoonSign    string
	Rising      string
	Unavailable []string
	Text        string
	CreatedAt   time.Time
}

// DeliveryEvent records one attempt to push a reading to a chat.
type DeliveryEvent struct {
	ReadingID string
	Channel   string // "telegram"
	Target    string
	OK        bool
	Error     string
	CreatedAt time.Time
}

// Recorder persists reading history.
type Recorder interface {
	RecordReading(evt *ReadingEvent) error
	RecordDelivery(evt *DeliveryEvent) error
	Recent(limit int) ([]ReadingEvent, error)
	Close() error
}

// NewID returns a fresh reading id.
func NewID() string { return uuid.NewString() }

// Open returns a SQLite recorder, or a no-op one when path is empty or the
// database cannot be opened.
func Open(path string, logger *zap.Logger) Recorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	if path == "" {
		return NewNoopRecorder()
	}
	r, err := NewSQLiteRecorder(path, logger)
	if err != nil {
		logger.Warn("history disabled, sqlite open failed", zap.String("path", path), zap.Error(err))
		return NewNoopRecorder()
	}
	return r
}

func stamp(ts *time.Time) {
	if ts.IsZero() {
		*ts = time.Now().UTC()
	}
}
