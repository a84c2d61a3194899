package recorder

// NoopRecorder is used when SQLite is not configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordReading(_ *ReadingEvent) error   { return nil }
func (n *NoopRecorder) RecordDelivery(_ *DeliveryEvent) error { return nil }
func (n *NoopRecorder) Recent(_ int) ([]ReadingEvent, error)  { return nil, nil }
func (n *NoopRecorder) Close() error                          { return nil }

