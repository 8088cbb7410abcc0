package bus

import (
	"time"

	"github.com/zeusync/snapshot/internal/core/observability/log"
	"github.com/zeusync/snapshot/internal/core/snapshot"
)

var _ snapshot.Observer = (*SnapshotObserver)(nil)

// SnapshotObserver publishes engine calls on a bus. Handler errors cannot
// fail the call that is already over, they are logged.
type SnapshotObserver struct {
	bus    EventBus
	logger log.Log
}

func NewSnapshotObserver(bus EventBus, logger log.Log) *SnapshotObserver {
	if logger == nil {
		logger = log.NewNop()
	}
	return &SnapshotObserver{bus: bus, logger: logger.With(log.String("component", "bus"))}
}

func (o *SnapshotObserver) OnSave(report snapshot.SaveReport, err error) {
	eventType := EventSaved
	if err != nil {
		eventType = EventSaveFailed
	}
	o.publish(Event{Type: eventType, Session: report.Session, Timestamp: time.Now(), Data: report, Err: err})
}

func (o *SnapshotObserver) OnLoad(report snapshot.LoadReport, err error) {
	eventType := EventLoaded
	if err != nil {
		eventType = EventLoadFailed
	}
	o.publish(Event{Type: eventType, Session: report.Session, Timestamp: time.Now(), Data: report, Err: err})
}

func (o *SnapshotObserver) publish(event Event) {
	if err := o.bus.Publish(event); err != nil {
		o.logger.Warn("event handler failed",
			log.String("event", event.Type),
			log.String("session", event.Session),
			log.Error(err))
	}
}
