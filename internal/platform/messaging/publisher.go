package messaging

import (
	"context"
	"errors"

	"github.com/Yunusinusah/offline-voting/internal/shared/events"
)

// Publisher delivers one envelope on a topic.
type Publisher interface {
	Publish(ctx context.Context, topic string, event events.Envelope) error
}

// Fanout publishes to every target and joins their errors. One failing
// transport does not stop delivery to the others.
type Fanout []Publisher

func (f Fanout) Publish(ctx context.Context, topic string, event events.Envelope) error {
	var errs []error
	for _, target := range f {
		if target == nil {
			continue
		}
		if err := target.Publish(ctx, topic, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
