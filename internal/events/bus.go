package events

import (
	"context"

	"surveyline/internal/domain"
)

// Bus fans committed events out to other processes.
type Bus interface {
	Publish(ctx context.Context, evt domain.Event) error
	Close() error
}

// NopBus drops every event.
type NopBus struct{}

func (NopBus) Publish(context.Context, domain.Event) error { return nil }
func (NopBus) Close() error                                { return nil }
