package pubsub

import "context"

// NopPubSub discards every event. It backs the "none" driver.
type NopPubSub struct{}

func (NopPubSub) Publish(context.Context, string, *Event) error { return nil }

func (NopPubSub) Close() error { return nil }
