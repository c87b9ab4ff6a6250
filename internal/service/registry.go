package service

import (
	"context"
	"fmt"
	"sync"

	"tripdesk/internal/models"
)

// Adapter translates between the hub's canonical message shape and one
// provider's wire protocol. Implementations never raise provider failures;
// they report them in the returned result.
type Adapter interface {
	Channel() models.Channel
	Connect(ctx context.Context) models.ConnectResult
	Send(ctx context.Context, externalChatID, text string, opts models.SendOptions) models.SendResult
	Status() models.AdapterStatus
}

// ChannelRegistry resolves adapters by channel identifier. The set of
// channels is closed at construction; adding a provider means registering
// one more adapter, not branching in the hub.
type ChannelRegistry struct {
	adapters map[models.Channel]Adapter
	ordered  []models.Channel
	mu       sync.RWMutex
}

func NewChannelRegistry(adapters ...Adapter) (*ChannelRegistry, error) {
	r := &ChannelRegistry{
		adapters: make(map[models.Channel]Adapter),
		ordered:  make([]models.Channel, 0, len(adapters)),
	}

	for _, adapter := range adapters {
		ch := adapter.Channel()
		if _, exists := r.adapters[ch]; exists {
			return nil, fmt.Errorf("duplicate adapter for channel: %s", ch)
		}
		r.adapters[ch] = adapter
		r.ordered = append(r.ordered, ch)
	}

	if len(r.adapters) == 0 {
		return nil, fmt.Errorf("no channel adapters registered")
	}

	return r, nil
}

// Get returns the adapter for a channel.
func (r *ChannelRegistry) Get(channel models.Channel) (Adapter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	adapter, exists := r.adapters[channel]
	if !exists {
		return nil, fmt.Errorf("no adapter registered for channel: %s", channel)
	}
	return adapter, nil
}

// Channels returns the registered channels in registration order.
func (r *ChannelRegistry) Channels() []models.Channel {
	r.mu.RLock()
	defer r.mu.RUnlock()

	channels := make([]models.Channel, len(r.ordered))
	copy(channels, r.ordered)
	return channels
}

// Count returns the number of registered adapters.
func (r *ChannelRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.adapters)
}
