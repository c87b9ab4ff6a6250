package service

import (
	"testing"

	"tripdesk/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewChannelRegistry(t *testing.T) {
	tg := newMockAdapter(models.ChannelTelegram)
	wz := newMockAdapter(models.ChannelWazzup)

	registry, err := NewChannelRegistry(tg, wz)
	require.NoError(t, err)
	assert.Equal(t, 2, registry.Count())
	assert.Equal(t, []models.Channel{models.ChannelTelegram, models.ChannelWazzup}, registry.Channels())

	got, err := registry.Get(models.ChannelTelegram)
	require.NoError(t, err)
	assert.Same(t, tg, got)
}

func TestNewChannelRegistryRejectsDuplicates(t *testing.T) {
	_, err := NewChannelRegistry(
		newMockAdapter(models.ChannelTelegram),
		newMockAdapter(models.ChannelTelegram),
	)
	assert.Error(t, err)
}

func TestNewChannelRegistryRequiresAdapters(t *testing.T) {
	_, err := NewChannelRegistry()
	assert.Error(t, err)
}

func TestChannelRegistryGetUnknown(t *testing.T) {
	registry, err := NewChannelRegistry(newMockAdapter(models.ChannelTelegram))
	require.NoError(t, err)

	_, err = registry.Get(models.ChannelWazzup)
	assert.Error(t, err)
}
