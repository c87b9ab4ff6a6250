package service

import (
	"context"
	"sync"
	"testing"

	"tripdesk/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAutomationRegistryDefaultsToManual(t *testing.T) {
	policy := NewAutomationRegistry("travel-assistant")

	record, err := policy.GetMode(context.Background(), "conv-1")
	require.NoError(t, err)
	assert.Equal(t, models.ModeManual, record.Mode)
	assert.Empty(t, record.AgentID)
	assert.True(t, record.UpdatedAt.IsZero(), "implicit default has no update time")
	assert.Equal(t, 0, policy.Count(), "querying must not create a record")
}

func TestAutomationRegistrySetMode(t *testing.T) {
	policy := NewAutomationRegistry("travel-assistant")
	ctx := context.Background()

	record, err := policy.SetMode(ctx, "conv-1", models.ModeAuto, "")
	require.NoError(t, err)
	assert.Equal(t, models.ModeAuto, record.Mode)
	assert.Equal(t, "travel-assistant", record.AgentID, "auto mode gets the default agent")
	assert.False(t, record.UpdatedAt.IsZero())

	record, err = policy.SetMode(ctx, "conv-1", models.ModeAssisted, "concierge")
	require.NoError(t, err)
	assert.Equal(t, models.ModeAssisted, record.Mode)
	assert.Equal(t, "concierge", record.AgentID)

	// Last write wins.
	got, err := policy.GetMode(ctx, "conv-1")
	require.NoError(t, err)
	assert.Equal(t, models.ModeAssisted, got.Mode)
	assert.Equal(t, 1, policy.Count())
}

func TestAutomationRegistryValidation(t *testing.T) {
	policy := NewAutomationRegistry("travel-assistant")
	ctx := context.Background()

	_, err := policy.SetMode(ctx, "", models.ModeAuto, "")
	assert.Error(t, err)

	_, err = policy.SetMode(ctx, "conv-1", models.AutomationMode("turbo"), "")
	assert.Error(t, err)
	assert.Equal(t, 0, policy.Count())
}

func TestAutomationRegistryIsAutoMode(t *testing.T) {
	policy := NewAutomationRegistry("travel-assistant")
	ctx := context.Background()

	auto, err := policy.IsAutoMode(ctx, "conv-1")
	require.NoError(t, err)
	assert.False(t, auto)

	_, err = policy.SetMode(ctx, "conv-1", models.ModeAuto, "")
	require.NoError(t, err)

	auto, err = policy.IsAutoMode(ctx, "conv-1")
	require.NoError(t, err)
	assert.True(t, auto)
}

func TestAutomationRegistryReturnsClones(t *testing.T) {
	policy := NewAutomationRegistry("travel-assistant")
	ctx := context.Background()

	record, err := policy.SetMode(ctx, "conv-1", models.ModeAuto, "")
	require.NoError(t, err)
	record.Mode = models.ModeManual

	got, err := policy.GetMode(ctx, "conv-1")
	require.NoError(t, err)
	assert.Equal(t, models.ModeAuto, got.Mode)
}

func TestAutomationRegistryConcurrency(t *testing.T) {
	policy := NewAutomationRegistry("travel-assistant")
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			id := string(rune('a' + n%5))
			if n%2 == 0 {
				_, _ = policy.SetMode(ctx, id, models.ModeAuto, "")
			} else {
				_, _ = policy.GetMode(ctx, id)
			}
		}(i)
	}
	wg.Wait()

	assert.LessOrEqual(t, policy.Count(), 5)
}
