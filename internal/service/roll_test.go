package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mcosta87/eventos/internal/model"
	"github.com/mcosta87/eventos/internal/notifier"
	"github.com/mcosta87/eventos/internal/repository"
)

func TestRollEventOrdering(t *testing.T) {
	store := repository.NewMemoryStore()
	ledger := NewRegistrationService(store, store, notifier.NewOutbox(), NotificationConfig{}, zap.NewNop())
	rolls := NewRollService(store, store)
	ctx := context.Background()

	event := createEvent(t, store, "Minicurso Python", 10)
	for i := 0; i < 3; i++ {
		_, err := ledger.Register(ctx, event.ID, registerReq(fmt.Sprintf("P%d", i), fmt.Sprintf("p%d@example.com", i)))
		require.NoError(t, err)
	}

	rows, err := rolls.EventRoll(ctx, event.ID)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	// Oldest registration first.
	for i := 1; i < len(rows); i++ {
		assert.False(t, rows[i].RegisteredAt.Before(rows[i-1].RegisteredAt))
	}
	assert.Equal(t, "Minicurso Python", rows[0].EventTitle)

	_, err = rolls.EventRoll(ctx, "missing")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestRollSearch(t *testing.T) {
	store := repository.NewMemoryStore()
	ledger := NewRegistrationService(store, store, notifier.NewOutbox(), NotificationConfig{}, zap.NewNop())
	rolls := NewRollService(store, store)
	ctx := context.Background()

	first := createEvent(t, store, "Palestra A", 10)
	second := createEvent(t, store, "Workshop B", 10)

	_, err := ledger.Register(ctx, first.ID, registerReq("Ana", "ana@example.com"))
	require.NoError(t, err)
	_, err = ledger.Register(ctx, second.ID, registerReq("Bruno", "bruno@example.com"))
	require.NoError(t, err)

	all, err := rolls.Search(ctx, model.RollFilter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	// Newest registration first.
	for i := 1; i < len(all); i++ {
		assert.False(t, all[i].RegisteredAt.After(all[i-1].RegisteredAt))
	}

	byEvent, err := rolls.Search(ctx, model.RollFilter{EventID: first.ID})
	require.NoError(t, err)
	require.Len(t, byEvent, 1)
	assert.Equal(t, "ana@example.com", byEvent[0].AttendeeEmail)

	byQuery, err := rolls.Search(ctx, model.RollFilter{Query: "BRU"})
	require.NoError(t, err)
	require.Len(t, byQuery, 1)
	assert.Equal(t, "Bruno", byQuery[0].AttendeeName)

	paged, err := rolls.Search(ctx, model.RollFilter{Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, paged, 1)
	assert.Equal(t, all[1].AttendeeEmail, paged[0].AttendeeEmail)
}

func TestRollExportReturnsAllRows(t *testing.T) {
	store := repository.NewMemoryStore()
	rolls := NewRollService(store, store)
	ctx := context.Background()

	event := createEvent(t, store, "Maratona de Programação", 1200)
	for i := 0; i < 1005; i++ {
		_, _, err := store.Admit(ctx, event.ID, model.AttendeeProfile{
			Name:       fmt.Sprintf("P%04d", i),
			Email:      fmt.Sprintf("p%04d@example.com", i),
			Phone:      "11999990000",
			Assistance: model.AssistanceNone,
		})
		require.NoError(t, err)
	}

	// The interactive search stays capped.
	capped, err := rolls.Search(ctx, model.RollFilter{})
	require.NoError(t, err)
	assert.Len(t, capped, defaultRollLimit)

	// The export pages through the whole ledger, spanning several batches.
	exported, err := rolls.Export(ctx, model.RollFilter{})
	require.NoError(t, err)
	assert.Len(t, exported, 1005)

	// Filters still apply to exports.
	byQuery, err := rolls.Export(ctx, model.RollFilter{Query: "p0000"})
	require.NoError(t, err)
	require.Len(t, byQuery, 1)
	assert.Equal(t, "p0000@example.com", byQuery[0].AttendeeEmail)
}
