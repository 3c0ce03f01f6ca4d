package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coursereq/internal/domain"
	"coursereq/pkg/sentinel"
)

func seedRequest(t *testing.T, store *RequestStore, id string, createdAt time.Time) {
	t.Helper()
	err := store.Insert(context.Background(), domain.Request{
		ID:        id,
		Type:      domain.RequestSwapSection,
		From:      "student@ust.hk",
		Class:     domain.Class{Course: domain.CourseID{Code: "COMP1023", Term: "2510"}, Section: "L1"},
		Details:   domain.RequestDetails{Reason: "clash"},
		CreatedAt: createdAt,
	})
	require.NoError(t, err)
}

func TestAttachResponseOnlyFirstWins(t *testing.T) {
	ctx := context.Background()
	store := NewRequestStore()
	seedRequest(t, store, "r1", time.Now())

	const attempts = 16
	var wg sync.WaitGroup
	errs := make([]error, attempts)
	for i := range attempts {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[i] = store.AttachResponse(ctx, "r1", domain.Response{
				From:     "prof@ust.hk",
				Decision: domain.DecisionApprove,
			})
		}()
	}
	wg.Wait()

	var wins int
	for _, err := range errs {
		if err == nil {
			wins++
		} else {
			assert.ErrorIs(t, err, sentinel.ErrInvalidState)
		}
	}
	assert.Equal(t, 1, wins)
}

func TestAttachResponseMissingRequest(t *testing.T) {
	store := NewRequestStore()
	err := store.AttachResponse(context.Background(), "dne", domain.Response{})
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestListVisibleToOrdersByRecency(t *testing.T) {
	ctx := context.Background()
	store := NewRequestStore()
	base := time.Date(2025, 9, 10, 12, 0, 0, 0, time.UTC)
	seedRequest(t, store, "old", base)
	seedRequest(t, store, "new", base.Add(time.Hour))

	requests, err := store.ListVisibleTo(ctx, "student@ust.hk", nil)
	require.NoError(t, err)
	require.Len(t, requests, 2)
	assert.Equal(t, "new", requests[0].ID)
	assert.Equal(t, "old", requests[1].ID)
}

func TestFindReturnsACopy(t *testing.T) {
	ctx := context.Background()
	store := NewRequestStore()
	seedRequest(t, store, "r1", time.Now())

	got, err := store.Find(ctx, "r1")
	require.NoError(t, err)
	got.Details.Reason = "mutated"

	again, err := store.Find(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, "clash", again.Details.Reason)
}
