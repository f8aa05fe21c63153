package repository

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pulsetrack/attendance-api/internal/models"
	"github.com/pulsetrack/attendance-api/internal/recordstore"
)

func TestSessionCreateConcurrentAllocatesDistinctIDs(t *testing.T) {
	store := recordstore.NewMemory()
	repo := NewSessionRepository(store)
	ctx := context.Background()

	const writers = 16
	var wg sync.WaitGroup
	wg.Add(writers)
	for i := 0; i < writers; i++ {
		go func(n int) {
			defer wg.Done()
			_, err := repo.Create(ctx, models.Session{Name: fmt.Sprintf("Session %d", n)})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	sessions, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, sessions, writers)

	seen := make(map[int]struct{}, writers)
	for _, session := range sessions {
		_, dup := seen[session.ID]
		assert.False(t, dup, "id %d allocated twice", session.ID)
		seen[session.ID] = struct{}{}
	}
}
