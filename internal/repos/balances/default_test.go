package balances

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubStore struct {
	data   map[string]int64
	getErr error
	setErr error
	sets   int
}

func (s *stubStore) Get(_ context.Context, userID string) (int64, error) {
	if s.getErr != nil {
		return 0, s.getErr
	}

	v, ok := s.data[userID]
	if !ok {
		return 0, ErrNotFound
	}

	return v, nil
}

func (s *stubStore) Set(_ context.Context, userID string, amount int64) error {
	if s.setErr != nil {
		return s.setErr
	}

	s.sets++
	s.data[userID] = amount

	return nil
}

func TestWithDefault_Get(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		store *stubStore
		user  string
		want  int64
	}{
		{
			name:  "stored_value",
			store: &stubStore{data: map[string]int64{"u1": 42}},
			user:  "u1",
			want:  42,
		},
		{
			name:  "unknown_user_reads_opening",
			store: &stubStore{data: map[string]int64{}},
			user:  "ghost",
			want:  1000,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := WithDefault(tt.store, 1000).Get(t.Context(), tt.user)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestWithDefault_StoreErrorIsReturned(t *testing.T) {
	t.Parallel()

	down := errors.New("i/o timeout")
	store := &stubStore{data: map[string]int64{"u1": 42}, getErr: down}

	got, err := WithDefault(store, 1000).Get(t.Context(), "u1")
	require.ErrorIs(t, err, down)
	assert.NotEqual(t, int64(1000), got)
	assert.Zero(t, store.sets)
}

func TestWithDefault_GetDoesNotPersist(t *testing.T) {
	t.Parallel()

	store := &stubStore{data: map[string]int64{}}
	b := WithDefault(store, 1000)

	_, err := b.Get(t.Context(), "new-user")
	require.NoError(t, err)

	assert.Zero(t, store.sets)
	assert.NotContains(t, store.data, "new-user")

	require.NoError(t, b.Set(t.Context(), "new-user", 700))
	assert.Equal(t, int64(700), store.data["new-user"])
}

func TestWithDefault_SetErrorPassesThrough(t *testing.T) {
	t.Parallel()

	boom := errors.New("write failed")
	b := WithDefault(&stubStore{data: map[string]int64{}, setErr: boom}, 1000)

	err := b.Set(t.Context(), "u1", 1)
	assert.ErrorIs(t, err, boom)
}
