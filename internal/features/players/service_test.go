package players

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"winbingo.dev/bingo-bot/internal/common"
)

// fakeStore — in-memory реализация Store для тестов сервиса.
type fakeStore struct {
	players map[int64]*Player
	creates int
	updates []UpdateInfo
}

func newFakeStore() *fakeStore {
	return &fakeStore{players: make(map[int64]*Player)}
}

func (f *fakeStore) Create(ctx context.Context, p *Player) error {
	f.creates++
	f.players[p.UserID] = p
	return nil
}

func (f *fakeStore) GetByUserID(ctx context.Context, userID int64) (*Player, error) {
	p, ok := f.players[userID]
	if !ok {
		return nil, common.ErrUnknownRecipient
	}
	return p, nil
}

func (f *fakeStore) GetByUsername(ctx context.Context, username string) (*Player, error) {
	for _, p := range f.players {
		if p.Username == username {
			return p, nil
		}
	}
	return nil, common.ErrUnknownRecipient
}

func (f *fakeStore) Exists(ctx context.Context, userID int64) (bool, error) {
	_, ok := f.players[userID]
	return ok, nil
}

func (f *fakeStore) IsRegistered(ctx context.Context, userID int64) (bool, error) {
	p, ok := f.players[userID]
	return ok && p.IsRegistered, nil
}

func (f *fakeStore) Register(ctx context.Context, userID int64, phone string) (bool, error) {
	p, ok := f.players[userID]
	if !ok || p.IsRegistered {
		return false, nil
	}
	p.IsRegistered = true
	p.Phone = &phone
	return true, nil
}

func (f *fakeStore) UpdateInfo(ctx context.Context, userID int64, info UpdateInfo) error {
	f.updates = append(f.updates, info)
	if p, ok := f.players[userID]; ok {
		p.Username = info.Username
		p.FirstName = info.FirstName
		p.LastName = info.LastName
	}
	return nil
}

func (f *fakeStore) SetBanned(ctx context.Context, userID int64, banned bool) error {
	if p, ok := f.players[userID]; ok {
		p.IsBanned = banned
	}
	return nil
}

func TestEnsurePlayerCreatesOnce(t *testing.T) {
	fs := newFakeStore()
	svc := NewService(fs)
	ctx := context.Background()

	require.NoError(t, svc.EnsurePlayer(ctx, 1, "alice", "Алиса", ""))
	assert.Equal(t, 1, fs.creates)
	assert.Empty(t, fs.updates)
}

func TestEnsurePlayerRefreshesReturning(t *testing.T) {
	fs := newFakeStore()
	svc := NewService(fs)
	ctx := context.Background()

	require.NoError(t, svc.EnsurePlayer(ctx, 1, "alice", "Алиса", ""))

	// Игрок вернулся с новым username — запись освежается без пересоздания
	require.NoError(t, svc.EnsurePlayer(ctx, 1, "alice_new", "Алиса", "К."))
	assert.Equal(t, 1, fs.creates)
	require.Len(t, fs.updates, 1)
	assert.Equal(t, "alice_new", fs.updates[0].Username)
	assert.Equal(t, "alice_new", fs.players[1].Username)
}

func TestRequireRegistered(t *testing.T) {
	fs := newFakeStore()
	svc := NewService(fs)
	ctx := context.Background()

	require.NoError(t, svc.EnsurePlayer(ctx, 1, "alice", "Алиса", ""))
	assert.ErrorIs(t, svc.RequireRegistered(ctx, 1), common.ErrNotRegistered)

	registered, err := svc.Register(ctx, 1, "+251911234567")
	require.NoError(t, err)
	assert.True(t, registered)
	assert.NoError(t, svc.RequireRegistered(ctx, 1))
}

func TestRegisterIdempotent(t *testing.T) {
	fs := newFakeStore()
	svc := NewService(fs)
	ctx := context.Background()

	require.NoError(t, svc.EnsurePlayer(ctx, 1, "alice", "Алиса", ""))

	registered, err := svc.Register(ctx, 1, "+251911234567")
	require.NoError(t, err)
	assert.True(t, registered)

	// Повторная регистрация — no-op, бонус второй раз не положен
	registered, err = svc.Register(ctx, 1, "+251911234567")
	require.NoError(t, err)
	assert.False(t, registered)
}
