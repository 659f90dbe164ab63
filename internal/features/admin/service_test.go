package admin

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"winbingo.dev/bingo-bot/internal/common"
	"winbingo.dev/bingo-bot/internal/config"
)

func newTestAdminService() *Service {
	cfg := &config.Config{AdminIDs: []int64{1, 2}}
	return NewService(nil, cfg, nil, nil, nil, nil)
}

func TestIsAdmin(t *testing.T) {
	svc := newTestAdminService()

	assert.True(t, svc.IsAdmin(1))
	assert.True(t, svc.IsAdmin(2))
	assert.False(t, svc.IsAdmin(3))
}

func TestVerifyPasswordRejectsNonAdmin(t *testing.T) {
	svc := newTestAdminService()

	// Посторонний отсекается до обращений к базе и проверки хеша
	err := svc.VerifyPassword(context.Background(), 99, "пароль")
	assert.ErrorIs(t, err, common.ErrNotAdmin)
}

func TestDialogStateLifecycle(t *testing.T) {
	svc := newTestAdminService()

	assert.Nil(t, svc.GetState(1))

	svc.SetState(1, StateCreditInput, nil)
	state := svc.GetState(1)
	if assert.NotNil(t, state) {
		assert.Equal(t, StateCreditInput, state.State)
	}

	svc.ClearState(1)
	assert.Nil(t, svc.GetState(1))
}
