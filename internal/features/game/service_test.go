package game

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"winbingo.dev/bingo-bot/internal/common"
)

// fakeLedger записывает все денежные операции для проверок.
type fakeLedger struct {
	debits  []ledgerOp
	credits []ledgerOp
	coins   []ledgerOp

	debitErr error
	onDebit  func() // вызывается после успешного списания
}

type ledgerOp struct {
	userID int64
	amount int64
	kind   string
}

func (f *fakeLedger) Debit(ctx context.Context, userID int64, amount int64, kind, description string) error {
	if f.debitErr != nil {
		return f.debitErr
	}
	f.debits = append(f.debits, ledgerOp{userID, amount, kind})
	if f.onDebit != nil {
		f.onDebit()
	}
	return nil
}

func (f *fakeLedger) Credit(ctx context.Context, userID int64, amount int64, kind, description string) error {
	f.credits = append(f.credits, ledgerOp{userID, amount, kind})
	return nil
}

func (f *fakeLedger) AwardCoins(ctx context.Context, userID int64, coins int64) error {
	f.coins = append(f.coins, ledgerOp{userID: userID, amount: coins})
	return nil
}

func newTestService(t *testing.T) (*Service, *fakeLedger) {
	t.Helper()
	registry := NewRegistry([]int64{1000, 2500}, testRoomConfig, time.Now())
	fl := &fakeLedger{}
	return NewService(registry, fl, 1), fl
}

func TestServiceJoinDebitsStake(t *testing.T) {
	svc, fl := newTestService(t)

	res, err := svc.Join(context.Background(), 1, 1000, 7)
	require.NoError(t, err)
	assert.Equal(t, 7, res.BoardNumber)

	require.Len(t, fl.debits, 1)
	assert.Equal(t, ledgerOp{1, 1000, KindStake}, fl.debits[0])
	assert.Empty(t, fl.credits)
}

func TestServiceJoinUnknownStake(t *testing.T) {
	svc, fl := newTestService(t)

	_, err := svc.Join(context.Background(), 1, 777, 7)
	assert.ErrorIs(t, err, common.ErrUnknownStake)
	assert.Empty(t, fl.debits, "ставка не списывается")
}

func TestServiceJoinInsufficientFunds(t *testing.T) {
	svc, fl := newTestService(t)
	fl.debitErr = common.ErrInsufficientFunds

	_, err := svc.Join(context.Background(), 1, 1000, 7)
	assert.ErrorIs(t, err, common.ErrInsufficientFunds)
	assert.Empty(t, fl.credits, "возврата без списания нет")
}

func TestServiceJoinRefundsOnTakenBoard(t *testing.T) {
	svc, fl := newTestService(t)

	_, err := svc.Join(context.Background(), 1, 1000, 7)
	require.NoError(t, err)

	// Второй игрок метит в занятую карточку: списание было, место нет
	_, err = svc.Join(context.Background(), 2, 1000, 7)
	assert.ErrorIs(t, err, common.ErrBoardTaken)

	require.Len(t, fl.debits, 2)
	require.Len(t, fl.credits, 1, "ставка возвращена")
	assert.Equal(t, ledgerOp{2, 1000, KindAdjust}, fl.credits[0])
}

func TestServiceJoinIdempotentNoSecondDebit(t *testing.T) {
	svc, fl := newTestService(t)

	_, err := svc.Join(context.Background(), 1, 1000, 7)
	require.NoError(t, err)

	res, err := svc.Join(context.Background(), 1, 1000, 7)
	require.NoError(t, err)
	assert.True(t, res.AlreadyJoined)
	assert.Len(t, fl.debits, 1, "повторный вход не списывает ставку")
}

func TestServiceJoinConcurrentRetryRefunded(t *testing.T) {
	svc, fl := newTestService(t)
	room := svc.Registry().Room(1000)

	// Параллельный повтор той же команды занимает место, пока первое
	// списание ещё идёт: ростер меняется между проверкой и входом
	fl.onDebit = func() {
		_, err := room.Join(1, 7, time.Now())
		require.NoError(t, err)
	}

	res, err := svc.Join(context.Background(), 1, 1000, 7)
	require.NoError(t, err)
	assert.True(t, res.AlreadyJoined)
	assert.Equal(t, 7, res.BoardNumber)

	// Билет продан один раз: второе списание возвращено
	require.Len(t, fl.debits, 1)
	require.Len(t, fl.credits, 1)
	assert.Equal(t, ledgerOp{1, 1000, KindAdjust}, fl.credits[0])
}

func TestServiceTickDoesNotBlockOnNotify(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Join(ctx, 1, 1000, 3)
	require.NoError(t, err)
	_, err = svc.Join(ctx, 2, 1000, 4)
	require.NoError(t, err)

	// Отправки висят на закрытом канале: синхронный Tick здесь бы завис
	block := make(chan struct{})
	var mu sync.Mutex
	notified := make(map[int64]bool)
	var wg sync.WaitGroup
	wg.Add(2)
	svc.SetNotifyFunc(func(userID int64, text string) {
		<-block
		mu.Lock()
		notified[userID] = true
		mu.Unlock()
		wg.Done()
	})

	svc.Tick(time.Now().Add(testRoomConfig.JoinWindow + time.Second))

	close(block)
	wg.Wait()
	mu.Lock()
	defer mu.Unlock()
	assert.True(t, notified[1])
	assert.True(t, notified[2])
}

func TestServiceClaimNotifiesRoster(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Join(ctx, 1, 1000, 7)
	require.NoError(t, err)
	_, err = svc.Join(ctx, 2, 1000, 8)
	require.NoError(t, err)

	// Доводим раунд до полного набора номеров напрямую через зал,
	// чтобы события тиков не попадали в уведомления
	room := svc.Registry().Room(1000)
	clock := time.Now().Add(testRoomConfig.JoinWindow + time.Second)
	room.Tick(clock)
	for i := 0; i < MaxNumber; i++ {
		clock = clock.Add(testRoomConfig.CallInterval)
		room.Tick(clock)
	}

	var mu sync.Mutex
	var got []int64
	var wg sync.WaitGroup
	wg.Add(1)
	svc.SetNotifyFunc(func(userID int64, text string) {
		mu.Lock()
		got = append(got, userID)
		mu.Unlock()
		wg.Done()
	})

	result, err := svc.Claim(ctx, 1, 1000, NewCard(7).Numbers())
	require.NoError(t, err)
	assert.ElementsMatch(t, []int64{1, 2}, result.Members)

	wg.Wait()
	mu.Lock()
	defer mu.Unlock()
	require.Len(t, got, 1, "о победе сообщается остальному ростеру")
	assert.Equal(t, int64(2), got[0])
}

func TestServiceClaimPaysPotAndCoins(t *testing.T) {
	svc, fl := newTestService(t)
	ctx := context.Background()

	_, err := svc.Join(ctx, 1, 1000, 7)
	require.NoError(t, err)

	// Доводим раунд до полного набора номеров
	room := svc.Registry().Room(1000)
	start := time.Now()
	clock := start.Add(testRoomConfig.JoinWindow + time.Second)
	room.Tick(clock)
	for i := 0; i < MaxNumber; i++ {
		clock = clock.Add(testRoomConfig.CallInterval)
		room.Tick(clock)
	}

	result, err := svc.Claim(ctx, 1, 1000, NewCard(7).Numbers())
	require.NoError(t, err)
	assert.Equal(t, int64(800), result.Pot)

	require.Len(t, fl.credits, 1)
	assert.Equal(t, ledgerOp{1, 800, KindWin}, fl.credits[0])

	// 10 быр ставки × 1 монета за быр
	require.Len(t, fl.coins, 1)
	assert.Equal(t, int64(10), fl.coins[0].amount)
}

func TestServiceSnapshotUnknownStake(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Snapshot(777)
	assert.ErrorIs(t, err, common.ErrUnknownStake)

	snaps := svc.Snapshots()
	require.Len(t, snaps, 2)
	assert.Equal(t, int64(1000), snaps[0].Stake, "залы отсортированы по ставке")
	assert.Equal(t, int64(2500), snaps[1].Stake)
}
