package game

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"winbingo.dev/bingo-bot/internal/common"
)

var testRoomConfig = RoomConfig{
	PayoutFraction: 0.8,
	CallInterval:   5 * time.Second,
	JoinWindow:     45 * time.Second,
	BoardCount:     100,
}

func newTestRoom(t *testing.T) (*Room, time.Time) {
	t.Helper()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	return NewRoom(1000, testRoomConfig, now), now // ставка 10 быр
}

func TestRoomJoin(t *testing.T) {
	room, now := newTestRoom(t)

	res, err := room.Join(1, 7, now)
	require.NoError(t, err)
	assert.Equal(t, 7, res.BoardNumber)
	assert.False(t, res.AlreadyJoined)
	assert.True(t, room.HasPlayer(1))
}

func TestRoomJoinIdempotent(t *testing.T) {
	room, now := newTestRoom(t)

	_, err := room.Join(1, 7, now)
	require.NoError(t, err)

	// Повторный вход — no-op даже с другим номером карточки
	res, err := room.Join(1, 9, now)
	require.NoError(t, err)
	assert.True(t, res.AlreadyJoined)
	assert.Equal(t, 7, res.BoardNumber, "карточка остаётся прежней")
}

func TestRoomJoinBoardTaken(t *testing.T) {
	room, now := newTestRoom(t)

	_, err := room.Join(1, 7, now)
	require.NoError(t, err)

	_, err = room.Join(2, 7, now)
	assert.ErrorIs(t, err, common.ErrBoardTaken)
}

func TestRoomJoinBadBoardNumber(t *testing.T) {
	room, now := newTestRoom(t)

	_, err := room.Join(1, 0, now)
	assert.ErrorIs(t, err, common.ErrBadBoardNumber)

	_, err = room.Join(1, 101, now)
	assert.ErrorIs(t, err, common.ErrBadBoardNumber)
}

func TestRoomJoinDuringRound(t *testing.T) {
	room, now := newTestRoom(t)

	_, err := room.Join(1, 7, now)
	require.NoError(t, err)

	events := room.Tick(now.Add(46 * time.Second))
	require.Len(t, events, 1)
	require.Equal(t, EventStarted, events[0].Kind)

	_, err = room.Join(2, 8, now.Add(47*time.Second))
	assert.ErrorIs(t, err, common.ErrRoundInProgress)
}

func TestRoomEmptyDoesNotStart(t *testing.T) {
	room, now := newTestRoom(t)

	events := room.Tick(now.Add(time.Minute))
	assert.Empty(t, events, "пустой зал не стартует")

	snap := room.Snapshot()
	assert.Equal(t, StatusWaiting, snap.Status)
}

func TestRoomPotFrozenAtStart(t *testing.T) {
	room, now := newTestRoom(t)

	for i := int64(1); i <= 3; i++ {
		_, err := room.Join(i, int(i), now)
		require.NoError(t, err)
	}

	events := room.Tick(now.Add(46 * time.Second))
	require.Len(t, events, 1)
	// 3 игрока × 10 быр × 0.8 = 24 быра
	assert.Equal(t, int64(2400), events[0].Pot)
	assert.Equal(t, 3, events[0].Players)
}

func TestRoomCallsWithoutReplacement(t *testing.T) {
	room, now := newTestRoom(t)
	_, err := room.Join(1, 7, now)
	require.NoError(t, err)

	clock := now.Add(46 * time.Second)
	room.Tick(clock) // старт

	seen := map[int]bool{}
	for i := 0; i < MaxNumber; i++ {
		clock = clock.Add(5 * time.Second)
		events := room.Tick(clock)
		require.Len(t, events, 1)
		require.Equal(t, EventCalled, events[0].Kind)

		n := events[0].Number
		require.GreaterOrEqual(t, n, 1)
		require.LessOrEqual(t, n, MaxNumber)
		require.False(t, seen[n], "номер %d объявлен дважды", n)
		seen[n] = true
	}

	snap := room.Snapshot()
	assert.Len(t, snap.CalledNumbers, MaxNumber)

	// Номера кончились — следующий тик закрывает раунд без победителя
	clock = clock.Add(5 * time.Second)
	events := room.Tick(clock)
	require.Len(t, events, 1)
	assert.Equal(t, EventEnded, events[0].Kind)

	snap = room.Snapshot()
	assert.Equal(t, StatusWaiting, snap.Status)
	assert.Empty(t, snap.CalledNumbers)
	assert.Zero(t, snap.Players)
}

func TestRoomEarlyTickIsNoop(t *testing.T) {
	room, now := newTestRoom(t)
	_, err := room.Join(1, 7, now)
	require.NoError(t, err)

	events := room.Tick(now.Add(10 * time.Second))
	assert.Empty(t, events, "до дедлайна переходов нет")
}

// drainRound доводит раунд до состояния «все номера объявлены».
func drainRound(t *testing.T, room *Room, start time.Time) time.Time {
	t.Helper()
	clock := start.Add(46 * time.Second)
	events := room.Tick(clock)
	require.Len(t, events, 1)
	require.Equal(t, EventStarted, events[0].Kind)

	for i := 0; i < MaxNumber; i++ {
		clock = clock.Add(5 * time.Second)
		events = room.Tick(clock)
		require.Len(t, events, 1)
		require.Equal(t, EventCalled, events[0].Kind)
	}
	return clock
}

func TestRoomClaimWin(t *testing.T) {
	room, now := newTestRoom(t)
	_, err := room.Join(1, 7, now)
	require.NoError(t, err)

	clock := drainRound(t, room, now)

	// Все 75 номеров объявлены — первая строка карточки выигрывает
	card := NewCard(7)
	marked := card.Numbers()

	result, err := room.Claim(1, marked, clock)
	require.NoError(t, err)
	assert.Equal(t, "строка 1", result.Pattern)
	assert.Equal(t, 7, result.BoardNumber)
	assert.Equal(t, int64(800), result.Pot) // 1 × 10 быр × 0.8

	// Раунд закрыт, зал снова набирает
	snap := room.Snapshot()
	assert.Equal(t, StatusWaiting, snap.Status)
	assert.NotEqual(t, result.RoundID, snap.RoundID)
}

func TestRoomClaimNotInRoom(t *testing.T) {
	room, now := newTestRoom(t)
	_, err := room.Join(1, 7, now)
	require.NoError(t, err)

	clock := drainRound(t, room, now)

	_, err = room.Claim(99, NewCard(7).Numbers(), clock)
	assert.ErrorIs(t, err, common.ErrNotInRoom)
}

func TestRoomClaimWhileWaiting(t *testing.T) {
	room, now := newTestRoom(t)
	_, err := room.Join(1, 7, now)
	require.NoError(t, err)

	_, err = room.Claim(1, NewCard(7).Numbers(), now)
	assert.ErrorIs(t, err, common.ErrRoundClosed)
}

func TestRoomConcurrentClaimsSingleWinner(t *testing.T) {
	room, now := newTestRoom(t)
	_, err := room.Join(1, 7, now)
	require.NoError(t, err)
	_, err = room.Join(2, 8, now)
	require.NoError(t, err)

	clock := drainRound(t, room, now)

	// Оба игрока заявляют победу одновременно: выигрывает ровно один
	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, board := range []int{7, 8} {
		wg.Add(1)
		go func(idx, board int) {
			defer wg.Done()
			_, errs[idx] = room.Claim(int64(idx+1), NewCard(board).Numbers(), clock)
		}(i, board)
	}
	wg.Wait()

	wins, closed := 0, 0
	for _, err := range errs {
		switch {
		case err == nil:
			wins++
		case assert.ErrorIs(t, err, common.ErrRoundClosed):
			closed++
		}
	}
	assert.Equal(t, 1, wins, "ровно один победитель")
	assert.Equal(t, 1, closed, "вторая заявка видит закрытый раунд")
}
