// Package game — room.go: зал одной ставки.
//
// Зал — машина состояний WAITING → PLAYING → WAITING, живущая весь
// срок работы процесса: в конце раунда он сбрасывается, а не
// пересоздаётся. Все мутации — под мьютексом зала; снапшоты берут
// только читающую блокировку и не конкурируют с мутациями дольше,
// чем нужно на копирование.
//
// Все переходы считаются от настенных часов (now передаётся извне):
// пропущенный тик не ломает состояние — следующий тик сам наверстает.
package game

import (
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"winbingo.dev/bingo-bot/internal/common"
)

// MaxNumber — номера объявляются из диапазона [1, 75].
const MaxNumber = 75

// RoomConfig — параметры зала, одинаковые для всех ставок.
type RoomConfig struct {
	PayoutFraction float64       // Доля банка победителю (0.8 = 80%)
	CallInterval   time.Duration // Интервал между номерами
	JoinWindow     time.Duration // Окно набора игроков
	BoardCount     int           // Карточки с номерами 1..BoardCount
}

// Room — зал одной ставки.
type Room struct {
	mu  sync.RWMutex
	cfg RoomConfig

	stake   int64 // сантимы
	status  string
	roundID string

	roster map[int64]int // userID → номер карточки
	boards map[int]int64 // номер карточки → userID (карточка уникальна в раунде)

	called      []int
	currentCall int
	pot         int64

	// Дедлайн следующего перехода: в WAITING — старт раунда,
	// в PLAYING — следующий номер (или завершение после 75-го)
	nextTransition time.Time

	rng *rand.Rand
}

// NewRoom создаёт зал. Первый раунд начинает набор сразу.
func NewRoom(stake int64, cfg RoomConfig, now time.Time) *Room {
	r := &Room{
		cfg:   cfg,
		stake: stake,
		rng:   rand.New(rand.NewSource(now.UnixNano() ^ stake)),
	}
	r.reset(now)
	return r
}

// Stake возвращает ставку зала в сантимах.
func (r *Room) Stake() int64 { return r.stake }

// reset переводит зал в WAITING с чистым ростером и историей.
// Вызывается при создании и в конце каждого раунда (под мьютексом).
func (r *Room) reset(now time.Time) {
	r.status = StatusWaiting
	r.roundID = uuid.NewString()
	r.roster = make(map[int64]int)
	r.boards = make(map[int]int64)
	r.called = nil
	r.currentCall = 0
	r.pot = 0
	r.nextTransition = now.Add(r.cfg.JoinWindow)
}

// HasPlayer сообщает, есть ли игрок в ростере текущего раунда.
func (r *Room) HasPlayer(userID int64) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.roster[userID]
	return ok
}

// Join добавляет игрока в ростер.
// Повторный вход того же игрока — идемпотентный no-op (без ошибки,
// билет второй раз не продаётся). Вход возможен только в WAITING.
func (r *Room) Join(userID int64, boardNumber int, now time.Time) (JoinResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if board, ok := r.roster[userID]; ok {
		return JoinResult{
			AlreadyJoined: true,
			BoardNumber:   board,
			Pot:           r.pot,
			StartsAt:      r.nextTransition,
		}, nil
	}

	if r.status != StatusWaiting {
		return JoinResult{}, common.ErrRoundInProgress
	}
	if boardNumber < 1 || boardNumber > r.cfg.BoardCount {
		return JoinResult{}, common.ErrBadBoardNumber
	}
	if _, taken := r.boards[boardNumber]; taken {
		return JoinResult{}, common.ErrBoardTaken
	}

	r.roster[userID] = boardNumber
	r.boards[boardNumber] = userID
	r.pot = r.potFor(len(r.roster))

	return JoinResult{
		BoardNumber: boardNumber,
		Pot:         r.pot,
		StartsAt:    r.nextTransition,
	}, nil
}

// potFor — банк раунда для n игроков: ⌊n × ставка × доля⌋.
func (r *Room) potFor(n int) int64 {
	return int64(float64(int64(n)*r.stake) * r.cfg.PayoutFraction)
}

// Tick продвигает машину состояний зала относительно настенных часов.
// Возвращает события для логирования. Вызывается планировщиком раз в
// секунду; опоздавший тик просто выполнит назревший переход позже.
func (r *Room) Tick(now time.Time) []Event {
	r.mu.Lock()
	defer r.mu.Unlock()

	var events []Event

	switch r.status {
	case StatusWaiting:
		if ev, ok := r.startIfDue(now); ok {
			events = append(events, ev)
		}
	case StatusPlaying:
		if now.Before(r.nextTransition) {
			break
		}
		if len(r.called) >= MaxNumber {
			// Номера кончились, победителя нет — банк остаётся дому
			events = append(events, Event{
				Kind:    EventEnded,
				Stake:   r.stake,
				RoundID: r.roundID,
				Members: r.members(),
			})
			r.reset(now)
			break
		}
		events = append(events, r.callNext(now))
	}

	return events
}

// startIfDue стартует раунд, если дедлайн прошёл и есть хотя бы один
// игрок. Пустой зал просто получает новый дедлайн — без перехода.
func (r *Room) startIfDue(now time.Time) (Event, bool) {
	if now.Before(r.nextTransition) {
		return Event{}, false
	}
	if len(r.roster) == 0 {
		r.nextTransition = now.Add(r.cfg.JoinWindow)
		return Event{}, false
	}

	r.status = StatusPlaying
	// Банк фиксируется на моменте старта
	r.pot = r.potFor(len(r.roster))
	r.nextTransition = now.Add(r.cfg.CallInterval)

	return Event{
		Kind:    EventStarted,
		Stake:   r.stake,
		RoundID: r.roundID,
		Players: len(r.roster),
		Pot:     r.pot,
		Members: r.members(),
	}, true
}

// members — userID всех игроков ростера (под мьютексом).
func (r *Room) members() []int64 {
	out := make([]int64, 0, len(r.roster))
	for userID := range r.roster {
		out = append(out, userID)
	}
	return out
}

// callNext объявляет следующий номер: равномерно из ещё не объявленных
// (выборка без возвращения). Вызывается только в PLAYING под мьютексом.
func (r *Room) callNext(now time.Time) Event {
	calledSet := make(map[int]bool, len(r.called))
	for _, n := range r.called {
		calledSet[n] = true
	}

	remaining := make([]int, 0, MaxNumber-len(r.called))
	for n := 1; n <= MaxNumber; n++ {
		if !calledSet[n] {
			remaining = append(remaining, n)
		}
	}

	next := remaining[r.rng.Intn(len(remaining))]
	r.called = append(r.called, next)
	r.currentCall = next
	r.nextTransition = now.Add(r.cfg.CallInterval)

	return Event{
		Kind:    EventCalled,
		Stake:   r.stake,
		RoundID: r.roundID,
		Number:  next,
		Members: r.members(),
	}
}

// Claim — единственная точка арбитража победы.
//
// Под мьютексом зала: проверка статуса → членства → комбинации → истории
// объявлений. Принятая заявка сразу закрывает раунд, поэтому из двух
// одновременных заявок выигрывает ровно одна — вторая увидит
// common.ErrRoundClosed.
func (r *Room) Claim(userID int64, marked []int, now time.Time) (*ClaimResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.status != StatusPlaying {
		return nil, common.ErrRoundClosed
	}

	board, ok := r.roster[userID]
	if !ok {
		return nil, common.ErrNotInRoom
	}

	patternName, err := CheckClaim(NewCard(board), marked, r.called)
	if err != nil {
		return nil, err
	}

	// Ростер копируется до сброса — после reset его уже не восстановить
	result := &ClaimResult{
		RoundID:     r.roundID,
		Pattern:     patternName,
		Pot:         r.pot,
		BoardNumber: board,
		Members:     r.members(),
	}

	// Раунд закрывается немедленно — это и отсекает вторую заявку
	r.reset(now)

	return result, nil
}

// Snapshot возвращает копию состояния зала для опроса клиентами.
func (r *Room) Snapshot() Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()

	called := make([]int, len(r.called))
	copy(called, r.called)

	return Snapshot{
		RoundID:        r.roundID,
		Stake:          r.stake,
		Status:         r.status,
		Players:        len(r.roster),
		CalledNumbers:  called,
		CurrentCall:    r.currentCall,
		Pot:            r.pot,
		NextTransition: r.nextTransition,
	}
}
