// Package game реализует игровой движок бинго: залы по ставкам,
// автоматическое объявление номеров и проверку заявок на победу.
// models.go описывает статусы, снапшоты и результаты операций.
package game

import "time"

// Статусы зала. Переходы только WAITING → PLAYING → WAITING.
const (
	StatusWaiting = "WAITING" // Зал набирает игроков до дедлайна старта
	StatusPlaying = "PLAYING" // Идёт раунд, номера объявляются по таймеру
)

// Snapshot — снимок состояния зала для опрашивающих клиентов.
// Только чтение: получение снапшота никогда не меняет состояние.
type Snapshot struct {
	RoundID        string    // UUID текущего раунда
	Stake          int64     // Ставка зала, сантимы
	Status         string    // WAITING или PLAYING
	Players        int       // Сколько игроков в ростере
	CalledNumbers  []int     // История объявленных номеров (копия)
	CurrentCall    int       // Последний объявленный номер (0 — ещё нет)
	Pot            int64     // Банк раунда, сантимы
	NextTransition time.Time // Когда следующий переход: старт раунда или следующий номер
}

// JoinResult — результат входа в зал.
type JoinResult struct {
	AlreadyJoined bool      // Повторный вход — идемпотентный no-op
	BoardNumber   int       // Номер карточки игрока
	Pot           int64     // Текущая оценка банка
	StartsAt      time.Time // Дедлайн старта раунда
}

// ClaimResult — принятая заявка на бинго.
type ClaimResult struct {
	RoundID     string  // Раунд, который закрыла заявка
	Pattern     string  // Название выигрышной комбинации
	Pot         int64   // Выплата победителю, сантимы
	BoardNumber int     // Карточка победителя
	Members     []int64 // Ростер закрытого раунда (для уведомлений)
}

// Event — событие жизненного цикла зала, возвращается из Tick
// для логирования и уведомлений.
type Event struct {
	Kind    string // started | called | ended
	Stake   int64
	RoundID string
	Number  int     // для called
	Players int     // для started
	Pot     int64   // для started
	Members []int64 // кого уведомлять: ростер раунда
}

// Виды событий Tick.
const (
	EventStarted = "started"
	EventCalled  = "called"
	EventEnded   = "ended"
)
