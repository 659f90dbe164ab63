// Package game — service.go связывает залы со счетами игроков:
// списание ставки при входе, зачисление банка победителю.
package game

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"winbingo.dev/bingo-bot/internal/common"
)

// Ledger — операции со счетами, нужные игровому сервису.
// Реализуется ledger.Service; в тестах подменяется фейком.
type Ledger interface {
	Debit(ctx context.Context, userID int64, amount int64, kind, description string) error
	Credit(ctx context.Context, userID int64, amount int64, kind, description string) error
	AwardCoins(ctx context.Context, userID int64, coins int64) error
}

// Service — игровой сервис: вход в залы, заявки на бинго, снапшоты.
type Service struct {
	registry *Registry
	ledger   Ledger

	winCoinsPerBirr int64

	// notify отправляет сообщение игроку. Ставится после создания бота,
	// чтобы разорвать цикл инициализации. Вызывается fire-and-forget.
	notify func(userID int64, text string)
}

// NewService создаёт игровой сервис.
func NewService(registry *Registry, ledger Ledger, winCoinsPerBirr int64) *Service {
	return &Service{
		registry:        registry,
		ledger:          ledger,
		winCoinsPerBirr: winCoinsPerBirr,
	}
}

// SetNotifyFunc устанавливает функцию уведомления игроков.
func (s *Service) SetNotifyFunc(fn func(userID int64, text string)) {
	s.notify = fn
}

// Registry возвращает реестр залов (для планировщика).
func (s *Service) Registry() *Registry {
	return s.registry
}

// Tick продвигает все залы и рассылает игрокам события раундов.
// Вызывается планировщиком раз в секунду.
func (s *Service) Tick(now time.Time) {
	events := s.registry.Tick(now)
	if s.notify == nil {
		return
	}

	for _, ev := range events {
		text := eventText(ev)
		if text == "" {
			continue
		}
		s.fireNotify(ev.Members, text)
	}
}

// fireNotify рассылает текст списку игроков fire-and-forget:
// тик зала не должен ждать сетевых вызовов Telegram.
func (s *Service) fireNotify(members []int64, text string) {
	if s.notify == nil || len(members) == 0 {
		return
	}
	go func() {
		for _, userID := range members {
			s.notify(userID, text)
		}
	}()
}

// eventText — текст уведомления игрокам зала о событии раунда.
func eventText(ev Event) string {
	switch ev.Kind {
	case EventStarted:
		return fmt.Sprintf(
			"🎲 Раунд начался! Игроков: %d, банк: %s\nНомера будут объявляться автоматически. Увидели линию — отправьте !бинго с её номерами.",
			ev.Players, common.FormatMoney(ev.Pot),
		)
	case EventCalled:
		return fmt.Sprintf("📢 %s-%d", columnLetter(ev.Number), ev.Number)
	case EventEnded:
		return "🏁 Номера закончились, победителя нет. Раунд закрыт, зал снова набирает игроков."
	default:
		return ""
	}
}

// columnLetter — буква колонки B/I/N/G/O для объявленного номера.
func columnLetter(n int) string {
	letters := [CardSize]string{"B", "I", "N", "G", "O"}
	idx := (n - 1) / numbersPerColumn
	if idx < 0 || idx >= CardSize {
		return "?"
	}
	return letters[idx]
}

// Snapshots возвращает снимки всех залов.
func (s *Service) Snapshots() []Snapshot {
	return s.registry.Snapshots()
}

// Snapshot возвращает снимок зала по ставке.
func (s *Service) Snapshot(stake int64) (Snapshot, error) {
	room := s.registry.Room(stake)
	if room == nil {
		return Snapshot{}, common.ErrUnknownStake
	}
	return room.Snapshot(), nil
}

// Join — вход в зал: списание ставки, затем место в ростере.
//
// Порядок важен: сначала деньги, потом место. Если зал отказал
// (карточка занята, раунд стартовал), ставка возвращается
// компенсирующим зачислением. Повторный вход — no-op без списания.
func (s *Service) Join(ctx context.Context, userID int64, stake int64, boardNumber int) (JoinResult, error) {
	room := s.registry.Room(stake)
	if room == nil {
		return JoinResult{}, common.ErrUnknownStake
	}

	// Игрок уже в ростере — билет второй раз не продаём
	if room.HasPlayer(userID) {
		return room.Join(userID, boardNumber, time.Now())
	}

	desc := fmt.Sprintf("Ставка в зале %s", common.FormatMoney(stake))
	if err := s.ledger.Debit(ctx, userID, stake, KindStake, desc); err != nil {
		return JoinResult{}, err
	}

	result, err := room.Join(userID, boardNumber, time.Now())
	if err != nil {
		// Место не досталось — возвращаем ставку
		s.refundStake(ctx, userID, stake)
		return JoinResult{}, err
	}
	if result.AlreadyJoined {
		// Гонка двух повторов одной команды: параллельный вход успел
		// занять место между проверкой ростера и списанием. Второе
		// списание возвращаем — билет продан ровно один раз.
		s.refundStake(ctx, userID, stake)
		return result, nil
	}

	log.WithFields(log.Fields{
		"user_id": userID,
		"stake":   stake,
		"board":   result.BoardNumber,
	}).Info("Игрок вошёл в зал")
	return result, nil
}

// refundStake возвращает списанную ставку компенсирующим зачислением.
// Неудачу возврата чинит админ вручную, поэтому уровень Error.
func (s *Service) refundStake(ctx context.Context, userID, stake int64) {
	desc := fmt.Sprintf("Возврат ставки: зал %s", common.FormatMoney(stake))
	if err := s.ledger.Credit(ctx, userID, stake, KindAdjust, desc); err != nil {
		log.WithFields(log.Fields{
			"user_id": userID,
			"stake":   stake,
			"error":   err,
		}).Error("Не удалось вернуть ставку")
	}
}

// Claim — заявка на бинго.
//
// Решение о победе принимает зал под своим мьютексом; выплата идёт
// уже после, вне блокировки. Если зачисление упало, раунд всё равно
// закрыт — расхождение чинится вручную через админку, поэтому логируем
// на уровне Error со всеми деталями.
func (s *Service) Claim(ctx context.Context, userID int64, stake int64, marked []int) (*ClaimResult, error) {
	room := s.registry.Room(stake)
	if room == nil {
		return nil, common.ErrUnknownStake
	}

	result, err := room.Claim(userID, marked, time.Now())
	if err != nil {
		return nil, err
	}

	// Раунд уже закрыт — остальной ростер узнаёт о победе сразу,
	// независимо от судьбы выплаты
	s.announceWin(result, userID)

	desc := fmt.Sprintf("Выигрыш: %s, раунд %s", result.Pattern, result.RoundID)
	if err := s.ledger.Credit(ctx, userID, result.Pot, KindWin, desc); err != nil {
		log.WithFields(log.Fields{
			"user_id":  userID,
			"round_id": result.RoundID,
			"pot":      result.Pot,
			"error":    err,
		}).Error("Победа принята, но выплата не прошла")
		return nil, fmt.Errorf("выплата выигрыша: %w", err)
	}

	coins := stake / common.SantimPerBirr * s.winCoinsPerBirr
	if err := s.ledger.AwardCoins(ctx, userID, coins); err != nil {
		log.WithField("user_id", userID).WithError(err).Warn("Не удалось начислить бонусные монеты")
	}

	log.WithFields(log.Fields{
		"user_id":  userID,
		"round_id": result.RoundID,
		"pattern":  result.Pattern,
		"pot":      result.Pot,
	}).Info("Победа в раунде")
	return result, nil
}

// announceWin сообщает остальным игрокам закрытого раунда о победе.
// Победитель получает свой ответ от обработчика команды.
func (s *Service) announceWin(result *ClaimResult, winnerID int64) {
	others := make([]int64, 0, len(result.Members))
	for _, id := range result.Members {
		if id != winnerID {
			others = append(others, id)
		}
	}
	text := fmt.Sprintf(
		"🏆 Бинго! Раунд выигран (%s), банк %s ушёл победителю.\nЗал снова набирает игроков.",
		result.Pattern, common.FormatMoney(result.Pot))
	s.fireNotify(others, text)
}

// Card возвращает карточку по номеру в пределах зала.
func (s *Service) Card(stake int64, boardNumber int) (Card, error) {
	room := s.registry.Room(stake)
	if room == nil {
		return Card{}, common.ErrUnknownStake
	}
	if boardNumber < 1 || boardNumber > room.cfg.BoardCount {
		return Card{}, common.ErrBadBoardNumber
	}
	return NewCard(boardNumber), nil
}

// Виды транзакций дублируют константы леджера, чтобы не тянуть
// пакет ledger в game и не создавать цикл импорта.
const (
	KindStake  = "stake"
	KindWin    = "win"
	KindAdjust = "adjust"
)
