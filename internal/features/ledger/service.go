// Package ledger — service.go содержит бизнес-логику операций со счетами:
// валидация сумм, переводы, история, бонусы.
package ledger

import (
	"context"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"

	"winbingo.dev/bingo-bot/internal/common"
)

// Store — операции хранилища, нужные сервису.
// Реализуется Repository; в тестах подменяется фейком.
type Store interface {
	EnsureAccount(ctx context.Context, userID int64) error
	GetAccount(ctx context.Context, userID int64) (*Account, error)
	Credit(ctx context.Context, userID int64, amount int64, kind, description string) error
	Debit(ctx context.Context, userID int64, amount int64, kind, description string) error
	Transfer(ctx context.Context, fromUserID, toUserID, amount int64) error
	AddCoins(ctx context.Context, userID int64, coins int64) error
	ExchangeCoins(ctx context.Context, userID int64, rate int64) (int64, int64, error)
	GetTransactions(ctx context.Context, userID int64, limit int) ([]*Transaction, error)
}

// Service управляет счетами игроков.
type Service struct {
	store       Store
	signupBonus int64 // разовый бонус за регистрацию, сантимы
	coinRate    int64 // сантимов за одну бонусную монету
}

// NewService создаёт сервис леджера.
func NewService(store Store, signupBonus, coinRate int64) *Service {
	return &Service{
		store:       store,
		signupBonus: signupBonus,
		coinRate:    coinRate,
	}
}

// EnsureAccount заводит счёт, если его ещё нет.
func (s *Service) EnsureAccount(ctx context.Context, userID int64) error {
	return s.store.EnsureAccount(ctx, userID)
}

// GetAccount возвращает счёт игрока.
func (s *Service) GetAccount(ctx context.Context, userID int64) (*Account, error) {
	return s.store.GetAccount(ctx, userID)
}

// Credit зачисляет сумму на счёт.
// Используется для выигрышей, депозитов, компенсаций.
func (s *Service) Credit(ctx context.Context, userID int64, amount int64, kind, description string) error {
	if amount <= 0 {
		return common.ErrInvalidAmount
	}
	return s.store.Credit(ctx, userID, amount, kind, description)
}

// Debit списывает сумму со счёта.
// Используется для ставок и ручных корректировок.
func (s *Service) Debit(ctx context.Context, userID int64, amount int64, kind, description string) error {
	if amount <= 0 {
		return common.ErrInvalidAmount
	}
	return s.store.Debit(ctx, userID, amount, kind, description)
}

// Transfer переводит средства между игроками.
// Проверки: не себе, сумма положительная, у отправителя хватает средств
// (последнее — внутри репозитория под блокировкой строки).
func (s *Service) Transfer(ctx context.Context, fromUserID, toUserID, amount int64) error {
	if fromUserID == toUserID {
		return common.ErrSelfTransfer
	}
	if amount <= 0 {
		return common.ErrInvalidAmount
	}

	if err := s.store.Transfer(ctx, fromUserID, toUserID, amount); err != nil {
		return err
	}

	log.WithFields(log.Fields{
		"from":   fromUserID,
		"to":     toUserID,
		"amount": amount,
	}).Info("Перевод выполнен")
	return nil
}

// SignupBonus заводит счёт и начисляет разовый бонус за регистрацию.
// Вызывается строго один раз — идемпотентность обеспечивает players.Register.
func (s *Service) SignupBonus(ctx context.Context, userID int64) error {
	if err := s.store.EnsureAccount(ctx, userID); err != nil {
		return err
	}
	if s.signupBonus <= 0 {
		return nil
	}
	return s.store.Credit(ctx, userID, s.signupBonus, KindSignupBonus, "Бонус за регистрацию")
}

// AwardCoins начисляет бонусные монеты (за победу в раунде).
func (s *Service) AwardCoins(ctx context.Context, userID int64, coins int64) error {
	if coins <= 0 {
		return nil
	}
	return s.store.AddCoins(ctx, userID, coins)
}

// ExchangeCoins обменивает все бонусные монеты игрока на быры.
func (s *Service) ExchangeCoins(ctx context.Context, userID int64) (int64, int64, error) {
	return s.store.ExchangeCoins(ctx, userID, s.coinRate)
}

// GetTransactionHistory возвращает форматированную историю транзакций.
// Последние 10 операций, новые сверху.
func (s *Service) GetTransactionHistory(ctx context.Context, userID int64) (string, error) {
	transactions, err := s.store.GetTransactions(ctx, userID, 10)
	if err != nil {
		return "", err
	}

	if len(transactions) == 0 {
		return "📋 У вас пока нет транзакций", nil
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("📋 Последние %d операций:\n\n", len(transactions)))
	for i, tx := range transactions {
		sb.WriteString(fmt.Sprintf("%d. %s | %s%s | %s%s\n",
			i+1,
			common.FormatDateTime(tx.CreatedAt),
			txSign(tx, userID),
			common.FormatMoney(tx.Amount),
			tx.Description,
			txStatusSuffix(tx.Status),
		))
	}
	return sb.String(), nil
}

// txSign определяет знак операции с точки зрения игрока userID.
func txSign(tx *Transaction, userID int64) string {
	switch tx.Kind {
	case KindWin, KindDeposit, KindSignupBonus, KindCoinXchg:
		return "+"
	case KindStake, KindWithdrawal:
		return "-"
	case KindTransfer:
		// У перевода user_id — отправитель, counterparty_id — получатель
		if tx.UserID == userID {
			return "-"
		}
		return "+"
	default:
		return ""
	}
}

func txStatusSuffix(status string) string {
	switch status {
	case StatusPending:
		return " (на проверке)"
	case StatusRejected:
		return " (отклонено)"
	default:
		return ""
	}
}
