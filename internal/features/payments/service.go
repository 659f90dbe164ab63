// Package payments — service.go: бизнес-логика платёжного контура.
//
// Депозит: игрок заявляет сумму и присылает текст подтверждения.
// Если текст распознан и сумма сходится (с допуском) — зачисляем сразу.
// Любое сомнение — заявка в очередь на ручную проверку, деньги не
// двигаются до решения админа.
//
// Вывод: списание сразу, выплата после одобрения; отказ возвращает деньги.
package payments

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"winbingo.dev/bingo-bot/internal/common"
)

// Store — операции хранилища, нужные сервису.
// Реализуется Repository; в тестах подменяется фейком.
type Store interface {
	VerifyDeposit(ctx context.Context, userID int64, c Confirmation, amount int64) error
	CreatePendingDeposit(ctx context.Context, userID int64, amount int64, c Confirmation, rawText string) error
	CreateWithdrawal(ctx context.Context, userID int64, amount int64, reference, destination string) error
	ListPending(ctx context.Context, limit int) ([]*Request, error)
	CountPending(ctx context.Context) (int, error)
	Approve(ctx context.Context, requestID int64) (*Request, error)
	Reject(ctx context.Context, requestID int64) (*Request, error)
}

// Service управляет пополнениями и выводами.
type Service struct {
	store Store

	amountTolerance int64 // допуск расхождения сумм, сантимы
	minWithdrawal   int64 // минимальный вывод, сантимы

	// notifyAdmins сообщает админам о новой заявке в очереди.
	// Ставится после создания бота; вызывается fire-and-forget.
	notifyAdmins func(text string)
}

// NewService создаёт платёжный сервис.
func NewService(store Store, amountTolerance, minWithdrawal int64) *Service {
	return &Service{
		store:           store,
		amountTolerance: amountTolerance,
		minWithdrawal:   minWithdrawal,
	}
}

// SetNotifyAdminsFunc устанавливает функцию уведомления админов.
func (s *Service) SetNotifyAdminsFunc(fn func(text string)) {
	s.notifyAdmins = fn
}

// Deposit обрабатывает подтверждение депозита.
//
// declaredAmount — сумма, заявленная игроком. Ошибка возвращается
// только при дубликате номера платежа или отказе БД; «не распознано»
// и «сумма не сходится» — это pending-заявка, а не ошибка.
func (s *Service) Deposit(ctx context.Context, userID int64, declaredAmount int64, rawText string) (DepositResult, error) {
	if declaredAmount <= 0 {
		return DepositResult{}, common.ErrInvalidAmount
	}

	c, verifyErr := s.verify(declaredAmount, rawText)
	if verifyErr == nil {
		if err := s.store.VerifyDeposit(ctx, userID, c, c.Amount); err != nil {
			return DepositResult{}, err
		}
		log.WithFields(log.Fields{
			"user_id":  userID,
			"provider": c.Provider,
			"ref":      c.Reference,
			"amount":   c.Amount,
		}).Info("Депозит зачислен автоматически")
		return DepositResult{AutoVerified: true, Amount: c.Amount, Reference: c.Reference}, nil
	}

	// Сомнительное подтверждение — в очередь с исходным текстом
	if err := s.store.CreatePendingDeposit(ctx, userID, declaredAmount, c, rawText); err != nil {
		return DepositResult{}, err
	}

	log.WithFields(log.Fields{
		"user_id": userID,
		"amount":  declaredAmount,
		"reason":  verifyErr,
	}).Info("Депозит отправлен на ручную проверку")
	s.fireNotifyAdmins(fmt.Sprintf(
		"📥 Новая заявка на пополнение %s — проверьте очередь (!заявки)",
		common.FormatMoney(declaredAmount)))

	return DepositResult{Pending: true, Amount: declaredAmount, Reference: c.Reference, Reason: verifyErr}, nil
}

// verify разбирает текст и сверяет сумму с заявленной.
func (s *Service) verify(declaredAmount int64, rawText string) (Confirmation, error) {
	c, err := ParseConfirmation(rawText)
	if err != nil {
		return Confirmation{}, err
	}
	if c.Amount == 0 {
		return c, common.ErrParseFailed
	}
	diff := c.Amount - declaredAmount
	if diff < 0 {
		diff = -diff
	}
	if diff > s.amountTolerance {
		return c, common.ErrAmountMismatch
	}
	return c, nil
}

// Withdraw создаёт заявку на вывод: списание сразу, выплата после
// одобрения админом.
func (s *Service) Withdraw(ctx context.Context, userID int64, amount int64, destination string) (WithdrawalResult, error) {
	if amount < s.minWithdrawal {
		return WithdrawalResult{}, fmt.Errorf(
			"минимальная сумма вывода %s: %w",
			common.FormatMoney(s.minWithdrawal), common.ErrInvalidAmount)
	}
	if destination == "" {
		return WithdrawalResult{}, errors.New("не указаны реквизиты для вывода")
	}

	reference := uuid.NewString()
	if err := s.store.CreateWithdrawal(ctx, userID, amount, reference, destination); err != nil {
		return WithdrawalResult{}, err
	}

	log.WithFields(log.Fields{
		"user_id": userID,
		"amount":  amount,
		"ref":     reference,
	}).Info("Создана заявка на вывод")
	s.fireNotifyAdmins(fmt.Sprintf(
		"📤 Новая заявка на вывод %s — проверьте очередь (!заявки)",
		common.FormatMoney(amount)))

	return WithdrawalResult{Reference: reference, Amount: amount}, nil
}

// ListPending возвращает очередь заявок для админа.
func (s *Service) ListPending(ctx context.Context) ([]*Request, error) {
	return s.store.ListPending(ctx, 20)
}

// CountPending возвращает размер очереди.
func (s *Service) CountPending(ctx context.Context) (int, error) {
	return s.store.CountPending(ctx)
}

// Approve одобряет заявку и возвращает её для уведомления игрока.
func (s *Service) Approve(ctx context.Context, requestID int64) (*Request, error) {
	req, err := s.store.Approve(ctx, requestID)
	if err != nil {
		return nil, err
	}
	log.WithFields(log.Fields{"request_id": requestID, "kind": req.Kind}).Info("Заявка одобрена")
	return req, nil
}

// Reject отклоняет заявку и возвращает её для уведомления игрока.
func (s *Service) Reject(ctx context.Context, requestID int64) (*Request, error) {
	req, err := s.store.Reject(ctx, requestID)
	if err != nil {
		return nil, err
	}
	log.WithFields(log.Fields{"request_id": requestID, "kind": req.Kind}).Info("Заявка отклонена")
	return req, nil
}

func (s *Service) fireNotifyAdmins(text string) {
	if s.notifyAdmins == nil {
		return
	}
	go s.notifyAdmins(text)
}
