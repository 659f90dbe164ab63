// Package admin — service.go содержит логику аутентификации, управления
// сессиями и операции админ-панели: очередь платёжных заявок, ручные
// корректировки балансов, блокировки игроков.
package admin

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/argon2"

	"winbingo.dev/bingo-bot/internal/common"
	"winbingo.dev/bingo-bot/internal/config"
	"winbingo.dev/bingo-bot/internal/features/ledger"
	"winbingo.dev/bingo-bot/internal/features/payments"
	"winbingo.dev/bingo-bot/internal/features/players"
)

// Service управляет админ-панелью.
type Service struct {
	repo            *Repository
	cfg             *config.Config
	ledgerService   *ledger.Service
	ledgerRepo      *ledger.Repository
	paymentsService *payments.Service
	playersService  *players.Service

	states   map[int64]*AdminState // Состояния диалогов (in-memory)
	statesMu sync.RWMutex
}

// NewService создаёт сервис админ-панели.
func NewService(
	repo *Repository,
	cfg *config.Config,
	ledgerService *ledger.Service,
	ledgerRepo *ledger.Repository,
	paymentsService *payments.Service,
	playersService *players.Service,
) *Service {
	return &Service{
		repo:            repo,
		cfg:             cfg,
		ledgerService:   ledgerService,
		ledgerRepo:      ledgerRepo,
		paymentsService: paymentsService,
		playersService:  playersService,
		states:          make(map[int64]*AdminState),
	}
}

// IsAdmin проверяет, входит ли пользователь в список админов из конфигурации.
func (s *Service) IsAdmin(userID int64) bool {
	for _, id := range s.cfg.AdminIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// VerifyPassword проверяет пароль администратора (Argon2id).
// Защита от brute-force: 3 неудачные попытки = блокировка на 1 час.
func (s *Service) VerifyPassword(ctx context.Context, userID int64, password string) error {
	if !s.IsAdmin(userID) {
		return common.ErrNotAdmin
	}

	attempts, err := s.repo.GetRecentAttempts(ctx, userID, 1*time.Hour)
	if err != nil {
		return err
	}
	if attempts >= 3 {
		return common.ErrTooManyAttempts
	}

	match := verifyArgon2id(password, s.cfg.AdminPasswordHash)

	if err := s.repo.LogAttempt(ctx, userID, match); err != nil {
		log.WithError(err).Error("Не удалось записать попытку входа")
	}

	if !match {
		return common.ErrWrongPassword
	}

	// Сессия на 24 часа
	token := generateSecureToken()
	session := &AdminSession{
		UserID:       userID,
		SessionToken: token,
		ExpiresAt:    time.Now().Add(24 * time.Hour),
	}

	return s.repo.CreateSession(ctx, session)
}

// HasActiveSession проверяет, есть ли у пользователя активная сессия.
func (s *Service) HasActiveSession(ctx context.Context, userID int64) bool {
	session, err := s.repo.GetActiveSession(ctx, userID)
	return err == nil && session != nil
}

// Logout деактивирует сессию админа.
func (s *Service) Logout(ctx context.Context, userID int64) error {
	s.ClearState(userID)
	return s.repo.DeactivateSession(ctx, userID)
}

// TouchSession обновляет время последней активности.
func (s *Service) TouchSession(ctx context.Context, userID int64) {
	if err := s.repo.UpdateActivity(ctx, userID); err != nil {
		log.WithError(err).Warn("Не удалось обновить активность сессии")
	}
}

// GetState возвращает текущее состояние диалога.
func (s *Service) GetState(userID int64) *AdminState {
	s.statesMu.RLock()
	defer s.statesMu.RUnlock()

	state, ok := s.states[userID]
	if !ok {
		return nil
	}
	if time.Now().After(state.ExpiresAt) {
		return nil
	}
	return state
}

// SetState устанавливает состояние диалога с 5-минутным таймаутом.
func (s *Service) SetState(userID int64, stateName string, data interface{}) {
	s.statesMu.Lock()
	defer s.statesMu.Unlock()

	s.states[userID] = &AdminState{
		State:     stateName,
		Data:      data,
		ExpiresAt: time.Now().Add(5 * time.Minute),
	}
}

// ClearState сбрасывает состояние диалога.
func (s *Service) ClearState(userID int64) {
	s.statesMu.Lock()
	defer s.statesMu.Unlock()
	delete(s.states, userID)
}

// --- Операции панели ---

// ListPending возвращает очередь платёжных заявок.
func (s *Service) ListPending(ctx context.Context) ([]*payments.Request, error) {
	return s.paymentsService.ListPending(ctx)
}

// Approve одобряет платёжную заявку.
func (s *Service) Approve(ctx context.Context, requestID int64) (*payments.Request, error) {
	return s.paymentsService.Approve(ctx, requestID)
}

// Reject отклоняет платёжную заявку.
func (s *Service) Reject(ctx context.Context, requestID int64) (*payments.Request, error) {
	return s.paymentsService.Reject(ctx, requestID)
}

// AdjustCredit — ручное начисление на счёт игрока.
func (s *Service) AdjustCredit(ctx context.Context, adminID int64, username string, amount int64, reason string) (*players.Player, error) {
	player, err := s.playersService.GetByUsername(ctx, username)
	if err != nil {
		return nil, common.ErrUnknownRecipient
	}

	desc := fmt.Sprintf("Корректировка администратора: %s", reason)
	if err := s.ledgerService.Credit(ctx, player.UserID, amount, ledger.KindAdjust, desc); err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"admin_id": adminID,
		"user_id":  player.UserID,
		"amount":   amount,
		"reason":   reason,
	}).Info("Ручное начисление")
	return player, nil
}

// AdjustDebit — ручное списание со счёта игрока.
func (s *Service) AdjustDebit(ctx context.Context, adminID int64, username string, amount int64, reason string) (*players.Player, error) {
	player, err := s.playersService.GetByUsername(ctx, username)
	if err != nil {
		return nil, common.ErrUnknownRecipient
	}

	desc := fmt.Sprintf("Корректировка администратора: %s", reason)
	if err := s.ledgerService.Debit(ctx, player.UserID, amount, ledger.KindAdjust, desc); err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"admin_id": adminID,
		"user_id":  player.UserID,
		"amount":   amount,
		"reason":   reason,
	}).Info("Ручное списание")
	return player, nil
}

// SetBanned блокирует или разблокирует игрока по @username.
func (s *Service) SetBanned(ctx context.Context, username string, banned bool) (*players.Player, error) {
	player, err := s.playersService.GetByUsername(ctx, username)
	if err != nil {
		return nil, common.ErrUnknownRecipient
	}
	if err := s.playersService.SetBanned(ctx, player.UserID, banned); err != nil {
		return nil, err
	}
	return player, nil
}

// Summary возвращает сводку для панели: суммарный баланс игроков
// (сверка консервации денег) и размер очереди заявок.
func (s *Service) Summary(ctx context.Context) (string, error) {
	total, err := s.ledgerRepo.TotalBalance(ctx)
	if err != nil {
		return "", err
	}
	pending, err := s.paymentsService.CountPending(ctx)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf(
		"📊 Сводка\n\nСуммарный баланс игроков: %s\nЗаявок в очереди: %d",
		common.FormatMoney(total), pending,
	), nil
}

// CleanupExpired удаляет истёкшие сессии (вызывается планировщиком).
func (s *Service) CleanupExpired(ctx context.Context) error {
	return s.repo.CleanupExpired(ctx)
}

// --- Криптографические утилиты ---

// verifyArgon2id проверяет пароль по хешу Argon2id.
// Формат хеша: $argon2id$v=19$m=65536,t=3,p=2$<salt_base64>$<hash_base64>
func verifyArgon2id(password, encodedHash string) bool {
	parts := strings.Split(encodedHash, "$")
	if len(parts) != 6 {
		log.Error("Некорректный формат хеша Argon2id")
		return false
	}

	var memory uint32
	var iterations uint32
	var parallelism uint8
	_, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &iterations, &parallelism)
	if err != nil {
		log.WithError(err).Error("Ошибка парсинга параметров Argon2id")
		return false
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		log.WithError(err).Error("Ошибка декодирования соли")
		return false
	}

	expectedHash, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		log.WithError(err).Error("Ошибка декодирования хеша")
		return false
	}

	computedHash := argon2.IDKey([]byte(password), salt, iterations, memory, parallelism, uint32(len(expectedHash)))

	// Сравнение в постоянном времени (защита от timing attack)
	return subtle.ConstantTimeCompare(computedHash, expectedHash) == 1
}

// generateSecureToken генерирует криптографически безопасный токен сессии.
func generateSecureToken() string {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return fmt.Sprintf("fallback-%d", time.Now().UnixNano())
	}
	return base64.URLEncoding.EncodeToString(b)
}
