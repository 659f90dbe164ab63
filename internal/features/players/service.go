// Package players — service.go содержит бизнес-логику управления игроками.
// Сервис координирует заведение записей, регистрацию по контакту
// и проверки доступа.
package players

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"winbingo.dev/bingo-bot/internal/common"
)

// Store — операции хранилища, нужные сервису.
// Реализуется Repository; в тестах подменяется фейком.
type Store interface {
	Create(ctx context.Context, p *Player) error
	GetByUserID(ctx context.Context, userID int64) (*Player, error)
	GetByUsername(ctx context.Context, username string) (*Player, error)
	Exists(ctx context.Context, userID int64) (bool, error)
	IsRegistered(ctx context.Context, userID int64) (bool, error)
	Register(ctx context.Context, userID int64, phone string) (bool, error)
	UpdateInfo(ctx context.Context, userID int64, info UpdateInfo) error
	SetBanned(ctx context.Context, userID int64, banned bool) error
}

// Service управляет игроками.
type Service struct {
	repo Store
}

// NewService создаёт новый сервис игроков.
func NewService(repo Store) *Service {
	return &Service{repo: repo}
}

// EnsurePlayer гарантирует, что игрок есть в базе.
// Вызывается на каждое входящее сообщение: создаёт запись при первом
// контакте, для вернувшегося игрока освежает имя и username.
func (s *Service) EnsurePlayer(ctx context.Context, userID int64, username, firstName, lastName string) error {
	exists, err := s.repo.Exists(ctx, userID)
	if err != nil {
		return err
	}
	if exists {
		// Имя и username могли смениться с прошлого визита
		if err := s.repo.UpdateInfo(ctx, userID, UpdateInfo{
			Username:  username,
			FirstName: firstName,
			LastName:  lastName,
		}); err != nil {
			log.WithError(err).WithField("user_id", userID).Warn("Не удалось обновить данные игрока")
		}
		return nil
	}

	p := &Player{
		UserID:    userID,
		Username:  username,
		FirstName: firstName,
		LastName:  lastName,
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return fmt.Errorf("ошибка заведения игрока: %w", err)
	}

	log.WithFields(log.Fields{
		"user_id":  userID,
		"username": username,
	}).Info("Новый игрок заведён")
	return nil
}

// Register завершает регистрацию игрока по номеру телефона из контакта.
// Возвращает true, если регистрация произошла именно этим вызовом
// (повторная регистрация — идемпотентный no-op с false).
func (s *Service) Register(ctx context.Context, userID int64, phone string) (bool, error) {
	registered, err := s.repo.Register(ctx, userID, phone)
	if err != nil {
		return false, err
	}
	if registered {
		log.WithField("user_id", userID).Info("Игрок зарегистрирован")
	}
	return registered, nil
}

// IsRegistered проверяет, завершил ли игрок регистрацию.
func (s *Service) IsRegistered(ctx context.Context, userID int64) (bool, error) {
	return s.repo.IsRegistered(ctx, userID)
}

// RequireRegistered возвращает common.ErrNotRegistered, если игрок
// не завершил регистрацию. Вызывается перед денежными командами.
func (s *Service) RequireRegistered(ctx context.Context, userID int64) error {
	registered, err := s.repo.IsRegistered(ctx, userID)
	if err != nil {
		return err
	}
	if !registered {
		return common.ErrNotRegistered
	}
	return nil
}

// GetByUserID возвращает игрока по его Telegram user ID.
func (s *Service) GetByUserID(ctx context.Context, userID int64) (*Player, error) {
	return s.repo.GetByUserID(ctx, userID)
}

// GetByUsername возвращает игрока по @username (без @).
func (s *Service) GetByUsername(ctx context.Context, username string) (*Player, error) {
	return s.repo.GetByUsername(ctx, username)
}

// UpdateInfo обновляет имя/username вернувшегося игрока.
func (s *Service) UpdateInfo(ctx context.Context, userID int64, info UpdateInfo) error {
	return s.repo.UpdateInfo(ctx, userID, info)
}

// SetBanned блокирует или разблокирует игрока.
// Заблокированный игрок не проходит фильтр доступа к командам.
func (s *Service) SetBanned(ctx context.Context, userID int64, banned bool) error {
	if err := s.repo.SetBanned(ctx, userID, banned); err != nil {
		return err
	}
	log.WithFields(log.Fields{
		"user_id": userID,
		"banned":  banned,
	}).Info("Изменён статус блокировки игрока")
	return nil
}
