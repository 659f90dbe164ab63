// Package players — repository.go отвечает за все операции с таблицей players в БД.
// Каждая функция выполняет один SQL-запрос и возвращает результат или ошибку.
package players

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// Create добавляет нового игрока.
// На конфликте по user_id обновляет только имя/username (не трогает телефон/бан).
func (r *Repository) Create(ctx context.Context, p *Player) error {
	query := `
		INSERT INTO players (user_id, username, first_name, last_name, is_registered, is_banned, joined_at)
		VALUES ($1, $2, $3, $4, FALSE, FALSE, $5)
		ON CONFLICT (user_id) DO UPDATE
		SET username = EXCLUDED.username,
		    first_name = EXCLUDED.first_name,
		    last_name = EXCLUDED.last_name,
		    updated_at = NOW()
	`
	_, err := r.db.Exec(ctx, query,
		p.UserID, p.Username, p.FirstName, p.LastName, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("ошибка создания/обновления игрока: %w", err)
	}
	return nil
}

// GetByUserID: если не найден — ошибка с pgx.ErrNoRows (errors.Is(err, pgx.ErrNoRows) == true)
func (r *Repository) GetByUserID(ctx context.Context, userID int64) (*Player, error) {
	query := `
		SELECT id, user_id, username, first_name, last_name, phone, is_registered, is_banned,
		       joined_at, created_at, updated_at
		FROM players
		WHERE user_id = $1
	`
	var p Player
	err := r.db.QueryRow(ctx, query, userID).Scan(
		&p.ID, &p.UserID, &p.Username, &p.FirstName, &p.LastName,
		&p.Phone, &p.IsRegistered, &p.IsBanned,
		&p.JoinedAt, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("игрок не найден (user_id=%d): %w", userID, err)
		}
		return nil, fmt.Errorf("ошибка чтения игрока (user_id=%d): %w", userID, err)
	}
	return &p, nil
}

// GetByUsername: если не найден — ошибка с pgx.ErrNoRows
func (r *Repository) GetByUsername(ctx context.Context, username string) (*Player, error) {
	query := `
		SELECT id, user_id, username, first_name, last_name, phone, is_registered, is_banned,
		       joined_at, created_at, updated_at
		FROM players
		WHERE LOWER(username) = LOWER($1)
	`
	var p Player
	err := r.db.QueryRow(ctx, query, username).Scan(
		&p.ID, &p.UserID, &p.Username, &p.FirstName, &p.LastName,
		&p.Phone, &p.IsRegistered, &p.IsBanned,
		&p.JoinedAt, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("игрок не найден (username=%s): %w", username, err)
		}
		return nil, fmt.Errorf("ошибка чтения игрока (username=%s): %w", username, err)
	}
	return &p, nil
}

func (r *Repository) Exists(ctx context.Context, userID int64) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM players WHERE user_id = $1)`
	var exists bool
	if err := r.db.QueryRow(ctx, query, userID).Scan(&exists); err != nil {
		return false, fmt.Errorf("ошибка проверки существования: %w", err)
	}
	return exists, nil
}

// IsRegistered возвращает, завершил ли игрок регистрацию.
// Незнакомый user_id — просто false, без ошибки.
func (r *Repository) IsRegistered(ctx context.Context, userID int64) (bool, error) {
	query := `SELECT is_registered FROM players WHERE user_id = $1`
	var registered bool
	err := r.db.QueryRow(ctx, query, userID).Scan(&registered)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("ошибка проверки регистрации: %w", err)
	}
	return registered, nil
}

// Register помечает игрока зарегистрированным и сохраняет телефон.
// Возвращает true, только если регистрация произошла ИМЕННО сейчас:
// повторный шеринг контакта даёт false — так бонус за регистрацию
// начисляется не больше одного раза.
func (r *Repository) Register(ctx context.Context, userID int64, phone string) (bool, error) {
	query := `
		UPDATE players
		SET is_registered = TRUE, phone = $2, updated_at = NOW()
		WHERE user_id = $1 AND is_registered = FALSE
	`
	tag, err := r.db.Exec(ctx, query, userID, phone)
	if err != nil {
		return false, fmt.Errorf("ошибка регистрации: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *Repository) UpdateInfo(ctx context.Context, userID int64, info UpdateInfo) error {
	query := `
		UPDATE players
		SET username = $2, first_name = $3, last_name = $4, updated_at = NOW()
		WHERE user_id = $1
	`
	if _, err := r.db.Exec(ctx, query, userID, info.Username, info.FirstName, info.LastName); err != nil {
		return fmt.Errorf("ошибка обновления данных игрока: %w", err)
	}
	return nil
}

// SetBanned выставляет флаг бана.
func (r *Repository) SetBanned(ctx context.Context, userID int64, banned bool) error {
	query := `UPDATE players SET is_banned = $2, updated_at = NOW() WHERE user_id = $1`
	if _, err := r.db.Exec(ctx, query, userID, banned); err != nil {
		return fmt.Errorf("ошибка обновления флага бана: %w", err)
	}
	return nil
}
