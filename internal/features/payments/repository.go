// Package payments — repository.go работает с таблицами payment_refs
// и transactions.
//
// Защита от повторного использования платёжки — строка в payment_refs
// с уникальным ключом (provider, reference): вставка и зачисление идут
// в одной транзакции БД, поэтому один и тот же номер платежа не может
// зачислиться дважды даже при конкурентных подтверждениях.
package payments

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"winbingo.dev/bingo-bot/internal/common"
)

// Repository предоставляет методы платёжного контура.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository создаёт репозиторий платежей.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// VerifyDeposit зачисляет авто-сверенный депозит.
// Одна транзакция БД: потребление номера платежа, зачисление на счёт,
// запись auto_verified в журнал. Повторный номер — ErrDuplicateReference.
func (r *Repository) VerifyDeposit(ctx context.Context, userID int64, c Confirmation, amount int64) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
		INSERT INTO payment_refs (provider, reference, user_id)
		VALUES ($1, $2, $3)
		ON CONFLICT (provider, reference) DO NOTHING
	`, c.Provider, c.Reference, userID)
	if err != nil {
		return fmt.Errorf("ошибка сохранения номера платежа: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return common.ErrDuplicateReference
	}

	tag, err = tx.Exec(ctx, `
		UPDATE accounts
		SET balance = balance + $2, total_earned = total_earned + $2, updated_at = NOW()
		WHERE user_id = $1
	`, userID, amount)
	if err != nil {
		return fmt.Errorf("ошибка зачисления депозита: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("счёт не найден (user_id=%d)", userID)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO transactions (user_id, kind, amount, status, external_ref, description)
		VALUES ($1, 'deposit', $2, 'auto_verified', $3, $4)
	`, userID, amount, c.Reference,
		fmt.Sprintf("Пополнение %s (%s)", common.FormatMoney(amount), c.Provider))
	if err != nil {
		return fmt.Errorf("ошибка записи транзакции: %w", err)
	}

	return tx.Commit(ctx)
}

// CreatePendingDeposit кладёт депозит в очередь на ручную проверку.
// Деньги НЕ зачисляются: исходный текст сохраняется для админа, номер
// платежа (если распознан) резервируется сразу — чтобы повторная
// отправка того же текста не плодила заявки.
func (r *Repository) CreatePendingDeposit(ctx context.Context, userID int64, amount int64, c Confirmation, rawText string) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	var ref *string
	if c.Reference != "" {
		tag, err := tx.Exec(ctx, `
			INSERT INTO payment_refs (provider, reference, user_id)
			VALUES ($1, $2, $3)
			ON CONFLICT (provider, reference) DO NOTHING
		`, c.Provider, c.Reference, userID)
		if err != nil {
			return fmt.Errorf("ошибка сохранения номера платежа: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return common.ErrDuplicateReference
		}
		ref = &c.Reference
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO transactions (user_id, kind, amount, status, external_ref, raw_text, description)
		VALUES ($1, 'deposit', $2, 'pending', $3, $4, $5)
	`, userID, amount, ref, rawText,
		fmt.Sprintf("Пополнение %s (на проверке)", common.FormatMoney(amount)))
	if err != nil {
		return fmt.Errorf("ошибка записи заявки: %w", err)
	}

	return tx.Commit(ctx)
}

// CreateWithdrawal списывает сумму и кладёт заявку на вывод в очередь.
// Списание сразу, выплата после одобрения админом; при отказе идёт
// компенсирующее зачисление. Всё в одной транзакции БД.
func (r *Repository) CreateWithdrawal(ctx context.Context, userID int64, amount int64, reference, destination string) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	var balance int64
	err = tx.QueryRow(ctx, `
		SELECT balance FROM accounts WHERE user_id = $1 FOR UPDATE
	`, userID).Scan(&balance)
	if err != nil {
		return fmt.Errorf("ошибка получения баланса: %w", err)
	}
	if balance < amount {
		return common.ErrInsufficientFunds
	}

	_, err = tx.Exec(ctx, `
		UPDATE accounts
		SET balance = balance - $2, total_spent = total_spent + $2, updated_at = NOW()
		WHERE user_id = $1
	`, userID, amount)
	if err != nil {
		return fmt.Errorf("ошибка списания: %w", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO transactions (user_id, kind, amount, status, external_ref, payout_destination, description)
		VALUES ($1, 'withdrawal', $2, 'pending', $3, $4, $5)
	`, userID, amount, reference, destination,
		fmt.Sprintf("Вывод %s (на проверке)", common.FormatMoney(amount)))
	if err != nil {
		return fmt.Errorf("ошибка записи заявки: %w", err)
	}

	return tx.Commit(ctx)
}

// ListPending возвращает заявки, ожидающие решения админа (старые первыми).
func (r *Repository) ListPending(ctx context.Context, limit int) ([]*Request, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, user_id, kind, amount, external_ref, raw_text, payout_destination, description, created_at
		FROM transactions
		WHERE status = 'pending'
		ORDER BY created_at, id
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения заявок: %w", err)
	}
	defer rows.Close()

	var out []*Request
	for rows.Next() {
		var req Request
		err := rows.Scan(
			&req.ID, &req.UserID, &req.Kind, &req.Amount,
			&req.ExternalRef, &req.RawText, &req.PayoutDestination,
			&req.Description, &req.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("ошибка сканирования заявки: %w", err)
		}
		out = append(out, &req)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ошибка чтения строк: %w", err)
	}
	return out, nil
}

// CountPending возвращает размер очереди (для напоминаний админам).
func (r *Repository) CountPending(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM transactions WHERE status = 'pending'`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("ошибка подсчёта заявок: %w", err)
	}
	return n, nil
}

// Approve одобряет pending-заявку.
// Депозит — зачисление на счёт; вывод — только смена статуса (деньги
// уже списаны, выплату админ проводит вне бота). Строка заявки
// блокируется FOR UPDATE: двойное одобрение невозможно.
func (r *Repository) Approve(ctx context.Context, requestID int64) (*Request, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	req, err := lockPending(ctx, tx, requestID)
	if err != nil {
		return nil, err
	}

	_, err = tx.Exec(ctx, `UPDATE transactions SET status = 'approved' WHERE id = $1`, requestID)
	if err != nil {
		return nil, fmt.Errorf("ошибка обновления статуса: %w", err)
	}

	if req.Kind == "deposit" {
		_, err = tx.Exec(ctx, `
			UPDATE accounts
			SET balance = balance + $2, total_earned = total_earned + $2, updated_at = NOW()
			WHERE user_id = $1
		`, req.UserID, req.Amount)
		if err != nil {
			return nil, fmt.Errorf("ошибка зачисления депозита: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return req, nil
}

// Reject отклоняет pending-заявку.
// Вывод — компенсирующее зачисление (деньги были списаны при создании);
// депозит — только смена статуса, зачисления не было.
func (r *Repository) Reject(ctx context.Context, requestID int64) (*Request, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	req, err := lockPending(ctx, tx, requestID)
	if err != nil {
		return nil, err
	}

	_, err = tx.Exec(ctx, `UPDATE transactions SET status = 'rejected' WHERE id = $1`, requestID)
	if err != nil {
		return nil, fmt.Errorf("ошибка обновления статуса: %w", err)
	}

	if req.Kind == "withdrawal" {
		_, err = tx.Exec(ctx, `
			UPDATE accounts
			SET balance = balance + $2, total_earned = total_earned + $2, updated_at = NOW()
			WHERE user_id = $1
		`, req.UserID, req.Amount)
		if err != nil {
			return nil, fmt.Errorf("ошибка возврата средств: %w", err)
		}
		_, err = tx.Exec(ctx, `
			INSERT INTO transactions (user_id, kind, amount, status, description)
			VALUES ($1, 'adjust', $2, 'approved', $3)
		`, req.UserID, req.Amount,
			fmt.Sprintf("Возврат: вывод %s отклонён", common.FormatMoney(req.Amount)))
		if err != nil {
			return nil, fmt.Errorf("ошибка записи возврата: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return req, nil
}

// lockPending блокирует pending-заявку FOR UPDATE.
// Не pending или не существует — common.ErrRequestNotPending.
func lockPending(ctx context.Context, tx pgx.Tx, requestID int64) (*Request, error) {
	var req Request
	var status string
	err := tx.QueryRow(ctx, `
		SELECT id, user_id, kind, amount, status, external_ref, raw_text, payout_destination, description, created_at
		FROM transactions
		WHERE id = $1
		FOR UPDATE
	`, requestID).Scan(
		&req.ID, &req.UserID, &req.Kind, &req.Amount, &status,
		&req.ExternalRef, &req.RawText, &req.PayoutDestination,
		&req.Description, &req.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.ErrRequestNotPending
		}
		return nil, fmt.Errorf("ошибка чтения заявки: %w", err)
	}
	if status != "pending" {
		return nil, common.ErrRequestNotPending
	}
	return &req, nil
}
