// Package ledger — repository.go выполняет все операции с таблицами
// accounts и transactions.
//
// Каждая денежная операция — одна транзакция БД: изменение баланса и
// запись в журнал либо фиксируются вместе, либо не происходят вовсе.
// Строка счёта блокируется SELECT ... FOR UPDATE, поэтому конкурентные
// операции по одному счёту сериализуются на уровне БД; разные счета
// обрабатываются параллельно.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"winbingo.dev/bingo-bot/internal/common"
)

// Repository предоставляет методы для работы со счетами и журналом.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository создаёт новый репозиторий леджера.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// EnsureAccount гарантирует, что у игрока есть счёт.
// Начальный баланс всегда 0; бонус за регистрацию идёт отдельным Credit.
func (r *Repository) EnsureAccount(ctx context.Context, userID int64) error {
	query := `
		INSERT INTO accounts (user_id, balance, coins, total_earned, total_spent)
		VALUES ($1, 0, 0, 0, 0)
		ON CONFLICT (user_id) DO NOTHING
	`
	if _, err := r.db.Exec(ctx, query, userID); err != nil {
		return fmt.Errorf("ошибка создания счёта: %w", err)
	}
	return nil
}

// GetAccount возвращает счёт игрока.
func (r *Repository) GetAccount(ctx context.Context, userID int64) (*Account, error) {
	query := `
		SELECT id, user_id, balance, coins, total_earned, total_spent, created_at, updated_at
		FROM accounts
		WHERE user_id = $1
	`
	var a Account
	err := r.db.QueryRow(ctx, query, userID).Scan(
		&a.ID, &a.UserID, &a.Balance, &a.Coins,
		&a.TotalEarned, &a.TotalSpent, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("счёт не найден (user_id=%d): %w", userID, err)
		}
		return nil, fmt.Errorf("ошибка чтения счёта: %w", err)
	}
	return &a, nil
}

// Credit зачисляет сумму на счёт и пишет запись в журнал.
// При нормальной работе не может отказать (кроме ошибок БД).
func (r *Repository) Credit(ctx context.Context, userID int64, amount int64, kind, description string) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
		UPDATE accounts
		SET balance = balance + $2, total_earned = total_earned + $2, updated_at = NOW()
		WHERE user_id = $1
	`, userID, amount)
	if err != nil {
		return fmt.Errorf("ошибка зачисления: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("счёт не найден (user_id=%d)", userID)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO transactions (user_id, kind, amount, status, description)
		VALUES ($1, $2, $3, 'approved', $4)
	`, userID, kind, amount, description)
	if err != nil {
		return fmt.Errorf("ошибка записи транзакции: %w", err)
	}

	return tx.Commit(ctx)
}

// Debit списывает сумму со счёта и пишет запись в журнал.
// Возвращает common.ErrInsufficientFunds, если средств не хватает —
// баланс не может уйти в минус (плюс CHECK в схеме на крайний случай).
func (r *Repository) Debit(ctx context.Context, userID int64, amount int64, kind, description string) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	// Блокируем строку счёта и проверяем баланс
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
		INSERT INTO transactions (user_id, kind, amount, status, description)
		VALUES ($1, $2, $3, 'approved', $4)
	`, userID, kind, amount, description)
	if err != nil {
		return fmt.Errorf("ошибка записи транзакции: %w", err)
	}

	return tx.Commit(ctx)
}

// Transfer переводит сумму от одного игрока к другому.
// Атомарная операция: либо оба баланса обновятся, либо ни одного.
// Счета блокируются в порядке возрастания user_id — от дедлоков
// при встречных переводах.
func (r *Repository) Transfer(ctx context.Context, fromUserID, toUserID, amount int64) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	first, second := fromUserID, toUserID
	if second < first {
		first, second = second, first
	}

	balances := make(map[int64]int64, 2)
	for _, id := range []int64{first, second} {
		var b int64
		err = tx.QueryRow(ctx, `
			SELECT balance FROM accounts WHERE user_id = $1 FOR UPDATE
		`, id).Scan(&b)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) && id == toUserID {
				return common.ErrUnknownRecipient
			}
			return fmt.Errorf("счёт не найден (user_id=%d): %w", id, err)
		}
		balances[id] = b
	}

	if balances[fromUserID] < amount {
		return common.ErrInsufficientFunds
	}

	_, err = tx.Exec(ctx, `
		UPDATE accounts
		SET balance = balance - $2, total_spent = total_spent + $2, updated_at = NOW()
		WHERE user_id = $1
	`, fromUserID, amount)
	if err != nil {
		return fmt.Errorf("ошибка списания у отправителя: %w", err)
	}

	_, err = tx.Exec(ctx, `
		UPDATE accounts
		SET balance = balance + $2, total_earned = total_earned + $2, updated_at = NOW()
		WHERE user_id = $1
	`, toUserID, amount)
	if err != nil {
		return fmt.Errorf("ошибка зачисления получателю: %w", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO transactions (user_id, counterparty_id, kind, amount, status, description)
		VALUES ($1, $2, 'transfer', $3, 'approved', $4)
	`, fromUserID, toUserID, amount, fmt.Sprintf("Перевод %s", common.FormatMoney(amount)))
	if err != nil {
		return fmt.Errorf("ошибка записи транзакции: %w", err)
	}

	return tx.Commit(ctx)
}

// AddCoins начисляет бонусные монеты (вторичный баланс).
// Монеты — не деньги: запись в денежный журнал не создаётся.
func (r *Repository) AddCoins(ctx context.Context, userID int64, coins int64) error {
	query := `UPDATE accounts SET coins = coins + $2, updated_at = NOW() WHERE user_id = $1`
	if _, err := r.db.Exec(ctx, query, userID, coins); err != nil {
		return fmt.Errorf("ошибка начисления монет: %w", err)
	}
	return nil
}

// ExchangeCoins атомарно обменивает ВСЕ бонусные монеты игрока на быры
// по курсу rate (сантимов за монету). Возвращает обменянное количество
// монет и зачисленную сумму.
func (r *Repository) ExchangeCoins(ctx context.Context, userID int64, rate int64) (int64, int64, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	var coins int64
	err = tx.QueryRow(ctx, `
		SELECT coins FROM accounts WHERE user_id = $1 FOR UPDATE
	`, userID).Scan(&coins)
	if err != nil {
		return 0, 0, fmt.Errorf("ошибка получения монет: %w", err)
	}
	if coins <= 0 {
		return 0, 0, common.ErrNotEnoughCoins
	}

	amount := coins * rate
	_, err = tx.Exec(ctx, `
		UPDATE accounts
		SET coins = 0, balance = balance + $2, total_earned = total_earned + $2, updated_at = NOW()
		WHERE user_id = $1
	`, userID, amount)
	if err != nil {
		return 0, 0, fmt.Errorf("ошибка обмена монет: %w", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO transactions (user_id, kind, amount, status, description)
		VALUES ($1, 'coin_exchange', $2, 'approved', $3)
	`, userID, amount, fmt.Sprintf("Обмен %d монет", coins))
	if err != nil {
		return 0, 0, fmt.Errorf("ошибка записи транзакции: %w", err)
	}

	return coins, amount, tx.Commit(ctx)
}

// GetTransactions возвращает последние N транзакций игрока.
func (r *Repository) GetTransactions(ctx context.Context, userID int64, limit int) ([]*Transaction, error) {
	query := `
		SELECT id, user_id, counterparty_id, kind, amount, status,
		       external_ref, raw_text, payout_destination, description, created_at
		FROM transactions
		WHERE user_id = $1 OR counterparty_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`
	rows, err := r.db.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения транзакций: %w", err)
	}
	defer rows.Close()

	var out []*Transaction
	for rows.Next() {
		var t Transaction
		err := rows.Scan(
			&t.ID, &t.UserID, &t.CounterpartyID, &t.Kind, &t.Amount, &t.Status,
			&t.ExternalRef, &t.RawText, &t.PayoutDestination, &t.Description, &t.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("ошибка сканирования транзакции: %w", err)
		}
		out = append(out, &t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ошибка чтения строк: %w", err)
	}
	return out, nil
}

// TotalBalance возвращает сумму всех балансов (для сверки).
func (r *Repository) TotalBalance(ctx context.Context) (int64, error) {
	var total int64
	err := r.db.QueryRow(ctx, `SELECT COALESCE(SUM(balance), 0) FROM accounts`).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("ошибка подсчёта суммарного баланса: %w", err)
	}
	return total, nil
}

// GetTransactionsByPeriod возвращает транзакции игрока за период.
func (r *Repository) GetTransactionsByPeriod(ctx context.Context, userID int64, since time.Time) ([]*Transaction, error) {
	query := `
		SELECT id, user_id, counterparty_id, kind, amount, status,
		       external_ref, raw_text, payout_destination, description, created_at
		FROM transactions
		WHERE (user_id = $1 OR counterparty_id = $1) AND created_at >= $2
		ORDER BY created_at DESC
	`
	rows, err := r.db.Query(ctx, query, userID, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Transaction
	for rows.Next() {
		var t Transaction
		if err := rows.Scan(
			&t.ID, &t.UserID, &t.CounterpartyID, &t.Kind, &t.Amount, &t.Status,
			&t.ExternalRef, &t.RawText, &t.PayoutDestination, &t.Description, &t.CreatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, &t)
	}
	return out, rows.Err()
}
