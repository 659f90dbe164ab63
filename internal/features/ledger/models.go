// Package ledger управляет счетами игроков и журналом транзакций.
// models.go описывает структуры для таблиц accounts и transactions.
//
// Все суммы — в сантимах (см. internal/common/money.go). Баланс меняется
// ТОЛЬКО через операции леджера; журнал транзакций append-only — записи
// никогда не редактируются, у pending-заявок меняется только статус.
package ledger

import "time"

// Account представляет счёт игрока.
// Каждый зарегистрированный игрок имеет ровно одну запись в accounts.
type Account struct {
	ID          int64     `db:"id"`           // ID записи
	UserID      int64     `db:"user_id"`      // Telegram user ID
	Balance     int64     `db:"balance"`      // Текущий баланс в сантимах (>= 0, CHECK в БД)
	Coins       int64     `db:"coins"`        // Бонусные монеты (вторичный баланс)
	TotalEarned int64     `db:"total_earned"` // Сколько всего зачислено
	TotalSpent  int64     `db:"total_spent"`  // Сколько всего списано
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

// Transaction представляет одну операцию по счёту.
// Все движения денег (ставки, выигрыши, депозиты, выводы, переводы)
// записываются сюда.
type Transaction struct {
	ID                int64     `db:"id"`
	UserID            int64     `db:"user_id"`            // Чей счёт затронут
	CounterpartyID    *int64    `db:"counterparty_id"`    // Второй участник перевода (nil для остальных)
	Kind              string    `db:"kind"`               // Тип операции (см. константы Kind*)
	Amount            int64     `db:"amount"`             // Сумма в сантимах (всегда положительная)
	Status            string    `db:"status"`             // Статус (см. константы Status*)
	ExternalRef       *string   `db:"external_ref"`       // Внешний номер платежа (депозиты/выводы)
	RawText           *string   `db:"raw_text"`           // Исходный текст подтверждения (для админа)
	PayoutDestination *string   `db:"payout_destination"` // Реквизиты для вывода
	Description       string    `db:"description"`        // Описание для истории
	CreatedAt         time.Time `db:"created_at"`
}

// Допустимые типы транзакций
const (
	KindStake       = "stake"        // Покупка билета в зале
	KindWin         = "win"          // Выигрыш раунда
	KindDeposit     = "deposit"      // Пополнение счёта
	KindWithdrawal  = "withdrawal"   // Вывод средств
	KindTransfer    = "transfer"     // Перевод между игроками
	KindSignupBonus = "signup_bonus" // Бонус за регистрацию
	KindAdjust      = "adjust"       // Ручная корректировка админом
	KindCoinXchg    = "coin_exchange" // Обмен бонусных монет на быры
)

// Статусы транзакций. Обычные операции сразу approved; депозиты,
// распознанные автоматически, — auto_verified; заявки на ручную
// проверку живут в pending, пока админ не решит.
const (
	StatusPending      = "pending"
	StatusApproved     = "approved"
	StatusRejected     = "rejected"
	StatusAutoVerified = "auto_verified"
)
