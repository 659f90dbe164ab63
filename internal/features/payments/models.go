// Package payments реализует пополнения и выводы средств:
// разбор текстов платёжных подтверждений, автоматическую сверку сумм,
// очередь заявок на ручную проверку админом.
// models.go описывает структуры платёжного контура.
package payments

import "time"

// Провайдеры платежей, чьи подтверждения распознаёт парсер.
const (
	ProviderCBE      = "cbe"
	ProviderTelebirr = "telebirr"
)

// Confirmation — распознанное платёжное подтверждение.
type Confirmation struct {
	Provider  string // cbe | telebirr
	Reference string // Внешний номер платежа (уникален на провайдера)
	Amount    int64  // Сумма из текста, сантимы (0 — не распознана)
}

// DepositResult — итог обработки подтверждения депозита.
type DepositResult struct {
	AutoVerified bool   // Сверка прошла, деньги зачислены сразу
	Pending      bool   // Заявка ушла на ручную проверку
	Amount       int64  // Зачисленная или заявленная сумма, сантимы
	Reference    string // Распознанный номер платежа (пусто для pending без разбора)
	Reason       error  // Почему заявка в очереди: ErrParseFailed или ErrAmountMismatch
}

// WithdrawalResult — итог заявки на вывод.
type WithdrawalResult struct {
	Reference string // Внутренний номер заявки (UUID)
	Amount    int64  // Списанная сумма, сантимы
}

// Request — заявка в очереди на ручную проверку (вид для админа).
// Проекция строки журнала транзакций со статусом pending.
type Request struct {
	ID                int64
	UserID            int64
	Kind              string // deposit | withdrawal
	Amount            int64
	ExternalRef       *string
	RawText           *string
	PayoutDestination *string
	Description       string
	CreatedAt         time.Time
}
