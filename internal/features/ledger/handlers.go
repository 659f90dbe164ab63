// Package ledger — handlers.go обрабатывает команды:
// !баланс, !перевести, !транзакции, !обменять.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"

	"winbingo.dev/bingo-bot/internal/common"
	"winbingo.dev/bingo-bot/internal/features/players"
)

// Handler обрабатывает денежные команды.
type Handler struct {
	service       *Service
	playerService *players.Service // для поиска получателя перевода
	bot           *tgbotapi.BotAPI
}

// NewHandler создаёт обработчик денежных команд.
func NewHandler(service *Service, playerService *players.Service, bot *tgbotapi.BotAPI) *Handler {
	return &Handler{
		service:       service,
		playerService: playerService,
		bot:           bot,
	}
}

// HandleBalance обрабатывает команду !баланс.
func (h *Handler) HandleBalance(ctx context.Context, chatID, userID int64) {
	account, err := h.service.GetAccount(ctx, userID)
	if err != nil {
		log.WithError(err).Error("Ошибка получения баланса")
		h.sendMessage(chatID, "❌ Счёт не найден — завершите регистрацию через /start")
		return
	}

	text := fmt.Sprintf("💰 Баланс: %s\n🪙 Бонусные монеты: %d %s",
		common.FormatMoney(account.Balance),
		account.Coins, common.PluralizeCoins(account.Coins))
	h.sendMessage(chatID, text)
}

// HandleTransfer обрабатывает команду !перевести @username сумма.
func (h *Handler) HandleTransfer(ctx context.Context, chatID, fromUserID int64, args []string) {
	if len(args) < 2 {
		h.sendMessage(chatID, "❌ Формат: !перевести @username сумма")
		return
	}

	username := strings.TrimPrefix(args[0], "@")
	if username == "" {
		h.sendMessage(chatID, "❌ Укажите @username получателя")
		return
	}

	amount, err := common.ParseMoney(args[1])
	if err != nil || amount <= 0 {
		h.sendMessage(chatID, "❌ Сумма должна быть положительным числом")
		return
	}

	recipient, err := h.playerService.GetByUsername(ctx, username)
	if err != nil {
		h.sendMessage(chatID, "❌ Получатель не найден")
		return
	}

	err = h.service.Transfer(ctx, fromUserID, recipient.UserID, amount)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrSelfTransfer):
			h.sendMessage(chatID, "❌ Нельзя переводить средства самому себе")
		case errors.Is(err, common.ErrInsufficientFunds):
			h.sendMessage(chatID, "❌ Недостаточно средств на счёте")
		case errors.Is(err, common.ErrUnknownRecipient):
			h.sendMessage(chatID, "❌ У получателя ещё нет счёта")
		case errors.Is(err, common.ErrInvalidAmount):
			h.sendMessage(chatID, "❌ Сумма должна быть положительной")
		default:
			log.WithError(err).Error("Ошибка перевода")
			h.sendMessage(chatID, "❌ Ошибка выполнения перевода")
		}
		return
	}

	newBalance := "—"
	if account, err := h.service.GetAccount(ctx, fromUserID); err == nil {
		newBalance = common.FormatMoney(account.Balance)
	}
	h.sendMessage(chatID, fmt.Sprintf("✅ Переведено %s @%s\nВаш баланс: %s",
		common.FormatMoney(amount), username, newBalance))

	// Уведомляем получателя, не дожидаясь результата
	go h.sendMessage(recipient.UserID, fmt.Sprintf("💰 Вам перевели %s", common.FormatMoney(amount)))
}

// HandleTransactions обрабатывает команду !транзакции.
func (h *Handler) HandleTransactions(ctx context.Context, chatID, userID int64) {
	history, err := h.service.GetTransactionHistory(ctx, userID)
	if err != nil {
		log.WithError(err).Error("Ошибка получения транзакций")
		h.sendMessage(chatID, "❌ Ошибка получения истории транзакций")
		return
	}
	h.sendMessage(chatID, history)
}

// HandleExchange обрабатывает команду !обменять — конвертация бонусных
// монет в быры по курсу из конфигурации.
func (h *Handler) HandleExchange(ctx context.Context, chatID, userID int64) {
	coins, amount, err := h.service.ExchangeCoins(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrNotEnoughCoins) {
			h.sendMessage(chatID, "❌ У вас нет бонусных монет")
			return
		}
		log.WithError(err).Error("Ошибка обмена монет")
		h.sendMessage(chatID, "❌ Ошибка обмена, попробуйте позже")
		return
	}

	h.sendMessage(chatID, fmt.Sprintf("✅ Обменяно %d %s на %s",
		coins, common.PluralizeCoins(coins), common.FormatMoney(amount)))
}

// sendMessage — утилита для отправки сообщений.
func (h *Handler) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := h.bot.Send(msg); err != nil {
		log.WithError(err).WithField("chat_id", chatID).Error("Ошибка отправки сообщения")
	}
}
