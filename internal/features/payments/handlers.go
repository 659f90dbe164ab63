// Package payments — handlers.go обрабатывает платёжные команды:
// !пополнить, !подтверждение, !вывести.
package payments

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"

	"winbingo.dev/bingo-bot/internal/common"
)

// Реквизиты для пополнения. Показываются в !пополнить.
const depositInstructions = `💳 Пополнение счёта

1. Переведите нужную сумму:
   • CBE: счёт 1000123456789
   • Telebirr: номер 0911234567

2. Пришлите подтверждение командой:
   !подтверждение <сумма> <текст SMS или квитанции>

Например:
!подтверждение 150 Dear customer, you have transferred ETB 150.00 ... Ref FT24123ABC45

Если текст распознан и сумма сходится — зачисление мгновенное.
Иначе заявку проверит администратор.`

// Handler обрабатывает платёжные команды.
type Handler struct {
	service *Service
	bot     *tgbotapi.BotAPI
}

// NewHandler создаёт обработчик платёжных команд.
func NewHandler(service *Service, bot *tgbotapi.BotAPI) *Handler {
	return &Handler{service: service, bot: bot}
}

// HandleDepositInfo обрабатывает команду !пополнить — реквизиты и инструкция.
func (h *Handler) HandleDepositInfo(ctx context.Context, chatID int64) {
	h.sendMessage(chatID, depositInstructions)
}

// HandleConfirmation обрабатывает команду
// !подтверждение <сумма> <текст подтверждения>.
func (h *Handler) HandleConfirmation(ctx context.Context, chatID, userID int64, args []string) {
	if len(args) < 2 {
		h.sendMessage(chatID, "❌ Формат: !подтверждение <сумма> <текст подтверждения>")
		return
	}

	amount, err := common.ParseMoney(args[0])
	if err != nil || amount <= 0 {
		h.sendMessage(chatID, "❌ Первым аргументом укажите сумму в бырах")
		return
	}
	rawText := strings.Join(args[1:], " ")

	result, err := h.service.Deposit(ctx, userID, amount, rawText)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrDuplicateReference):
			h.sendMessage(chatID, "❌ Этот номер платежа уже был использован")
		case errors.Is(err, common.ErrInvalidAmount):
			h.sendMessage(chatID, "❌ Сумма должна быть положительной")
		default:
			log.WithError(err).Error("Ошибка обработки депозита")
			h.sendMessage(chatID, "❌ Не удалось обработать подтверждение, попробуйте позже")
		}
		return
	}

	if result.AutoVerified {
		h.sendMessage(chatID, fmt.Sprintf(
			"✅ Платёж %s подтверждён, %s зачислено на баланс",
			result.Reference, common.FormatMoney(result.Amount)))
		return
	}

	// Игроку называем конкретную причину ручной проверки
	reason := "не удалось распознать текст подтверждения"
	if errors.Is(result.Reason, common.ErrAmountMismatch) {
		reason = "сумма в тексте не совпадает с заявленной"
	}
	h.sendMessage(chatID, fmt.Sprintf(
		"⏳ Подтверждение на %s отправлено на проверку администратору: %s.\nОбычно это занимает до часа — мы сообщим о решении.",
		common.FormatMoney(result.Amount), reason))
}

// HandleWithdraw обрабатывает команду !вывести <сумма> <реквизиты>.
func (h *Handler) HandleWithdraw(ctx context.Context, chatID, userID int64, args []string) {
	if len(args) < 2 {
		h.sendMessage(chatID, "❌ Формат: !вывести <сумма> <реквизиты>\nНапример: !вывести 200 CBE 1000987654321")
		return
	}

	amount, err := common.ParseMoney(args[0])
	if err != nil || amount <= 0 {
		h.sendMessage(chatID, "❌ Первым аргументом укажите сумму в бырах")
		return
	}
	destination := strings.Join(args[1:], " ")

	result, err := h.service.Withdraw(ctx, userID, amount, destination)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrInsufficientFunds):
			h.sendMessage(chatID, "❌ Недостаточно средств на счёте")
		case errors.Is(err, common.ErrInvalidAmount):
			h.sendMessage(chatID, fmt.Sprintf("❌ %s", err))
		default:
			log.WithError(err).Error("Ошибка создания заявки на вывод")
			h.sendMessage(chatID, "❌ Не удалось создать заявку, попробуйте позже")
		}
		return
	}

	h.sendMessage(chatID, fmt.Sprintf(
		"⏳ Заявка на вывод %s создана (№ %s).\nСумма заморожена; выплата после проверки администратором.",
		common.FormatMoney(result.Amount), result.Reference))
}

// sendMessage — утилита для отправки сообщений.
func (h *Handler) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := h.bot.Send(msg); err != nil {
		log.WithError(err).WithField("chat_id", chatID).Error("Ошибка отправки сообщения")
	}
}
