// Package players — handlers.go обрабатывает /start, шеринг контакта
// и команду !профиль.
package players

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"

	"winbingo.dev/bingo-bot/internal/common"
)

// Handler обрабатывает команды игроков.
type Handler struct {
	service *Service
	bot     *tgbotapi.BotAPI
	// onRegistered вызывается ровно один раз после успешной регистрации:
	// заводит счёт в леджере и начисляет бонус. Инъекция функцией,
	// чтобы не тянуть сюда пакет леджера.
	onRegistered func(ctx context.Context, userID int64) error
}

// NewHandler создаёт обработчик команд игроков.
func NewHandler(service *Service, bot *tgbotapi.BotAPI, onRegistered func(ctx context.Context, userID int64) error) *Handler {
	return &Handler{
		service:      service,
		bot:          bot,
		onRegistered: onRegistered,
	}
}

const helpText = `🎱 Win Bingo — команды:

!залы — список залов и их состояние
!войти <ставка> <карточка> — купить билет (например: !войти 25 7)
!зал <ставка> — состояние зала и объявленные номера
!карточка <номер> — показать карточку
!бинго <ставка> <номера через пробел> — заявить победу

!баланс — баланс и бонусные монеты
!перевести @username <сумма> — перевод другому игроку
!транзакции — последние операции
!обменять — обменять бонусные монеты на быры

!пополнить — инструкция по пополнению
!подтверждение <сумма> <текст> — прислать текст подтверждения платежа
!вывести <сумма> <реквизиты> — заявка на вывод

!профиль — ваш профиль`

// HandleStart обрабатывает /start: новым игрокам — клавиатура с запросом
// контакта, зарегистрированным — справка по командам.
func (h *Handler) HandleStart(ctx context.Context, chatID, userID int64) {
	registered, err := h.service.IsRegistered(ctx, userID)
	if err != nil {
		log.WithError(err).Error("Ошибка проверки регистрации")
		h.sendMessage(chatID, "❌ Ошибка, попробуйте позже")
		return
	}

	if registered {
		h.sendMessage(chatID, "👋 С возвращением!\n\n"+helpText)
		return
	}

	msg := tgbotapi.NewMessage(chatID,
		"👋 Добро пожаловать в Win Bingo!\n\n"+
			"Чтобы играть на деньги, завершите регистрацию — поделитесь своим номером телефона кнопкой ниже.")
	keyboard := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButtonContact("📱 Поделиться контактом"),
		),
	)
	keyboard.OneTimeKeyboard = true
	keyboard.ResizeKeyboard = true
	msg.ReplyMarkup = keyboard
	if _, err := h.bot.Send(msg); err != nil {
		log.WithError(err).Error("Ошибка отправки приветствия")
	}
}

// HandleContact обрабатывает присланный контакт.
// Принимается только СОБСТВЕННЫЙ контакт — чужой номер зарегистрировать нельзя.
func (h *Handler) HandleContact(ctx context.Context, chatID, userID int64, contact *tgbotapi.Contact) {
	if contact == nil || contact.UserID != userID {
		h.sendMessage(chatID, "❌ Пожалуйста, поделитесь именно своим контактом")
		return
	}

	justRegistered, err := h.service.Register(ctx, userID, contact.PhoneNumber)
	if err != nil {
		log.WithError(err).WithField("user_id", userID).Error("Ошибка регистрации")
		h.sendMessage(chatID, "❌ Ошибка регистрации, попробуйте позже")
		return
	}

	if !justRegistered {
		// Повторный шеринг контакта — идемпотентный no-op
		h.sendMessage(chatID, "✅ Вы уже зарегистрированы")
		return
	}

	if err := h.onRegistered(ctx, userID); err != nil {
		// Регистрация прошла, бонус не начислился — игрок не виноват
		log.WithError(err).WithField("user_id", userID).Error("Ошибка начисления бонуса за регистрацию")
	}

	msg := tgbotapi.NewMessage(chatID, "🎉 Регистрация завершена! Бонус уже на счёте.\n\n"+helpText)
	msg.ReplyMarkup = tgbotapi.NewRemoveKeyboard(true)
	if _, err := h.bot.Send(msg); err != nil {
		log.WithError(err).Error("Ошибка отправки подтверждения регистрации")
	}
}

// HandleProfile обрабатывает команду !профиль.
func (h *Handler) HandleProfile(ctx context.Context, chatID, userID int64) {
	p, err := h.service.GetByUserID(ctx, userID)
	if err != nil {
		h.sendMessage(chatID, "❌ Профиль не найден, отправьте /start")
		return
	}

	status := "не завершена — отправьте /start"
	if p.IsRegistered {
		status = "завершена"
	}
	text := fmt.Sprintf("👤 %s\nРегистрация: %s\nВ игре с: %s",
		p.DisplayName(), status, common.FormatDateTime(p.JoinedAt))
	h.sendMessage(chatID, text)
}

// sendMessage — утилита для отправки сообщений.
func (h *Handler) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := h.bot.Send(msg); err != nil {
		log.WithError(err).WithField("chat_id", chatID).Error("Ошибка отправки сообщения")
	}
}
