// Package admin — handlers.go обрабатывает взаимодействие с админ-панелью.
// Панель работает через Reply Keyboard в личных сообщениях.
// Поток: аутентификация → клавиатура → выбор действия → пошаговый диалог.
package admin

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"

	"winbingo.dev/bingo-bot/internal/common"
	"winbingo.dev/bingo-bot/internal/features/payments"
)

// Кнопки клавиатуры панели.
const (
	btnRequests = "Заявки"
	btnCredit   = "Начислить"
	btnDebit    = "Списать"
	btnBan      = "Заблокировать"
	btnUnban    = "Разблокировать"
	btnSummary  = "Сводка"
	btnLogout   = "Выйти"
)

// Handler обрабатывает админ-команды.
type Handler struct {
	service *Service
	bot     *tgbotapi.BotAPI
}

// NewHandler создаёт обработчик админ-панели.
func NewHandler(service *Service, bot *tgbotapi.BotAPI) *Handler {
	return &Handler{service: service, bot: bot}
}

// HandleAdminMessage обрабатывает любое сообщение от администратора в DM.
// Определяет текущее состояние диалога и маршрутизирует сообщение.
// Возвращает true, если сообщение обработано панелью.
func (h *Handler) HandleAdminMessage(ctx context.Context, chatID int64, userID int64, text string) bool {
	if !h.service.IsAdmin(userID) {
		return false
	}

	state := h.service.GetState(userID)

	if state != nil && state.State == StateAwaitingPassword {
		h.handlePasswordInput(ctx, chatID, userID, text)
		return true
	}

	// Вход в панель — по ключевому слову; всё остальное без сессии
	// уходит обычным обработчикам (админ тоже игрок)
	if !h.service.HasActiveSession(ctx, userID) {
		if isPanelKeyword(text) {
			h.sendMessage(chatID, "🔐 Введите пароль для доступа к админ-панели:")
			h.service.SetState(userID, StateAwaitingPassword, nil)
			return true
		}
		return false
	}

	h.service.TouchSession(ctx, userID)

	if state != nil {
		switch state.State {
		case StateCreditInput:
			h.handleAdjustInput(ctx, chatID, userID, text, true)
			return true
		case StateDebitInput:
			h.handleAdjustInput(ctx, chatID, userID, text, false)
			return true
		case StateBanInput:
			h.handleBanInput(ctx, chatID, userID, text, true)
			return true
		case StateUnbanInput:
			h.handleBanInput(ctx, chatID, userID, text, false)
			return true
		}
	}

	switch text {
	case btnRequests:
		h.showRequests(ctx, chatID)
		return true
	case btnCredit:
		h.sendMessage(chatID, "Введите: @username сумма причина")
		h.service.SetState(userID, StateCreditInput, nil)
		return true
	case btnDebit:
		h.sendMessage(chatID, "Введите: @username сумма причина")
		h.service.SetState(userID, StateDebitInput, nil)
		return true
	case btnBan:
		h.sendMessage(chatID, "Введите @username игрока для блокировки:")
		h.service.SetState(userID, StateBanInput, nil)
		return true
	case btnUnban:
		h.sendMessage(chatID, "Введите @username игрока для разблокировки:")
		h.service.SetState(userID, StateUnbanInput, nil)
		return true
	case btnSummary:
		h.showSummary(ctx, chatID)
		return true
	case btnLogout:
		if err := h.service.Logout(ctx, userID); err != nil {
			log.WithError(err).Error("Ошибка выхода из панели")
		}
		msg := tgbotapi.NewMessage(chatID, "👋 Сессия завершена")
		msg.ReplyMarkup = tgbotapi.NewRemoveKeyboard(true)
		if _, err := h.bot.Send(msg); err != nil {
			log.WithError(err).Error("Ошибка отправки сообщения")
		}
		return true
	}

	if isPanelKeyword(text) {
		h.showKeyboard(chatID)
		return true
	}

	// Решения по заявкам: "одобрить 42" / "отклонить 42"
	fields := strings.Fields(strings.ToLower(text))
	if len(fields) == 2 {
		switch fields[0] {
		case "одобрить", "!одобрить":
			h.handleDecision(ctx, chatID, fields[1], true)
			return true
		case "отклонить", "!отклонить":
			h.handleDecision(ctx, chatID, fields[1], false)
			return true
		}
	}

	return false
}

func isPanelKeyword(text string) bool {
	switch strings.ToLower(strings.TrimSpace(text)) {
	case "админ", "панель", "!админ", "!панель":
		return true
	}
	return false
}

// handlePasswordInput обрабатывает ввод пароля.
func (h *Handler) handlePasswordInput(ctx context.Context, chatID int64, userID int64, password string) {
	err := h.service.VerifyPassword(ctx, userID, password)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrWrongPassword):
			h.sendMessage(chatID, "❌ Неверный пароль")
		case errors.Is(err, common.ErrTooManyAttempts):
			h.sendMessage(chatID, "❌ Слишком много попыток, подождите 1 час")
		default:
			log.WithError(err).Error("Ошибка проверки пароля")
			h.sendMessage(chatID, "❌ Ошибка аутентификации, попробуйте позже")
		}
		h.service.ClearState(userID)
		return
	}

	h.service.ClearState(userID)
	h.sendMessage(chatID, "✅ Аутентификация успешна!")
	h.showKeyboard(chatID)
}

// showKeyboard отображает клавиатуру админ-панели.
func (h *Handler) showKeyboard(chatID int64) {
	keyboard := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnRequests),
			tgbotapi.NewKeyboardButton(btnSummary),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnCredit),
			tgbotapi.NewKeyboardButton(btnDebit),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnBan),
			tgbotapi.NewKeyboardButton(btnUnban),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnLogout),
		),
	)

	msg := tgbotapi.NewMessage(chatID, "✅ Админ-панель открыта\nЗаявки решаются так: «одобрить 42» или «отклонить 42»")
	msg.ReplyMarkup = keyboard
	if _, err := h.bot.Send(msg); err != nil {
		log.WithError(err).Error("Ошибка отправки клавиатуры")
	}
}

// showRequests показывает очередь платёжных заявок.
func (h *Handler) showRequests(ctx context.Context, chatID int64) {
	requests, err := h.service.ListPending(ctx)
	if err != nil {
		log.WithError(err).Error("Ошибка получения заявок")
		h.sendMessage(chatID, "❌ Не удалось получить очередь заявок")
		return
	}
	if len(requests) == 0 {
		h.sendMessage(chatID, "📭 Очередь заявок пуста")
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("📬 Заявок в очереди: %d\n\n", len(requests)))
	for _, req := range requests {
		sb.WriteString(fmt.Sprintf("№%d — %s %s от игрока %d, %s\n",
			req.ID, kindText(req.Kind), common.FormatMoney(req.Amount),
			req.UserID, common.FormatDateTime(req.CreatedAt)))
		if req.PayoutDestination != nil {
			sb.WriteString(fmt.Sprintf("   Реквизиты: %s\n", *req.PayoutDestination))
		}
		if req.RawText != nil {
			sb.WriteString(fmt.Sprintf("   Текст: %s\n", truncate(*req.RawText, 120)))
		}
	}
	sb.WriteString("\nРешение: «одобрить <№>» или «отклонить <№>»")

	h.sendMessage(chatID, sb.String())
}

// handleDecision одобряет или отклоняет заявку и уведомляет игрока.
func (h *Handler) handleDecision(ctx context.Context, chatID int64, idArg string, approve bool) {
	requestID, err := strconv.ParseInt(idArg, 10, 64)
	if err != nil {
		h.sendMessage(chatID, "❌ Номер заявки должен быть числом")
		return
	}

	var req *payments.Request
	if approve {
		req, err = h.service.Approve(ctx, requestID)
	} else {
		req, err = h.service.Reject(ctx, requestID)
	}
	if err != nil {
		if errors.Is(err, common.ErrRequestNotPending) {
			h.sendMessage(chatID, "❌ Заявка не найдена или уже обработана")
			return
		}
		log.WithError(err).Error("Ошибка обработки заявки")
		h.sendMessage(chatID, "❌ Не удалось обработать заявку")
		return
	}

	if approve {
		h.sendMessage(chatID, fmt.Sprintf("✅ Заявка №%d одобрена", req.ID))
		go h.sendMessage(req.UserID, playerApprovedText(req))
	} else {
		h.sendMessage(chatID, fmt.Sprintf("🚫 Заявка №%d отклонена", req.ID))
		go h.sendMessage(req.UserID, playerRejectedText(req))
	}
}

// handleAdjustInput обрабатывает "@username сумма причина".
func (h *Handler) handleAdjustInput(ctx context.Context, chatID int64, userID int64, text string, credit bool) {
	defer h.service.ClearState(userID)

	fields := strings.Fields(text)
	if len(fields) < 3 {
		h.sendMessage(chatID, "❌ Формат: @username сумма причина")
		return
	}

	username := strings.TrimPrefix(fields[0], "@")
	amount, err := common.ParseMoney(fields[1])
	if err != nil || amount <= 0 {
		h.sendMessage(chatID, "❌ Сумма должна быть положительным числом")
		return
	}
	reason := strings.Join(fields[2:], " ")

	if credit {
		p, err := h.service.AdjustCredit(ctx, userID, username, amount, reason)
		if err != nil {
			h.sendAdjustError(chatID, err)
			return
		}
		h.sendMessage(chatID, fmt.Sprintf("✅ Начислено %s игроку %s", common.FormatMoney(amount), p.DisplayName()))
		go h.sendMessage(p.UserID, fmt.Sprintf("💰 Администратор начислил вам %s: %s", common.FormatMoney(amount), reason))
	} else {
		p, err := h.service.AdjustDebit(ctx, userID, username, amount, reason)
		if err != nil {
			h.sendAdjustError(chatID, err)
			return
		}
		h.sendMessage(chatID, fmt.Sprintf("✅ Списано %s у игрока %s", common.FormatMoney(amount), p.DisplayName()))
		go h.sendMessage(p.UserID, fmt.Sprintf("💸 Администратор списал %s: %s", common.FormatMoney(amount), reason))
	}
}

func (h *Handler) sendAdjustError(chatID int64, err error) {
	switch {
	case errors.Is(err, common.ErrUnknownRecipient):
		h.sendMessage(chatID, "❌ Игрок не найден")
	case errors.Is(err, common.ErrInsufficientFunds):
		h.sendMessage(chatID, "❌ У игрока недостаточно средств для списания")
	default:
		log.WithError(err).Error("Ошибка корректировки баланса")
		h.sendMessage(chatID, "❌ Не удалось выполнить корректировку")
	}
}

// handleBanInput обрабатывает ввод @username для блокировки.
func (h *Handler) handleBanInput(ctx context.Context, chatID int64, userID int64, text string, ban bool) {
	defer h.service.ClearState(userID)

	username := strings.TrimPrefix(strings.TrimSpace(text), "@")
	if username == "" {
		h.sendMessage(chatID, "❌ Укажите @username игрока")
		return
	}

	player, err := h.service.SetBanned(ctx, username, ban)
	if err != nil {
		if errors.Is(err, common.ErrUnknownRecipient) {
			h.sendMessage(chatID, "❌ Игрок не найден")
			return
		}
		log.WithError(err).Error("Ошибка изменения блокировки")
		h.sendMessage(chatID, "❌ Не удалось изменить статус игрока")
		return
	}

	if ban {
		h.sendMessage(chatID, fmt.Sprintf("🚫 Игрок %s заблокирован", player.DisplayName()))
	} else {
		h.sendMessage(chatID, fmt.Sprintf("✅ Игрок %s разблокирован", player.DisplayName()))
	}
}

// showSummary показывает сводку панели.
func (h *Handler) showSummary(ctx context.Context, chatID int64) {
	summary, err := h.service.Summary(ctx)
	if err != nil {
		log.WithError(err).Error("Ошибка получения сводки")
		h.sendMessage(chatID, "❌ Не удалось получить сводку")
		return
	}
	h.sendMessage(chatID, summary)
}

func kindText(kind string) string {
	switch kind {
	case "deposit":
		return "пополнение"
	case "withdrawal":
		return "вывод"
	default:
		return kind
	}
}

func playerApprovedText(req *payments.Request) string {
	if req.Kind == "deposit" {
		return fmt.Sprintf("✅ Ваше пополнение %s одобрено и зачислено на баланс", common.FormatMoney(req.Amount))
	}
	return fmt.Sprintf("✅ Ваш вывод %s одобрен, выплата в пути", common.FormatMoney(req.Amount))
}

func playerRejectedText(req *payments.Request) string {
	if req.Kind == "deposit" {
		return fmt.Sprintf("🚫 Ваше пополнение %s отклонено. Свяжитесь с поддержкой, если это ошибка.", common.FormatMoney(req.Amount))
	}
	return fmt.Sprintf("🚫 Ваш вывод %s отклонён, средства возвращены на баланс", common.FormatMoney(req.Amount))
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "…"
}

func (h *Handler) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := h.bot.Send(msg); err != nil {
		log.WithError(err).Error("Ошибка отправки сообщения")
	}
}
