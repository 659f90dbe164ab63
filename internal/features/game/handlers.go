// Package game — handlers.go обрабатывает игровые команды:
// !залы, !войти, !карточка, !бинго, !зал.
package game

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"

	"winbingo.dev/bingo-bot/internal/common"
)

// Handler обрабатывает игровые команды.
type Handler struct {
	service *Service
	bot     *tgbotapi.BotAPI
}

// NewHandler создаёт обработчик игровых команд.
func NewHandler(service *Service, bot *tgbotapi.BotAPI) *Handler {
	return &Handler{service: service, bot: bot}
}

// HandleRooms обрабатывает команду !залы — список залов с состоянием.
func (h *Handler) HandleRooms(ctx context.Context, chatID int64) {
	snapshots := h.service.Snapshots()

	var sb strings.Builder
	sb.WriteString("🎰 Залы:\n\n")
	for _, snap := range snapshots {
		sb.WriteString(fmt.Sprintf("Ставка %s — %s, %d %s",
			common.FormatMoney(snap.Stake),
			roomStatusText(snap.Status),
			snap.Players, common.PluralizePlayers(snap.Players)))
		if snap.Status == StatusWaiting {
			wait := time.Until(snap.NextTransition).Round(time.Second)
			if wait > 0 {
				sb.WriteString(fmt.Sprintf(", старт через %s", wait))
			}
		} else {
			sb.WriteString(fmt.Sprintf(", банк %s", common.FormatMoney(snap.Pot)))
		}
		sb.WriteString("\n")
	}
	sb.WriteString("\nВход: !войти <ставка> <номер карточки>")

	h.sendMessage(chatID, sb.String())
}

// HandleJoin обрабатывает команду !войти <ставка> <номер карточки>.
// Ставка указывается в бырах, карточка — номером из диапазона зала.
func (h *Handler) HandleJoin(ctx context.Context, chatID, userID int64, args []string) {
	if len(args) < 2 {
		h.sendMessage(chatID, "❌ Формат: !войти <ставка> <номер карточки>\nНапример: !войти 25 7")
		return
	}

	stake, err := parseStakeArg(args[0])
	if err != nil {
		h.sendMessage(chatID, "❌ Ставка должна быть целым числом быров")
		return
	}
	boardNumber, err := strconv.Atoi(args[1])
	if err != nil {
		h.sendMessage(chatID, "❌ Номер карточки должен быть числом")
		return
	}

	result, err := h.service.Join(ctx, userID, stake, boardNumber)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrUnknownStake):
			h.sendMessage(chatID, "❌ Зала с такой ставкой нет — смотрите !залы")
		case errors.Is(err, common.ErrRoundInProgress):
			h.sendMessage(chatID, "❌ Раунд уже идёт, дождитесь следующего. Ставка не списана.")
		case errors.Is(err, common.ErrBoardTaken):
			h.sendMessage(chatID, "❌ Эта карточка уже занята, выберите другую. Ставка возвращена.")
		case errors.Is(err, common.ErrBadBoardNumber):
			h.sendMessage(chatID, "❌ Нет карточки с таким номером. Ставка возвращена.")
		case errors.Is(err, common.ErrInsufficientFunds):
			h.sendMessage(chatID, "❌ Недостаточно средств — пополните баланс (!пополнить)")
		default:
			log.WithError(err).Error("Ошибка входа в зал")
			h.sendMessage(chatID, "❌ Не удалось войти в зал, попробуйте позже")
		}
		return
	}

	if result.AlreadyJoined {
		h.sendMessage(chatID, fmt.Sprintf(
			"ℹ️ Вы уже в этом зале с карточкой №%d. Повторно ставка не списывается.",
			result.BoardNumber))
		return
	}

	card, _ := h.service.Card(stake, result.BoardNumber)
	h.sendMessage(chatID, fmt.Sprintf(
		"✅ Вы в зале %s, карточка №%d\nБанк: %s\n\n%s",
		common.FormatMoney(stake), result.BoardNumber,
		common.FormatMoney(result.Pot), renderCard(card)))
}

// HandleCard обрабатывает команду !карточка <номер> — показать сетку.
func (h *Handler) HandleCard(ctx context.Context, chatID int64, args []string) {
	if len(args) < 1 {
		h.sendMessage(chatID, "❌ Формат: !карточка <номер>")
		return
	}
	boardNumber, err := strconv.Atoi(args[0])
	if err != nil {
		h.sendMessage(chatID, "❌ Номер карточки должен быть числом")
		return
	}

	stakes := h.service.Registry().Stakes()
	if len(stakes) == 0 {
		h.sendMessage(chatID, "❌ Залы не настроены")
		return
	}
	// Карточка зависит только от номера, зал не важен
	card, err := h.service.Card(stakes[0], boardNumber)
	if err != nil {
		h.sendMessage(chatID, "❌ Нет карточки с таким номером")
		return
	}

	h.sendMessage(chatID, fmt.Sprintf("🃏 Карточка №%d\n\n%s", boardNumber, renderCard(card)))
}

// HandleClaim обрабатывает команду !бинго <номера через пробел>.
// Игрок перечисляет отмеченные номера; сервер сам находит линию.
func (h *Handler) HandleClaim(ctx context.Context, chatID, userID int64, args []string) {
	if len(args) < 1 {
		h.sendMessage(chatID, "❌ Формат: !бинго <ставка> <номера линии через пробел>\nНапример: !бинго 25 4 17 33 52 68")
		return
	}

	stake, err := parseStakeArg(args[0])
	if err != nil {
		h.sendMessage(chatID, "❌ Первым аргументом укажите ставку зала")
		return
	}

	marked := make([]int, 0, len(args)-1)
	for _, a := range args[1:] {
		n, err := strconv.Atoi(a)
		if err != nil || n < 1 || n > MaxNumber {
			h.sendMessage(chatID, fmt.Sprintf("❌ %q — не номер бинго (1–%d)", a, MaxNumber))
			return
		}
		marked = append(marked, n)
	}
	if len(marked) == 0 {
		h.sendMessage(chatID, "❌ Перечислите номера линии после ставки")
		return
	}

	result, err := h.service.Claim(ctx, userID, stake, marked)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrUnknownStake):
			h.sendMessage(chatID, "❌ Зала с такой ставкой нет — смотрите !залы")
		case errors.Is(err, common.ErrRoundClosed):
			h.sendMessage(chatID, "❌ Раунд уже закрыт — заявка опоздала")
		case errors.Is(err, common.ErrNotInRoom):
			h.sendMessage(chatID, "❌ Вы не входили в этот зал")
		case errors.Is(err, common.ErrNoPatternDetected):
			h.sendMessage(chatID, "❌ Эти номера не образуют выигрышную линию на вашей карточке")
		case errors.Is(err, common.ErrPatternNotCalled):
			h.sendMessage(chatID, "❌ Не все номера линии были объявлены — дождитесь их")
		default:
			log.WithError(err).Error("Ошибка заявки на бинго")
			h.sendMessage(chatID, "❌ Не удалось обработать заявку, попробуйте ещё раз")
		}
		return
	}

	h.sendMessage(chatID, fmt.Sprintf(
		"🎉 БИНГО! %s, карточка №%d\nВыигрыш: %s зачислен на баланс",
		result.Pattern, result.BoardNumber, common.FormatMoney(result.Pot)))
}

// HandleRoomStatus обрабатывает команду !зал <ставка> — детали зала.
func (h *Handler) HandleRoomStatus(ctx context.Context, chatID int64, args []string) {
	if len(args) < 1 {
		h.sendMessage(chatID, "❌ Формат: !зал <ставка>")
		return
	}
	stake, err := parseStakeArg(args[0])
	if err != nil {
		h.sendMessage(chatID, "❌ Ставка должна быть целым числом быров")
		return
	}

	snap, err := h.service.Snapshot(stake)
	if err != nil {
		h.sendMessage(chatID, "❌ Зала с такой ставкой нет — смотрите !залы")
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("🎰 Зал %s — %s\n", common.FormatMoney(snap.Stake), roomStatusText(snap.Status)))
	sb.WriteString(fmt.Sprintf("Игроков: %d\n", snap.Players))
	if snap.Status == StatusPlaying {
		sb.WriteString(fmt.Sprintf("Банк: %s\n", common.FormatMoney(snap.Pot)))
		if snap.CurrentCall != 0 {
			sb.WriteString(fmt.Sprintf("Последний номер: %s-%d\n", columnLetter(snap.CurrentCall), snap.CurrentCall))
		}
		sb.WriteString(fmt.Sprintf("Объявлено %d %s: %s\n",
			len(snap.CalledNumbers),
			common.PluralizeNumbers(len(snap.CalledNumbers)),
			formatCalled(snap.CalledNumbers)))
	} else {
		wait := time.Until(snap.NextTransition).Round(time.Second)
		if wait > 0 {
			sb.WriteString(fmt.Sprintf("Старт через %s\n", wait))
		}
	}

	h.sendMessage(chatID, sb.String())
}

// renderCard — моноширинная сетка 5×5 для сообщения.
func renderCard(card Card) string {
	var sb strings.Builder
	sb.WriteString("```\n  B  I  N  G  O\n")
	for row := 0; row < CardSize; row++ {
		for col := 0; col < CardSize; col++ {
			n := card.Grid[row][col]
			if n == FreeCell {
				sb.WriteString("  ★")
			} else {
				sb.WriteString(fmt.Sprintf(" %2d", n))
			}
		}
		sb.WriteString("\n")
	}
	sb.WriteString("```")
	return sb.String()
}

func formatCalled(called []int) string {
	if len(called) == 0 {
		return "—"
	}
	parts := make([]string, len(called))
	for i, n := range called {
		parts[i] = strconv.Itoa(n)
	}
	return strings.Join(parts, ", ")
}

func roomStatusText(status string) string {
	if status == StatusPlaying {
		return "идёт раунд"
	}
	return "набор игроков"
}

// parseStakeArg разбирает ставку в бырах из аргумента команды
// и переводит в сантимы.
func parseStakeArg(s string) (int64, error) {
	birr, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || birr <= 0 {
		return 0, common.ErrUnknownStake
	}
	return birr * common.SantimPerBirr, nil
}

// sendMessage — утилита для отправки сообщений.
func (h *Handler) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	if _, err := h.bot.Send(msg); err != nil {
		log.WithError(err).WithField("chat_id", chatID).Error("Ошибка отправки сообщения")
	}
}
