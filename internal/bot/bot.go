// Package bot содержит главный модуль бота — инициализацию, запуск и остановку.
// bot.go принимает апдейты, прогоняет их через фильтры и маршрутизирует команды.
package bot

import (
	"context"
	"errors"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"

	"winbingo.dev/bingo-bot/internal/bot/filters"
	"winbingo.dev/bingo-bot/internal/common"
	"winbingo.dev/bingo-bot/internal/bot/middleware"
	"winbingo.dev/bingo-bot/internal/config"
	"winbingo.dev/bingo-bot/internal/features/admin"
	"winbingo.dev/bingo-bot/internal/features/game"
	"winbingo.dev/bingo-bot/internal/features/ledger"
	"winbingo.dev/bingo-bot/internal/features/payments"
	"winbingo.dev/bingo-bot/internal/features/players"
)

// Bot — главная структура бота, объединяющая все компоненты.
type Bot struct {
	api *tgbotapi.BotAPI
	cfg *config.Config

	accessFilter *filters.AccessFilter
	rateLimiter  *middleware.RateLimiter

	playerHandler   *players.Handler
	ledgerHandler   *ledger.Handler
	gameHandler     *game.Handler
	paymentsHandler *payments.Handler
	adminHandler    *admin.Handler

	playerService *players.Service

	parser *CommandParser

	// ограничитель параллелизма обработки апдейтов
	inflight chan struct{}
}

// New создаёт новый экземпляр бота со всеми зависимостями.
func New(
	api *tgbotapi.BotAPI,
	cfg *config.Config,
	playerService *players.Service,
	playerHandler *players.Handler,
	ledgerHandler *ledger.Handler,
	gameHandler *game.Handler,
	paymentsHandler *payments.Handler,
	adminHandler *admin.Handler,
	accessFilter *filters.AccessFilter,
) *Bot {
	maxInFlight := cfg.BotMaxInflight
	if maxInFlight <= 0 {
		maxInFlight = 64
	}

	return &Bot{
		api:             api,
		cfg:             cfg,
		accessFilter:    accessFilter,
		rateLimiter:     middleware.NewRateLimiter(cfg.RateLimitRequests, cfg.RateLimitWindow),
		playerHandler:   playerHandler,
		ledgerHandler:   ledgerHandler,
		gameHandler:     gameHandler,
		paymentsHandler: paymentsHandler,
		adminHandler:    adminHandler,
		playerService:   playerService,
		parser:          NewCommandParser(),
		inflight:        make(chan struct{}, maxInFlight),
	}
}

// Start запускает polling обновлений от Telegram.
func (b *Bot) Start(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = b.cfg.BotUpdateTimeoutSeconds

	updates := b.api.GetUpdatesChan(u)

	log.WithFields(log.Fields{
		"max_inflight": b.cfg.BotMaxInflight,
		"timeout_sec":  b.cfg.BotUpdateTimeoutSeconds,
	}).Info("Бот запущен и ожидает сообщения...")

	for {
		select {
		case <-ctx.Done():
			log.Info("Бот останавливается (ctx done)...")
			b.api.StopReceivingUpdates()
			return

		case update, ok := <-updates:
			if !ok {
				log.Info("Канал updates закрыт, бот остановлен")
				return
			}

			// лимит параллелизма
			b.inflight <- struct{}{}
			go func(upd tgbotapi.Update) {
				defer func() { <-b.inflight }()
				b.handleUpdate(ctx, upd)
			}(update)
		}
	}
}

// handleUpdate обрабатывает одно обновление от Telegram.
func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	defer middleware.RecoverFromPanic()

	if update.Message == nil {
		return
	}
	message := update.Message

	middleware.LogMessage(message)

	if !b.accessFilter.CheckAccess(ctx, message) {
		return
	}

	if message.From != nil && !b.rateLimiter.Allow(message.From.ID) {
		log.WithField("user_id", message.From.ID).Debug("rate limited")
		return
	}

	chatID := message.Chat.ID
	userID := message.From.ID

	// EnsurePlayer — ошибки нельзя игнорировать, иначе потом будет "оно не работает"
	if err := b.playerService.EnsurePlayer(ctx, userID,
		message.From.UserName, message.From.FirstName, message.From.LastName,
	); err != nil {
		log.WithError(err).WithField("user_id", userID).Warn("EnsurePlayer failed")
	}

	// Контакт — шаг регистрации
	if message.Contact != nil {
		b.playerHandler.HandleContact(ctx, chatID, userID, message.Contact)
		return
	}

	if message.Text == "" {
		return
	}

	// Админ-панель перехватывает сообщения своих диалогов
	if handled := b.adminHandler.HandleAdminMessage(ctx, chatID, userID, message.Text); handled {
		return
	}

	cmd, args, isCommand := b.parser.ParseCommand(message.Text)
	log.WithFields(log.Fields{
		"isCommand": isCommand,
		"cmd":       cmd,
		"args":      args,
	}).Debug("parsed command")

	if isCommand {
		b.routeCommand(ctx, chatID, userID, cmd, args)
	}
}

// Команды, требующие завершённой регистрации (всё, что трогает деньги).
var registeredOnly = map[string]bool{
	"войти":         true,
	"бинго":         true,
	"баланс":        true,
	"перевести":     true,
	"транзакции":    true,
	"обменять":      true,
	"пополнить":     true,
	"подтверждение": true,
	"вывести":       true,
}

// routeCommand маршрутизирует команду к нужному обработчику.
func (b *Bot) routeCommand(ctx context.Context, chatID, userID int64, cmd string, args []string) {
	if registeredOnly[cmd] {
		if err := b.playerService.RequireRegistered(ctx, userID); err != nil {
			if errors.Is(err, common.ErrNotRegistered) {
				b.sendMessage(chatID, "❌ Сначала завершите регистрацию — отправьте /start")
				return
			}
			log.WithError(err).WithField("user_id", userID).Error("Ошибка проверки регистрации")
			b.sendMessage(chatID, "❌ Ошибка, попробуйте позже")
			return
		}
	}

	switch cmd {
	case "start", "help", "помощь":
		b.playerHandler.HandleStart(ctx, chatID, userID)

	case "профиль":
		b.playerHandler.HandleProfile(ctx, chatID, userID)

	case "залы":
		b.gameHandler.HandleRooms(ctx, chatID)

	case "войти":
		b.gameHandler.HandleJoin(ctx, chatID, userID, args)

	case "карточка":
		b.gameHandler.HandleCard(ctx, chatID, args)

	case "бинго":
		b.gameHandler.HandleClaim(ctx, chatID, userID, args)

	case "зал":
		b.gameHandler.HandleRoomStatus(ctx, chatID, args)

	case "баланс":
		b.ledgerHandler.HandleBalance(ctx, chatID, userID)

	case "перевести":
		b.ledgerHandler.HandleTransfer(ctx, chatID, userID, args)

	case "транзакции":
		b.ledgerHandler.HandleTransactions(ctx, chatID, userID)

	case "обменять":
		b.ledgerHandler.HandleExchange(ctx, chatID, userID)

	case "пополнить":
		b.paymentsHandler.HandleDepositInfo(ctx, chatID)

	case "подтверждение":
		b.paymentsHandler.HandleConfirmation(ctx, chatID, userID, args)

	case "вывести":
		b.paymentsHandler.HandleWithdraw(ctx, chatID, userID, args)
	}
}

// sendMessage — утилита для отправки сообщений.
func (b *Bot) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.api.Send(msg); err != nil {
		log.WithError(err).WithField("chat_id", chatID).Error("Ошибка отправки сообщения")
	}
}

// SendMessageToUser отправляет сообщение пользователю (для уведомлений).
func (b *Bot) SendMessageToUser(userID int64, text string) {
	msg := tgbotapi.NewMessage(userID, text)
	if _, err := b.api.Send(msg); err != nil {
		log.WithError(err).WithField("user_id", userID).Debug("Не удалось отправить сообщение")
	}
}

// CommandParser парсит русские команды с префиксами !, . и /.
type CommandParser struct {
	validPrefixes []string
}

// NewCommandParser создаёт парсер команд.
func NewCommandParser() *CommandParser {
	return &CommandParser{
		validPrefixes: []string{"!", ".", "/"},
	}
}

// ParseCommand разбирает текст на команду и аргументы.
func (p *CommandParser) ParseCommand(text string) (string, []string, bool) {
	text = strings.TrimSpace(text)

	hasPrefix := false
	for _, prefix := range p.validPrefixes {
		if strings.HasPrefix(text, prefix) {
			text = strings.TrimPrefix(text, prefix)
			hasPrefix = true
			break
		}
	}

	if !hasPrefix {
		return "", nil, false
	}

	text = strings.TrimSpace(text)
	parts := strings.Fields(text)

	if len(parts) == 0 {
		return "", nil, false
	}

	command := strings.ToLower(parts[0])
	var args []string
	if len(parts) > 1 {
		args = parts[1:]
	}

	return command, args, true
}
