// Package filters — фильтр доступа к командам бота.
//
// Бот работает только в личных сообщениях: игра на деньги в групповом
// чате — источник путаницы с chat_id и чужими командами. Заблокированные
// игроки отсекаются здесь же, до любых обработчиков.
package filters

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"

	"winbingo.dev/bingo-bot/internal/features/players"
)

type AccessFilter struct {
	playerService *players.Service
	bot           *tgbotapi.BotAPI
}

func NewAccessFilter(playerService *players.Service, bot *tgbotapi.BotAPI) *AccessFilter {
	return &AccessFilter{
		playerService: playerService,
		bot:           bot,
	}
}

// CheckAccess решает, обрабатывать ли сообщение.
func (f *AccessFilter) CheckAccess(ctx context.Context, message *tgbotapi.Message) bool {
	if message == nil || message.Chat == nil {
		log.WithField("component", "AccessFilter").Warn("nil message/chat")
		return false
	}
	if message.From == nil {
		log.WithFields(log.Fields{
			"component": "AccessFilter",
			"chat_id":   message.Chat.ID,
			"chat_type": message.Chat.Type,
		}).Warn("nil message.From (служебное сообщение?)")
		return false
	}

	logger := log.WithFields(log.Fields{
		"component": "AccessFilter",
		"chat_id":   message.Chat.ID,
		"chat_type": message.Chat.Type,
		"user_id":   message.From.ID,
	})

	if !message.Chat.IsPrivate() {
		logger.Debug("deny: не личный чат")
		return false
	}

	// Неизвестный игрок проходит: запись заведёт EnsurePlayer дальше
	player, err := f.playerService.GetByUserID(ctx, message.From.ID)
	if err != nil {
		logger.Debug("allow: новый игрок")
		return true
	}

	if player.IsBanned {
		logger.Info("deny: игрок заблокирован")
		msg := tgbotapi.NewMessage(message.Chat.ID, "🚫 Ваш аккаунт заблокирован. Обратитесь в поддержку.")
		if _, sendErr := f.bot.Send(msg); sendErr != nil {
			logger.WithError(sendErr).Warn("не удалось отправить сообщение о блокировке")
		}
		return false
	}

	return true
}
