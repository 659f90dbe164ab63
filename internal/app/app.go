// Package app инициализирует все компоненты приложения.
// app.go — точка сборки: создаёт БД-пул, репозитории, сервисы, обработчики,
// фильтры и собирает всё в один объект Bot.
package app

import (
	"context"
	"fmt"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"

	"winbingo.dev/bingo-bot/internal/bot"
	"winbingo.dev/bingo-bot/internal/bot/filters"
	"winbingo.dev/bingo-bot/internal/config"
	"winbingo.dev/bingo-bot/internal/db/postgres"
	"winbingo.dev/bingo-bot/internal/features/admin"
	"winbingo.dev/bingo-bot/internal/features/game"
	"winbingo.dev/bingo-bot/internal/features/ledger"
	"winbingo.dev/bingo-bot/internal/features/payments"
	"winbingo.dev/bingo-bot/internal/features/players"
	"winbingo.dev/bingo-bot/internal/jobs"
)

// App содержит все компоненты приложения.
type App struct {
	Bot       *bot.Bot
	Scheduler *jobs.Scheduler
	DB        *pgxpool.Pool
	BotAPI    *tgbotapi.BotAPI
}

// New создаёт и инициализирует приложение.
// Порядок инициализации важен — компоненты зависят друг от друга.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	// === 1. База данных ===
	pool, err := postgres.NewPool(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("ошибка подключения к БД: %w", err)
	}

	// Запускаем миграции
	if err := runMigrations(ctx, pool); err != nil {
		return nil, fmt.Errorf("ошибка миграций: %w", err)
	}

	// === 2. Telegram Bot API ===
	botAPI, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания Telegram API: %w", err)
	}
	botAPI.Debug = cfg.AppEnv == "development"
	log.Infof("Авторизован как @%s", botAPI.Self.UserName)

	// === 3. Репозитории ===
	playerRepo := players.NewRepository(pool)
	ledgerRepo := ledger.NewRepository(pool)
	paymentsRepo := payments.NewRepository(pool)
	adminRepo := admin.NewRepository(pool)

	// === 4. Сервисы ===
	playerService := players.NewService(playerRepo)
	ledgerService := ledger.NewService(ledgerRepo, cfg.EconomySignupBonus, cfg.EconomyCoinRate)
	paymentsService := payments.NewService(paymentsRepo, cfg.PaymentAmountTolerance, cfg.PaymentMinWithdrawal)

	registry := game.NewRegistry(cfg.GameStakes, game.RoomConfig{
		PayoutFraction: cfg.GamePayoutFraction,
		CallInterval:   cfg.GameCallInterval,
		JoinWindow:     cfg.GameJoinWindow,
		BoardCount:     cfg.GameBoardCount,
	}, time.Now())
	gameService := game.NewService(registry, ledgerService, cfg.GameWinCoinsPerBirr)

	adminService := admin.NewService(adminRepo, cfg, ledgerService, ledgerRepo, paymentsService, playerService)

	// === 5. Обработчики ===
	// Регистрация завершилась — заводим счёт и начисляем бонус
	playerHandler := players.NewHandler(playerService, botAPI, func(ctx context.Context, userID int64) error {
		return ledgerService.SignupBonus(ctx, userID)
	})
	ledgerHandler := ledger.NewHandler(ledgerService, playerService, botAPI)
	gameHandler := game.NewHandler(gameService, botAPI)
	paymentsHandler := payments.NewHandler(paymentsService, botAPI)
	adminHandler := admin.NewHandler(adminService, botAPI)

	// === 6. Фильтры ===
	accessFilter := filters.NewAccessFilter(playerService, botAPI)

	// === 7. Собираем бота ===
	b := bot.New(
		botAPI, cfg,
		playerService, playerHandler,
		ledgerHandler,
		gameHandler,
		paymentsHandler,
		adminHandler,
		accessFilter,
	)

	// Уведомления сервисов идут через бота; ставим после его создания
	gameService.SetNotifyFunc(b.SendMessageToUser)
	paymentsService.SetNotifyAdminsFunc(func(text string) {
		for _, adminID := range cfg.AdminIDs {
			b.SendMessageToUser(adminID, text)
		}
	})

	// === 8. Планировщик задач ===
	scheduler := jobs.NewScheduler(gameService, paymentsService, adminService, cfg.AdminIDs, b.SendMessageToUser)

	return &App{
		Bot:       b,
		Scheduler: scheduler,
		DB:        pool,
		BotAPI:    botAPI,
	}, nil
}

// runMigrations выполняет все SQL-миграции.
func runMigrations(ctx context.Context, pool *pgxpool.Pool) error {
	// Инициализируем систему миграций
	if err := postgres.RunMigrations(ctx, pool, "migrations"); err != nil {
		return err
	}

	// Выполняем миграции по порядку
	migrations := []struct {
		version int
		sql     string
	}{
		{1, migration001Players},
		{2, migration002Ledger},
		{3, migration003Payments},
		{4, migration004Admin},
	}

	for _, m := range migrations {
		if err := postgres.ExecMigrationSQL(ctx, pool, m.version, m.sql); err != nil {
			return fmt.Errorf("миграция %d: %w", m.version, err)
		}
		log.Infof("Миграция %d применена", m.version)
	}

	return nil
}

// SQL-миграции встроены в код для упрощения деплоя.

var migration001Players = `
CREATE TABLE IF NOT EXISTS players (
    id BIGSERIAL PRIMARY KEY,
    user_id BIGINT UNIQUE NOT NULL,
    username VARCHAR(255),
    first_name VARCHAR(255) NOT NULL,
    last_name VARCHAR(255),
    phone VARCHAR(32),
    is_registered BOOLEAN DEFAULT FALSE,
    is_banned BOOLEAN DEFAULT FALSE,
    joined_at TIMESTAMP DEFAULT NOW(),
    created_at TIMESTAMP DEFAULT NOW(),
    updated_at TIMESTAMP DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_players_user_id ON players(user_id);
CREATE INDEX IF NOT EXISTS idx_players_username ON players(username);
`

var migration002Ledger = `
CREATE TABLE IF NOT EXISTS accounts (
    id BIGSERIAL PRIMARY KEY,
    user_id BIGINT UNIQUE NOT NULL REFERENCES players(user_id),
    balance BIGINT NOT NULL DEFAULT 0 CHECK (balance >= 0),
    coins BIGINT NOT NULL DEFAULT 0 CHECK (coins >= 0),
    total_earned BIGINT NOT NULL DEFAULT 0,
    total_spent BIGINT NOT NULL DEFAULT 0,
    created_at TIMESTAMP DEFAULT NOW(),
    updated_at TIMESTAMP DEFAULT NOW()
);
CREATE TABLE IF NOT EXISTS transactions (
    id BIGSERIAL PRIMARY KEY,
    user_id BIGINT NOT NULL REFERENCES players(user_id),
    counterparty_id BIGINT REFERENCES players(user_id),
    kind VARCHAR(32) NOT NULL,
    amount BIGINT NOT NULL CHECK (amount > 0),
    status VARCHAR(16) NOT NULL DEFAULT 'approved',
    external_ref VARCHAR(64),
    raw_text TEXT,
    payout_destination TEXT,
    description TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMP DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_transactions_user ON transactions(user_id);
CREATE INDEX IF NOT EXISTS idx_transactions_counterparty ON transactions(counterparty_id);
CREATE INDEX IF NOT EXISTS idx_transactions_status ON transactions(status);
CREATE INDEX IF NOT EXISTS idx_transactions_created_at ON transactions(created_at DESC);
`

var migration003Payments = `
CREATE TABLE IF NOT EXISTS payment_refs (
    id BIGSERIAL PRIMARY KEY,
    provider VARCHAR(32) NOT NULL,
    reference VARCHAR(64) NOT NULL,
    user_id BIGINT NOT NULL REFERENCES players(user_id),
    consumed_at TIMESTAMP DEFAULT NOW(),
    UNIQUE (provider, reference)
);
CREATE INDEX IF NOT EXISTS idx_payment_refs_user ON payment_refs(user_id);
`

var migration004Admin = `
CREATE TABLE IF NOT EXISTS admin_sessions (
    id BIGSERIAL PRIMARY KEY,
    user_id BIGINT,
    session_token VARCHAR(255) UNIQUE,
    authenticated_at TIMESTAMP DEFAULT NOW(),
    expires_at TIMESTAMP,
    last_activity TIMESTAMP DEFAULT NOW(),
    is_active BOOLEAN DEFAULT TRUE
);
CREATE INDEX IF NOT EXISTS idx_admin_sessions_user_id ON admin_sessions(user_id);
CREATE TABLE IF NOT EXISTS admin_login_attempts (
    id BIGSERIAL PRIMARY KEY,
    user_id BIGINT,
    attempt_time TIMESTAMP DEFAULT NOW(),
    success BOOLEAN DEFAULT FALSE
);
CREATE INDEX IF NOT EXISTS idx_admin_attempts_user ON admin_login_attempts(user_id, attempt_time);
`
