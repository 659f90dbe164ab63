// Package config загружает конфигурацию бота из переменных окружения.
// Используется envconfig для маппинга переменных окружения на поля структуры.
package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config содержит ВСЕ настройки приложения.
type Config struct {
	// --- Telegram ---
	TelegramBotToken string `envconfig:"TELEGRAM_BOT_TOKEN" required:"true"`
	AdminIDsRaw      string `envconfig:"ADMIN_IDS" required:"true"`
	AdminIDs         []int64 `envconfig:"-"` // заполним вручную

	// --- Database ---
	// В Docker внутри контейнера "localhost" почти всегда неправильно.
	// Дефолт ставим "postgres" (имя сервиса в docker-compose), а для локалки переопределяй DB_HOST=localhost.
	DBHost     string `envconfig:"DB_HOST" default:"postgres"`
	DBPort     int    `envconfig:"DB_PORT" default:"5432"`
	DBUser     string `envconfig:"DB_USER" default:"botuser"`
	DBPassword string `envconfig:"DB_PASSWORD" required:"true"`
	DBName     string `envconfig:"DB_NAME" default:"bingo_bot"`
	DBSSLMode  string `envconfig:"DB_SSLMODE" default:"disable"`
	DBMaxConns int32  `envconfig:"DB_MAX_CONNS" default:"25"`
	DBMinConns int32  `envconfig:"DB_MIN_CONNS" default:"5"`

	// --- Application ---
	AppEnv      string `envconfig:"APP_ENV" default:"development"`
	AppLogLevel string `envconfig:"APP_LOG_LEVEL" default:"debug"`

	// --- Bot runtime ---
	// Сколько апдейтов обрабатываем параллельно. Иначе "go на каждый апдейт" = утечка памяти при флуде.
	BotMaxInflight int `envconfig:"BOT_MAX_INFLIGHT" default:"64"`
	// Таймаут long polling (секунды)
	BotUpdateTimeoutSeconds int `envconfig:"BOT_UPDATE_TIMEOUT_SECONDS" default:"60"`

	// --- Admin ---
	AdminPasswordHash string `envconfig:"ADMIN_PASSWORD_HASH" required:"true"`

	// --- Game ---
	// Ставки залов в бырах через запятую. На каждую ставку создаётся один зал.
	GameStakesRaw string  `envconfig:"GAME_STAKES" default:"10,25,50,100"`
	GameStakes    []int64 `envconfig:"-"` // в сантимах, заполним вручную
	// Доля банка, уходящая победителю (остальное — комиссия дома)
	GamePayoutFraction float64 `envconfig:"GAME_PAYOUT_FRACTION" default:"0.8"`
	// Интервал между объявлениями номеров
	GameCallInterval time.Duration `envconfig:"GAME_CALL_INTERVAL" default:"5s"`
	// Сколько зал ждёт игроков перед стартом раунда
	GameJoinWindow time.Duration `envconfig:"GAME_JOIN_WINDOW" default:"45s"`
	// Сколько карточек доступно в зале (номера 1..N)
	GameBoardCount int `envconfig:"GAME_BOARD_COUNT" default:"100"`
	// Бонусные монеты за победу, на каждый быр ставки
	GameWinCoinsPerBirr int64 `envconfig:"GAME_WIN_COINS_PER_BIRR" default:"1"`

	// --- Economy ---
	// Разовый бонус за регистрацию (в сантимах)
	EconomySignupBonus int64 `envconfig:"ECONOMY_SIGNUP_BONUS" default:"10000"`
	// Курс обмена бонусных монет: сантимов за одну монету
	EconomyCoinRate int64 `envconfig:"ECONOMY_COIN_RATE" default:"10"`

	// --- Payments ---
	// Допустимое расхождение суммы подтверждения с заявленной (в сантимах)
	PaymentAmountTolerance int64 `envconfig:"PAYMENT_AMOUNT_TOLERANCE" default:"100"`
	// Минимальная сумма вывода (в сантимах)
	PaymentMinWithdrawal int64 `envconfig:"PAYMENT_MIN_WITHDRAWAL" default:"5000"`

	// --- Rate Limiting ---
	RateLimitRequests int           `envconfig:"RATE_LIMIT_REQUESTS" default:"10"`
	RateLimitWindow   time.Duration `envconfig:"RATE_LIMIT_WINDOW" default:"1m"`
}

// DatabaseDSN возвращает строку подключения к PostgreSQL в формате DSN.
func (c *Config) DatabaseDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode,
	)
}

func (c *Config) Validate() error {
	if len(c.AdminIDs) == 0 {
		return fmt.Errorf("ADMIN_IDS не задан")
	}
	if c.BotMaxInflight <= 0 {
		return fmt.Errorf("BOT_MAX_INFLIGHT должен быть > 0")
	}
	if c.BotUpdateTimeoutSeconds <= 0 {
		return fmt.Errorf("BOT_UPDATE_TIMEOUT_SECONDS должен быть > 0")
	}
	if c.DBMaxConns <= 0 || c.DBMinConns < 0 || c.DBMinConns > c.DBMaxConns {
		return fmt.Errorf("некорректные DB_MIN_CONNS/DB_MAX_CONNS")
	}
	if len(c.GameStakes) == 0 {
		return fmt.Errorf("GAME_STAKES не задан")
	}
	if c.GamePayoutFraction <= 0 || c.GamePayoutFraction > 1 {
		return fmt.Errorf("GAME_PAYOUT_FRACTION должен быть в (0, 1]")
	}
	if c.GameCallInterval < time.Second {
		return fmt.Errorf("GAME_CALL_INTERVAL должен быть не меньше секунды")
	}
	if c.GameBoardCount < 1 {
		return fmt.Errorf("GAME_BOARD_COUNT должен быть > 0")
	}
	return nil
}

// Load читает переменные окружения и заполняет структуру Config.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("не удалось загрузить конфигурацию: %w", err)
	}

	ids, err := parseInt64CSV(cfg.AdminIDsRaw)
	if err != nil {
		return nil, fmt.Errorf("ADMIN_IDS parse: %w", err)
	}
	cfg.AdminIDs = ids

	stakes, err := parseStakesCSV(cfg.GameStakesRaw)
	if err != nil {
		return nil, fmt.Errorf("GAME_STAKES parse: %w", err)
	}
	cfg.GameStakes = stakes

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func parseInt64CSV(s string) ([]int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	out := make([]int64, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		v, err := strconv.ParseInt(p, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("bad int64 %q: %w", p, err)
		}
		out = append(out, v)
	}
	return out, nil
}

// parseStakesCSV разбирает ставки в бырах и переводит их в сантимы.
// Дубликаты запрещены: на каждую ставку создаётся ровно один зал.
func parseStakesCSV(s string) ([]int64, error) {
	birr, err := parseInt64CSV(s)
	if err != nil {
		return nil, err
	}
	seen := make(map[int64]bool, len(birr))
	out := make([]int64, 0, len(birr))
	for _, b := range birr {
		if b <= 0 {
			return nil, fmt.Errorf("ставка должна быть положительной: %d", b)
		}
		if seen[b] {
			return nil, fmt.Errorf("ставка %d указана дважды", b)
		}
		seen[b] = true
		out = append(out, b*100)
	}
	return out, nil
}
