// Package players управляет игроками: регистрацией по номеру телефона,
// поиском по username и флагами доступа.
// models.go описывает структуры данных для работы с таблицей players.
package players

import "time"

// Player представляет игрока в базе данных.
// Запись создаётся при первом сообщении боту; играть и вносить деньги
// можно только после регистрации (шеринг собственного контакта).
type Player struct {
	ID           int64     `db:"id"`            // Автоинкрементный ID записи в БД
	UserID       int64     `db:"user_id"`       // Telegram user ID (уникальный)
	Username     string    `db:"username"`      // @username (может быть пустым)
	FirstName    string    `db:"first_name"`    // Имя пользователя
	LastName     string    `db:"last_name"`     // Фамилия (может быть пустой)
	Phone        *string   `db:"phone"`         // Телефон из контакта (nil до регистрации)
	IsRegistered bool      `db:"is_registered"` // Завершена ли регистрация
	IsBanned     bool      `db:"is_banned"`     // Флаг бана
	JoinedAt     time.Time `db:"joined_at"`     // Когда впервые написал боту
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

// UpdateInfo содержит данные для обновления информации об игроке.
// Используется, когда игрок возвращается и его имя/username могли измениться.
type UpdateInfo struct {
	Username  string
	FirstName string
	LastName  string
}

// DisplayName возвращает отображаемое имя игрока.
// Если есть @username — возвращает его, иначе — имя + фамилию.
func (p *Player) DisplayName() string {
	if p.Username != "" {
		return "@" + p.Username
	}
	name := p.FirstName
	if p.LastName != "" {
		name += " " + p.LastName
	}
	return name
}
