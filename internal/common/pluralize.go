// Package common — pluralize.go: русская плюрализация для текстов бота.
package common

// PluralizePlayers возвращает правильную форму слова «игрок» для числа n.
//
// Правила русского языка:
//   - n%10==1 И n%100!=11 → "игрок" (1, 21, 31, 101, ...)
//   - n%10 в [2,3,4] И n%100 НЕ в [12,13,14] → "игрока" (2, 3, 4, 22, ...)
//   - Остальные случаи → "игроков" (0, 5-20, 25-30, 100, ...)
func PluralizePlayers(n int) string {
	return Pluralize(n, "игрок", "игрока", "игроков")
}

// PluralizeNumbers возвращает правильную форму слова «номер».
func PluralizeNumbers(n int) string {
	return Pluralize(n, "номер", "номера", "номеров")
}

// PluralizeCoins возвращает правильную форму слова «монета».
func PluralizeCoins(n int64) string {
	return Pluralize(int(n%100), "монета", "монеты", "монет")
}

// Pluralize выбирает форму слова для числа n.
func Pluralize(n int, one, few, many string) string {
	if n < 0 {
		n = -n
	}
	lastDigit := n % 10
	lastTwoDigits := n % 100

	// Единственное число: 1, 21, 31, 101 (но НЕ 11, 111)
	if lastDigit == 1 && lastTwoDigits != 11 {
		return one
	}
	// Малое множественное: 2-4, 22-24, 32-34 (но НЕ 12-14)
	if lastDigit >= 2 && lastDigit <= 4 && (lastTwoDigits < 12 || lastTwoDigits > 14) {
		return few
	}
	return many
}
