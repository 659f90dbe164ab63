// Package common содержит общие утилиты, используемые во всём проекте.
// money.go — работа с деньгами: все суммы хранятся в сантимах (int64),
// 1 быр = 100 сантимов. Плавающая точка для денег не используется нигде.
package common

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// SantimPerBirr — сколько сантимов в одном быре.
const SantimPerBirr = 100

// FormatMoney форматирует сумму в сантимах в читабельную строку.
//
// Примеры:
//
//	FormatMoney(15000) → "150.00 быр"
//	FormatMoney(1050)  → "10.50 быр"
//	FormatMoney(-500)  → "-5.00 быр"
func FormatMoney(santim int64) string {
	sign := ""
	if santim < 0 {
		sign = "-"
		santim = -santim
	}
	return fmt.Sprintf("%s%d.%02d быр", sign, santim/SantimPerBirr, santim%SantimPerBirr)
}

// ParseMoney разбирает сумму из пользовательского ввода в сантимы.
// Принимает "150", "150.5", "150.50". Больше двух знаков после точки — ошибка.
func ParseMoney(s string) (int64, error) {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, ",", ".")
	if s == "" {
		return 0, fmt.Errorf("пустая сумма")
	}

	whole, frac, found := strings.Cut(s, ".")
	b, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("некорректная сумма %q: %w", s, err)
	}

	var cents int64
	if found {
		if len(frac) == 0 || len(frac) > 2 {
			return 0, fmt.Errorf("некорректная дробная часть %q", s)
		}
		c, err := strconv.ParseInt(frac, 10, 64)
		if err != nil || c < 0 {
			return 0, fmt.Errorf("некорректная дробная часть %q", s)
		}
		// "150.5" означает 50 сантимов, а не 5
		if len(frac) == 1 {
			c *= 10
		}
		cents = c
	}

	if b < 0 {
		return b*SantimPerBirr - cents, nil
	}
	return b*SantimPerBirr + cents, nil
}

// FormatDateTime форматирует время в формат "02.01.2006 15:04".
// Используется для отображения дат транзакций.
func FormatDateTime(t time.Time) string {
	return t.Local().Format("02.01.2006 15:04")
}
