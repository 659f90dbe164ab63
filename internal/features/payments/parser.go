// Package payments — parser.go распознаёт тексты платёжных подтверждений.
//
// Поддерживаются SMS/квитанции CBE и Telebirr. Разбор консервативный:
// если провайдер или номер платежа не распознаны уверенно, подтверждение
// уходит на ручную проверку, а не зачисляется.
package payments

import (
	"regexp"
	"strconv"
	"strings"

	"winbingo.dev/bingo-bot/internal/common"
)

// providerRule — правила распознавания одного провайдера.
type providerRule struct {
	provider string
	keywords []string       // хотя бы одно слово должно встретиться в тексте
	refRe    *regexp.Regexp // первая группа — номер платежа
}

var providerRules = []providerRule{
	{
		// CBE: номера вида FT + 10 символов, например FT24123ABC45
		provider: ProviderCBE,
		keywords: []string{"cbe", "commercial bank"},
		refRe:    regexp.MustCompile(`\b(FT[A-Z0-9]{10})\b`),
	},
	{
		// Telebirr: номер квитанции 10–12 символов
		provider: ProviderTelebirr,
		keywords: []string{"telebirr", "телебирр"},
		refRe:    regexp.MustCompile(`\b([A-Z0-9]{10,12})\b`),
	},
}

// Суммы пишут по-разному: "ETB 150.00", "150.00 Birr", "150 быр".
// Пробуем шаблоны по порядку, первая удачная группа — сумма.
var amountPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bETB\s*([0-9][0-9,]*(?:\.[0-9]{1,2})?)`),
	regexp.MustCompile(`(?i)\b([0-9][0-9,]*(?:\.[0-9]{1,2})?)\s*(?:birr|быр)`),
}

// ParseConfirmation разбирает текст подтверждения платежа.
//
// Возвращает common.ErrParseFailed, если провайдер не определён или
// номер платежа не найден. Отсутствие суммы ошибкой не считается —
// Amount остаётся 0, и сверка с заявленной суммой решает судьбу заявки.
func ParseConfirmation(text string) (Confirmation, error) {
	lower := strings.ToLower(text)

	for _, rule := range providerRules {
		if !containsAny(lower, rule.keywords) {
			continue
		}
		m := rule.refRe.FindStringSubmatch(strings.ToUpper(text))
		if m == nil {
			continue
		}
		return Confirmation{
			Provider:  rule.provider,
			Reference: m[1],
			Amount:    parseAmount(text),
		}, nil
	}

	return Confirmation{}, common.ErrParseFailed
}

func containsAny(text string, words []string) bool {
	for _, w := range words {
		if strings.Contains(text, w) {
			return true
		}
	}
	return false
}

// parseAmount вытаскивает сумму из текста и переводит в сантимы.
// Возвращает 0, если сумма не распознана.
func parseAmount(text string) int64 {
	for _, re := range amountPatterns {
		m := re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		raw := strings.ReplaceAll(m[1], ",", "")
		parts := strings.SplitN(raw, ".", 2)

		whole, err := strconv.ParseInt(parts[0], 10, 64)
		if err != nil {
			continue
		}
		santim := whole * common.SantimPerBirr

		if len(parts) == 2 {
			frac := parts[1]
			if len(frac) == 1 {
				frac += "0"
			}
			f, err := strconv.ParseInt(frac, 10, 64)
			if err != nil {
				continue
			}
			santim += f
		}
		return santim
	}
	return 0
}
