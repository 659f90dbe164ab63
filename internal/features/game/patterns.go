// Package game — patterns.go проверяет заявку на бинго.
//
// Проверка строгая и серверная: игроку недостаточно отметить линию —
// каждый её номер обязан присутствовать в истории объявленных номеров
// раунда. Клиентским отметкам не доверяем.
package game

import "winbingo.dev/bingo-bot/internal/common"

// cell — координата клетки карточки.
type cell struct {
	Row, Col int
}

// pattern — именованный набор клеток, образующий выигрышную комбинацию.
type pattern struct {
	Name  string
	Cells []cell
}

// winPatterns — все выигрышные комбинации в порядке проверки:
// строки, колонки, обе диагонали, четыре угла.
var winPatterns = buildPatterns()

func buildPatterns() []pattern {
	var ps []pattern

	for row := 0; row < CardSize; row++ {
		p := pattern{Name: rowNames[row]}
		for col := 0; col < CardSize; col++ {
			p.Cells = append(p.Cells, cell{row, col})
		}
		ps = append(ps, p)
	}

	for col := 0; col < CardSize; col++ {
		p := pattern{Name: colNames[col]}
		for row := 0; row < CardSize; row++ {
			p.Cells = append(p.Cells, cell{row, col})
		}
		ps = append(ps, p)
	}

	diag := pattern{Name: "диагональ ↘"}
	anti := pattern{Name: "диагональ ↙"}
	for i := 0; i < CardSize; i++ {
		diag.Cells = append(diag.Cells, cell{i, i})
		anti.Cells = append(anti.Cells, cell{i, CardSize - 1 - i})
	}
	ps = append(ps, diag, anti)

	ps = append(ps, pattern{
		Name: "четыре угла",
		Cells: []cell{
			{0, 0}, {0, CardSize - 1},
			{CardSize - 1, 0}, {CardSize - 1, CardSize - 1},
		},
	})

	return ps
}

var rowNames = [CardSize]string{"строка 1", "строка 2", "строка 3", "строка 4", "строка 5"}
var colNames = [CardSize]string{"колонка B", "колонка I", "колонка N", "колонка G", "колонка O"}

// CheckClaim ищет первую комбинацию, полностью покрытую отметками игрока,
// и проверяет, что каждый её номер был объявлен в раунде.
//
// Возвращает имя комбинации или:
//   - common.ErrNoPatternDetected — отметки не образуют ни одной комбинации;
//   - common.ErrPatternNotCalled — комбинация есть, но в ней номер,
//     который ещё не объявлялся (отметили наперёд или жульничают).
//
// Свободная клетка считается отмеченной и объявленной всегда.
func CheckClaim(card Card, marked []int, called []int) (string, error) {
	markedSet := make(map[int]bool, len(marked))
	for _, n := range marked {
		markedSet[n] = true
	}
	calledSet := make(map[int]bool, len(called))
	for _, n := range called {
		calledSet[n] = true
	}

	for _, p := range winPatterns {
		if !patternMarked(card, p, markedSet) {
			continue
		}
		// Первая отмеченная комбинация — решающая: либо все её номера
		// объявлялись и это победа, либо отказ
		for _, c := range p.Cells {
			n := card.Grid[c.Row][c.Col]
			if n == FreeCell {
				continue
			}
			if !calledSet[n] {
				return "", common.ErrPatternNotCalled
			}
		}
		return p.Name, nil
	}

	return "", common.ErrNoPatternDetected
}

func patternMarked(card Card, p pattern, marked map[int]bool) bool {
	for _, c := range p.Cells {
		n := card.Grid[c.Row][c.Col]
		if n == FreeCell {
			continue
		}
		if !marked[n] {
			return false
		}
	}
	return true
}
