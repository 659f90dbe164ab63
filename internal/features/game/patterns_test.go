package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"winbingo.dev/bingo-bot/internal/common"
)

// cellNumbers собирает номера клеток (без свободной).
func cellNumbers(card Card, cells []cell) []int {
	var out []int
	for _, c := range cells {
		if n := card.Grid[c.Row][c.Col]; n != FreeCell {
			out = append(out, n)
		}
	}
	return out
}

func rowCells(row int) []cell {
	var out []cell
	for col := 0; col < CardSize; col++ {
		out = append(out, cell{row, col})
	}
	return out
}

func colCells(col int) []cell {
	var out []cell
	for row := 0; row < CardSize; row++ {
		out = append(out, cell{row, col})
	}
	return out
}

func TestCheckClaimRow(t *testing.T) {
	card := NewCard(5)
	marked := cellNumbers(card, rowCells(0))

	name, err := CheckClaim(card, marked, marked)
	require.NoError(t, err)
	assert.Equal(t, "строка 1", name)
}

func TestCheckClaimColumn(t *testing.T) {
	card := NewCard(12)
	marked := cellNumbers(card, colCells(1))

	name, err := CheckClaim(card, marked, marked)
	require.NoError(t, err)
	assert.Equal(t, "колонка I", name)
}

func TestCheckClaimMiddleRowUsesFreeCell(t *testing.T) {
	// Строка 3 и колонка N проходят через свободный центр:
	// достаточно четырёх номеров
	card := NewCard(33)
	marked := cellNumbers(card, rowCells(2))
	require.Len(t, marked, 4)

	name, err := CheckClaim(card, marked, marked)
	require.NoError(t, err)
	assert.Equal(t, "строка 3", name)
}

func TestCheckClaimDiagonal(t *testing.T) {
	card := NewCard(8)
	var cells []cell
	for i := 0; i < CardSize; i++ {
		cells = append(cells, cell{i, i})
	}
	marked := cellNumbers(card, cells)

	name, err := CheckClaim(card, marked, marked)
	require.NoError(t, err)
	assert.Equal(t, "диагональ ↘", name)
}

func TestCheckClaimCorners(t *testing.T) {
	card := NewCard(64)
	cells := []cell{{0, 0}, {0, 4}, {4, 0}, {4, 4}}
	marked := cellNumbers(card, cells)

	name, err := CheckClaim(card, marked, marked)
	require.NoError(t, err)
	assert.Equal(t, "четыре угла", name)
}

func TestCheckClaimPatternNotCalled(t *testing.T) {
	card := NewCard(5)
	marked := cellNumbers(card, rowCells(0))
	called := marked[:len(marked)-1] // последний номер не объявлялся

	_, err := CheckClaim(card, marked, called)
	assert.ErrorIs(t, err, common.ErrPatternNotCalled)
}

func TestCheckClaimNoPattern(t *testing.T) {
	card := NewCard(5)
	// Четыре номера строки без пятого — линии нет
	marked := cellNumbers(card, rowCells(0))[:4]

	_, err := CheckClaim(card, marked, marked)
	assert.ErrorIs(t, err, common.ErrNoPatternDetected)
}

func TestCheckClaimIgnoresForeignNumbers(t *testing.T) {
	// Отмеченные номера, которых нет на карточке, не помогают
	card := NewCard(5)
	var marked []int
	for n := 1; n <= MaxNumber; n++ {
		if !card.Contains(n) {
			marked = append(marked, n)
		}
	}
	require.NotEmpty(t, marked)

	_, err := CheckClaim(card, marked, marked)
	assert.ErrorIs(t, err, common.ErrNoPatternDetected)
}
