package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCardDeterministic(t *testing.T) {
	a := NewCard(42)
	b := NewCard(42)
	assert.Equal(t, a.Grid, b.Grid, "один номер — одна и та же сетка")

	c := NewCard(43)
	assert.NotEqual(t, a.Grid, c.Grid, "разные номера дают разные сетки")
}

func TestNewCardColumnRanges(t *testing.T) {
	card := NewCard(7)

	for col := 0; col < CardSize; col++ {
		lo := col*numbersPerColumn + 1
		hi := (col + 1) * numbersPerColumn
		seen := map[int]bool{}
		for row := 0; row < CardSize; row++ {
			n := card.Grid[row][col]
			if row == 2 && col == 2 {
				assert.Equal(t, FreeCell, n, "центр свободен")
				continue
			}
			require.GreaterOrEqual(t, n, lo, "колонка %d", col)
			require.LessOrEqual(t, n, hi, "колонка %d", col)
			require.False(t, seen[n], "повтор %d в колонке %d", n, col)
			seen[n] = true
		}
	}
}

func TestCardContains(t *testing.T) {
	card := NewCard(1)
	n := card.Grid[0][0]
	assert.True(t, card.Contains(n))
	assert.False(t, card.Contains(76))
}

func TestCardNumbers(t *testing.T) {
	card := NewCard(99)
	nums := card.Numbers()
	require.Len(t, nums, CardSize*CardSize-1, "24 номера без свободной клетки")

	seen := map[int]bool{}
	for _, n := range nums {
		assert.NotEqual(t, FreeCell, n)
		assert.False(t, seen[n], "номера на карточке уникальны")
		seen[n] = true
	}
}
