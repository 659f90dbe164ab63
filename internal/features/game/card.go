// Package game — card.go генерирует карточки бинго.
//
// Карточка 5×5 детерминированно выводится из её номера: один и тот же
// номер всегда даёт одну и ту же сетку, поэтому карточку не нужно
// хранить — клиент и сервер строят её независимо и получают одно и то же.
package game

import "math/rand"

// CardSize — размер сетки карточки.
const CardSize = 5

// FreeCell — значение свободной центральной клетки.
const FreeCell = 0

// numbersPerColumn — сколько номеров приходится на диапазон одной колонки:
// B 1–15, I 16–30, N 31–45, G 46–60, O 61–75.
const numbersPerColumn = 15

// Card — карточка бинго. Grid[row][col]; Grid[2][2] — свободная клетка.
type Card struct {
	BoardNumber int
	Grid        [CardSize][CardSize]int
}

// NewCard строит карточку по её номеру.
// В каждой колонке 5 различных номеров из диапазона колонки,
// центральная клетка свободна.
func NewCard(boardNumber int) Card {
	// Генератор сидируется номером карточки — в этом вся детерминированность
	rng := rand.New(rand.NewSource(int64(boardNumber)))

	var c Card
	c.BoardNumber = boardNumber
	for col := 0; col < CardSize; col++ {
		base := col*numbersPerColumn + 1
		perm := rng.Perm(numbersPerColumn)
		for row := 0; row < CardSize; row++ {
			c.Grid[row][col] = base + perm[row]
		}
	}
	c.Grid[2][2] = FreeCell
	return c
}

// Contains сообщает, есть ли номер на карточке.
func (c Card) Contains(n int) bool {
	for row := 0; row < CardSize; row++ {
		for col := 0; col < CardSize; col++ {
			if c.Grid[row][col] == n {
				return true
			}
		}
	}
	return false
}

// Numbers возвращает все номера карточки (без свободной клетки).
func (c Card) Numbers() []int {
	out := make([]int, 0, CardSize*CardSize-1)
	for row := 0; row < CardSize; row++ {
		for col := 0; col < CardSize; col++ {
			if c.Grid[row][col] != FreeCell {
				out = append(out, c.Grid[row][col])
			}
		}
	}
	return out
}
