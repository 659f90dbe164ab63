// Package game — registry.go: реестр залов.
//
// Набор залов фиксируется при старте из конфигурации — по одному залу
// на каждую ставку. Залы не создаются и не удаляются на лету, поэтому
// сама мапа иммутабельна и читается без блокировок.
package game

import (
	"sort"
	"time"

	log "github.com/sirupsen/logrus"
)

// Registry — реестр залов, по одному на ставку.
type Registry struct {
	rooms  map[int64]*Room
	stakes []int64 // отсортированные ставки для стабильного вывода
}

// NewRegistry создаёт по залу на каждую ставку.
func NewRegistry(stakes []int64, cfg RoomConfig, now time.Time) *Registry {
	rooms := make(map[int64]*Room, len(stakes))
	sorted := make([]int64, 0, len(stakes))
	for _, stake := range stakes {
		rooms[stake] = NewRoom(stake, cfg, now)
		sorted = append(sorted, stake)
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	return &Registry{rooms: rooms, stakes: sorted}
}

// Room возвращает зал по ставке или nil, если такой ставки нет.
func (reg *Registry) Room(stake int64) *Room {
	return reg.rooms[stake]
}

// Stakes возвращает ставки залов по возрастанию.
func (reg *Registry) Stakes() []int64 {
	out := make([]int64, len(reg.stakes))
	copy(out, reg.stakes)
	return out
}

// Snapshots возвращает снимки всех залов по возрастанию ставки.
func (reg *Registry) Snapshots() []Snapshot {
	out := make([]Snapshot, 0, len(reg.stakes))
	for _, stake := range reg.stakes {
		out = append(out, reg.rooms[stake].Snapshot())
	}
	return out
}

// Tick продвигает все залы и логирует события переходов.
// Возвращает события всем подписчикам (уведомления в залах).
func (reg *Registry) Tick(now time.Time) []Event {
	var all []Event
	for _, stake := range reg.stakes {
		events := reg.rooms[stake].Tick(now)
		for _, ev := range events {
			switch ev.Kind {
			case EventStarted:
				log.WithFields(log.Fields{
					"stake":    ev.Stake,
					"round_id": ev.RoundID,
					"players":  ev.Players,
					"pot":      ev.Pot,
				}).Info("Раунд стартовал")
			case EventCalled:
				log.WithFields(log.Fields{
					"stake":    ev.Stake,
					"round_id": ev.RoundID,
					"number":   ev.Number,
				}).Debug("Объявлен номер")
			case EventEnded:
				log.WithFields(log.Fields{
					"stake":    ev.Stake,
					"round_id": ev.RoundID,
				}).Info("Раунд завершён без победителя")
			}
		}
		all = append(all, events...)
	}
	return all
}
