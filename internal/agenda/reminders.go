package agenda

import (
	"sort"
	"time"

	"github.com/example/timeblocks/internal/block"
)

// Reminder is what a notification sender needs for one occurrence.
type Reminder struct {
	BlockID  string
	Title    string
	Date     block.Date
	StartsAt time.Time
	LeadTime time.Duration
	NotifyAt time.Time
}

// Reminders lists reminders for every occurrence in [from, to] of blocks
// that carry a notification lead time. Wall-clock times are placed in loc;
// nil means time.Local. Completed occurrences are skipped.
func Reminders(blocks []block.Block, from, to block.Date, loc *time.Location) []Reminder {
	if loc == nil {
		loc = time.Local
	}

	var out []Reminder
	for _, date := range Days(from, to) {
		for _, occ := range Occurrences(blocks, date) {
			lead := occ.Block.NotificationMinutes
			if lead == nil || *lead < 0 || occ.Done {
				continue
			}
			t := date.Time()
			startsAt := time.Date(t.Year(), t.Month(), t.Day(), occ.Start.Hour(), occ.Start.Minute(), 0, 0, loc)
			leadTime := time.Duration(*lead) * time.Minute
			out = append(out, Reminder{
				BlockID:  occ.Block.ID,
				Title:    occ.Block.Title,
				Date:     date,
				StartsAt: startsAt,
				LeadTime: leadTime,
				NotifyAt: startsAt.Add(-leadTime),
			})
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].NotifyAt.Before(out[j].NotifyAt)
	})
	return out
}
