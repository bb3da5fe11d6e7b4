// Package testfixtures provides deterministic clocks, identifiers, blocks
// and storage harnesses for tests.
package testfixtures

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/example/timeblocks/internal/block"
)

var (
	blockCounter   uint64
	overlayCounter uint64
)

// referenceTime is a Monday.
var referenceTime = time.Date(2024, time.January, 1, 9, 0, 0, 0, time.UTC)

// ReferenceTime returns the canonical baseline timestamp used by fixtures.
func ReferenceTime() time.Time {
	return referenceTime
}

// ReferenceDate is the calendar date of ReferenceTime.
const ReferenceDate block.Date = "2024-01-01"

// BlockOption configures a generated block.
type BlockOption func(*block.Block)

// NewBlock returns a one-hour single block at 09:00 on ReferenceDate with a
// unique ID, adjusted by opts.
func NewBlock(opts ...BlockOption) block.Block {
	idx := atomic.AddUint64(&blockCounter, 1)
	b := block.Block{
		ID:     fmt.Sprintf("block-%03d", idx),
		UserID: "user-1",
		Title:  fmt.Sprintf("Block %d", idx),
		Date:   ReferenceDate,
		Start:  block.MustClock("09:00"),
		End:    block.MustClock("10:00"),
		Recurrence: block.Recurrence{
			Excluded:    block.DateSet{},
			Completions: block.CompletionLog{},
		},
		Checklist: []block.ChecklistItem{},
		CreatedAt: referenceTime,
		UpdatedAt: referenceTime,
	}
	for _, opt := range opts {
		opt(&b)
	}
	return b
}

// WithID overrides the block ID.
func WithID(id string) BlockOption {
	return func(b *block.Block) { b.ID = id }
}

// WithUser overrides the owner.
func WithUser(userID string) BlockOption {
	return func(b *block.Block) { b.UserID = userID }
}

// WithTitle overrides the title.
func WithTitle(title string) BlockOption {
	return func(b *block.Block) { b.Title = title }
}

// WithDate overrides the anchor date.
func WithDate(d block.Date) BlockOption {
	return func(b *block.Block) { b.Date = d }
}

// WithTimes sets start and end from "HH:MM" strings.
func WithTimes(start, end string) BlockOption {
	return func(b *block.Block) {
		b.Start = block.MustClock(start)
		b.End = block.MustClock(end)
	}
}

// WithWeekly makes the block recur on days from start, which may be empty.
func WithWeekly(start block.Date, days ...time.Weekday) BlockOption {
	return func(b *block.Block) {
		b.Kind = block.KindRecurring
		b.Recurrence.Days = block.NewWeekdaySet(days...)
		b.Recurrence.StartDate = start
	}
}

// WithEndDate bounds a recurring block.
func WithEndDate(end block.Date) BlockOption {
	return func(b *block.Block) { b.Recurrence.EndDate = end }
}

// WithExcluded adds excluded dates.
func WithExcluded(dates ...block.Date) BlockOption {
	return func(b *block.Block) {
		for _, d := range dates {
			b.Recurrence.Excluded[d] = struct{}{}
		}
	}
}

// WithChecklist appends checklist items with IDs "<blockID>-item-<n>".
func WithChecklist(texts ...string) BlockOption {
	return func(b *block.Block) {
		for _, text := range texts {
			b.Checklist = append(b.Checklist, block.ChecklistItem{
				ID:   fmt.Sprintf("%s-item-%d", b.ID, len(b.Checklist)+1),
				Text: text,
			})
		}
	}
}

// WithNotification sets the reminder lead time in minutes.
func WithNotification(minutes int) BlockOption {
	return func(b *block.Block) { b.NotificationMinutes = &minutes }
}

// NewOverlay returns a read-only overlay on ReferenceDate.
func NewOverlay(kind block.SourceKind, start, end string) block.Overlay {
	idx := atomic.AddUint64(&overlayCounter, 1)
	return block.Overlay{
		ID:    fmt.Sprintf("%s-%03d", kind, idx),
		Date:  ReferenceDate,
		Start: block.MustClock(start),
		End:   block.MustClock(end),
		Title: fmt.Sprintf("%s %d", kind, idx),
		Kind:  kind,
	}
}
