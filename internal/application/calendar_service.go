package application

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/example/timeblocks/internal/agenda"
	"github.com/example/timeblocks/internal/block"
	"github.com/example/timeblocks/internal/completion"
	"github.com/example/timeblocks/internal/export"
	"github.com/example/timeblocks/internal/gesture"
	"github.com/example/timeblocks/internal/persistence/blocksync"
	"github.com/example/timeblocks/internal/recurrence"
)

const draftTitle = "New block"

// BlockGateway is the store boundary. Writes are attempted after the local
// mutation and their failures never undo it.
type BlockGateway interface {
	LoadBlocks(ctx context.Context, userID string) ([]block.Block, error)
	SaveBlock(ctx context.Context, b block.Block) error
	DeleteBlock(ctx context.Context, id string) error
}

// CalendarService applies user edits to the in-memory store and hands the
// results to the gateway.
type CalendarService struct {
	gateway     BlockGateway
	store       *Store
	engine      *recurrence.Engine
	views       *viewCache
	settings    CalendarSettings
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger

	// mu serialises mutations so read-modify-write sequences on one block
	// never interleave.
	mu       sync.Mutex
	overlays []block.Overlay
}

// NewCalendarService wires dependencies for calendar operations. A nil
// gateway keeps everything in memory.
func NewCalendarService(gateway BlockGateway, settings CalendarSettings, idGenerator func() string, now func() time.Time, logger *slog.Logger) *CalendarService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &CalendarService{
		gateway:     gateway,
		store:       NewStore(),
		engine:      recurrence.NewEngine(settings.MaxWindowDays),
		views:       newViewCache(settings.ViewCacheTTL, 0, now),
		settings:    settings,
		idGenerator: idGenerator,
		now:         now,
		logger:      defaultLogger(logger),
	}
}

func (s *CalendarService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "CalendarService", operation, attrs...)
}

// Load replaces the store with the gateway's view of the user's blocks. On
// failure the store keeps its previous content and the error is returned.
func (s *CalendarService) Load(ctx context.Context) error {
	if s == nil {
		return fmt.Errorf("CalendarService is nil")
	}
	logger := s.loggerWith(ctx, "Load", "user_id", s.settings.UserID)
	if s.gateway == nil {
		return nil
	}

	blocks, err := s.gateway.LoadBlocks(ctx, s.settings.UserID)
	if err != nil {
		logger.ErrorContext(ctx, "load blocks failed", "error", err, "error_kind", ErrorKind(err))
		return err
	}

	s.mu.Lock()
	s.store.Replace(blocks)
	s.views.Invalidate()
	s.mu.Unlock()

	logger.InfoContext(ctx, "blocks loaded", "count", len(blocks))
	return nil
}

// ListBlocks returns every block definition ordered by ID.
func (s *CalendarService) ListBlocks(ctx context.Context) []block.Block {
	return s.store.Snapshot()
}

// GetBlock returns one block definition.
func (s *CalendarService) GetBlock(ctx context.Context, id string) (block.Block, error) {
	b, ok := s.store.Get(id)
	if !ok {
		return block.Block{}, ErrNotFound
	}
	return b, nil
}

// CreateBlock validates input and adds a new block.
func (s *CalendarService) CreateBlock(ctx context.Context, in BlockInput) (block.Block, []ConflictWarning, error) {
	vErr := &ValidationError{}
	parsed := validateBlockInput(in, vErr)
	if vErr.HasErrors() {
		return block.Block{}, nil, vErr
	}

	createdAt := s.now().UTC()
	b := block.Block{
		ID:        s.idGenerator(),
		UserID:    s.settings.UserID,
		CreatedAt: createdAt,
	}
	s.applyInput(&b, parsed, in)
	b.UpdatedAt = createdAt

	return s.commit(ctx, "CreateBlock", b)
}

// UpdateBlock replaces the editable fields of an existing block. Excluded
// dates and per-date completions survive the edit.
func (s *CalendarService) UpdateBlock(ctx context.Context, id string, in BlockInput) (block.Block, []ConflictWarning, error) {
	vErr := &ValidationError{}
	parsed := validateBlockInput(in, vErr)
	if vErr.HasErrors() {
		return block.Block{}, nil, vErr
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.store.Get(id)
	if !ok {
		return block.Block{}, nil, ErrNotFound
	}
	s.applyInput(&b, parsed, in)
	b.UpdatedAt = s.now().UTC()

	return s.commitLocked(ctx, "UpdateBlock", b)
}

func (s *CalendarService) applyInput(b *block.Block, parsed parsedInput, in BlockInput) {
	b.Title = parsed.title
	b.Date = parsed.date
	b.Start = parsed.start
	b.End = parsed.end
	b.Kind = parsed.kind
	b.Recurrence.Days = parsed.days
	b.Recurrence.StartDate = parsed.recurStart
	b.Recurrence.EndDate = parsed.recurEnd
	if b.Recurrence.Excluded == nil {
		b.Recurrence.Excluded = block.DateSet{}
	}
	if b.Recurrence.Completions == nil {
		b.Recurrence.Completions = block.CompletionLog{}
	}

	b.Checklist = make([]block.ChecklistItem, 0, len(in.Checklist))
	for _, item := range in.Checklist {
		id := strings.TrimSpace(item.ID)
		if id == "" {
			id = s.idGenerator()
		}
		b.Checklist = append(b.Checklist, block.ChecklistItem{
			ID:        id,
			Text:      strings.TrimSpace(item.Text),
			Completed: item.Completed,
		})
	}

	b.Category = strings.TrimSpace(in.Category)
	b.Type = strings.TrimSpace(in.Type)
	b.Color = strings.TrimSpace(in.Color)
	b.MeetingLink = strings.TrimSpace(in.MeetingLink)
	b.Description = in.Description
	b.NotificationMinutes = nil
	if in.NotificationMinutes != nil {
		minutes := *in.NotificationMinutes
		b.NotificationMinutes = &minutes
	}
}

// CreateFromDraft turns a committed create gesture into a single block on date.
func (s *CalendarService) CreateFromDraft(ctx context.Context, draft gesture.Result, date block.Date, title string) (block.Block, []ConflictWarning, error) {
	if draft.Kind != gesture.ResultDraft {
		return block.Block{}, nil, newValidationError("gesture", "gesture is not a create draft")
	}
	if !date.Valid() {
		return block.Block{}, nil, newValidationError("date", "date must be YYYY-MM-DD")
	}
	start, end := gesture.NormalizeCreate(draft.Start, draft.End)

	title = strings.TrimSpace(title)
	if title == "" {
		title = draftTitle
	}

	createdAt := s.now().UTC()
	b := block.Block{
		ID:     s.idGenerator(),
		UserID: s.settings.UserID,
		Title:  title,
		Date:   date,
		Start:  start,
		End:    end,
		Recurrence: block.Recurrence{
			Excluded:    block.DateSet{},
			Completions: block.CompletionLog{},
		},
		Checklist: []block.ChecklistItem{},
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}
	return s.commit(ctx, "CreateFromDraft", b)
}

// MoveBlock shifts a single block by deltaMinutes, keeping its duration.
func (s *CalendarService) MoveBlock(ctx context.Context, id string, deltaMinutes int) (block.Block, []ConflictWarning, error) {
	return s.reschedule(ctx, "MoveBlock", id, func(b *block.Block) {
		b.Start, b.End = gesture.ApplyMove(b.Start, b.End, deltaMinutes)
	})
}

// ResizeBlock moves the end of a single block by deltaMinutes.
func (s *CalendarService) ResizeBlock(ctx context.Context, id string, deltaMinutes int) (block.Block, []ConflictWarning, error) {
	return s.reschedule(ctx, "ResizeBlock", id, func(b *block.Block) {
		b.End = gesture.ApplyResize(b.Start, b.End, deltaMinutes)
	})
}

// ApplyGesture commits a controller result. Drafts create a block on date;
// moves and resizes apply the result's offset from the stored range.
func (s *CalendarService) ApplyGesture(ctx context.Context, result gesture.Result, date block.Date) (block.Block, []ConflictWarning, error) {
	switch result.Kind {
	case gesture.ResultDraft:
		return s.CreateFromDraft(ctx, result, date, "")
	case gesture.ResultMove:
		return s.reschedule(ctx, "ApplyGesture", result.TargetID, func(b *block.Block) {
			b.Start, b.End = gesture.ApplyMove(b.Start, b.End, int(result.Start-b.Start))
		})
	case gesture.ResultResize:
		return s.reschedule(ctx, "ApplyGesture", result.TargetID, func(b *block.Block) {
			b.End = gesture.ApplyResize(b.Start, b.End, int(result.End-b.End))
		})
	default:
		return block.Block{}, nil, newValidationError("gesture", "unknown gesture result")
	}
}

func (s *CalendarService) reschedule(ctx context.Context, operation, id string, mutate func(*block.Block)) (block.Block, []ConflictWarning, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.store.Get(id)
	if !ok {
		return block.Block{}, nil, ErrNotFound
	}
	if !gesture.TargetOf(b).Movable() {
		return block.Block{}, nil, ErrNotMovable
	}
	mutate(&b)
	b.UpdatedAt = s.now().UTC()
	return s.commitLocked(ctx, operation, b)
}

// DuplicateBlock copies a single block onto date (its own date when empty).
func (s *CalendarService) DuplicateBlock(ctx context.Context, id string, date block.Date) (block.Block, []ConflictWarning, error) {
	if date != "" && !date.Valid() {
		return block.Block{}, nil, newValidationError("date", "date must be YYYY-MM-DD")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	original, ok := s.store.Get(id)
	if !ok {
		return block.Block{}, nil, ErrNotFound
	}
	dup, err := gesture.Duplicate(original, s.idGenerator(), date)
	if err != nil {
		return block.Block{}, nil, err
	}
	for i := range dup.Checklist {
		dup.Checklist[i].ID = s.idGenerator()
	}
	createdAt := s.now().UTC()
	dup.CreatedAt, dup.UpdatedAt = createdAt, createdAt
	dup.Recurrence = block.Recurrence{Excluded: block.DateSet{}, Completions: block.CompletionLog{}}

	return s.commitLocked(ctx, "DuplicateBlock", dup)
}

// ToggleCompletion flips the occurrence of id on date. Single blocks ignore
// date; recurring blocks require a date on which they occur.
func (s *CalendarService) ToggleCompletion(ctx context.Context, id string, date block.Date) (block.Block, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.store.Get(id)
	if !ok {
		return block.Block{}, ErrNotFound
	}
	if b.IsRecurring() {
		if !date.Valid() {
			return block.Block{}, newValidationError("date", "date must be YYYY-MM-DD")
		}
		if !recurrence.OccursOn(b, date) {
			return block.Block{}, newValidationError("date", "block does not occur on this date")
		}
	}

	updated := completion.Toggle(b, date)
	updated.UpdatedAt = s.now().UTC()
	s.storeLocked(ctx, "ToggleCompletion", updated)
	return updated, nil
}

// ToggleChecklistItem flips one checklist item shared by every occurrence.
func (s *CalendarService) ToggleChecklistItem(ctx context.Context, id, itemID string) (block.Block, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.store.Get(id)
	if !ok {
		return block.Block{}, ErrNotFound
	}
	updated, found := completion.ToggleChecklistItem(b, itemID)
	if !found {
		return block.Block{}, fmt.Errorf("checklist item %s: %w", itemID, ErrNotFound)
	}
	updated.UpdatedAt = s.now().UTC()
	s.storeLocked(ctx, "ToggleChecklistItem", updated)
	return updated, nil
}

// DeleteOccurrence removes one date from a recurring series by excluding
// it. For a single block the block itself is deleted.
func (s *CalendarService) DeleteOccurrence(ctx context.Context, id string, date block.Date) error {
	if !date.Valid() {
		return newValidationError("date", "date must be YYYY-MM-DD")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.store.Get(id)
	if !ok {
		return ErrNotFound
	}
	if !b.IsRecurring() {
		if b.Date != date {
			return newValidationError("date", "block does not occur on this date")
		}
		s.removeLocked(ctx, "DeleteOccurrence", id)
		return nil
	}

	if b.Recurrence.Excluded == nil {
		b.Recurrence.Excluded = block.DateSet{}
	}
	b.Recurrence.Excluded[date] = struct{}{}
	delete(b.Recurrence.Completions, date)
	b.UpdatedAt = s.now().UTC()
	s.storeLocked(ctx, "DeleteOccurrence", b)
	return nil
}

// DeleteBlock removes a block definition with all of its occurrences.
func (s *CalendarService) DeleteBlock(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.store.Get(id); !ok {
		return ErrNotFound
	}
	s.removeLocked(ctx, "DeleteBlock", id)
	return nil
}

// SetOverlays replaces the read-only overlay set.
func (s *CalendarService) SetOverlays(ctx context.Context, overlays []block.Overlay) error {
	if vErr := validateOverlays(overlays); vErr != nil {
		return vErr
	}

	next := make([]block.Overlay, len(overlays))
	copy(next, overlays)

	s.mu.Lock()
	s.overlays = next
	s.views.Invalidate()
	s.mu.Unlock()

	s.loggerWith(ctx, "SetOverlays").InfoContext(ctx, "overlays replaced", "count", len(next))
	return nil
}

// Overlays returns a copy of the overlay set.
func (s *CalendarService) Overlays() []block.Overlay {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]block.Overlay, len(s.overlays))
	copy(out, s.overlays)
	return out
}

// Agenda lays out every date in [from, to].
func (s *CalendarService) Agenda(ctx context.Context, from, to block.Date) ([]agenda.Day, error) {
	if err := s.engine.CheckWindow(recurrence.GenerateOptions{RangeStart: from, RangeEnd: to}); err != nil {
		return nil, err
	}

	key := viewCacheKey(from, to)
	if days, ok := s.views.Get(key); ok {
		return days, nil
	}

	s.mu.Lock()
	generation := s.views.Generation()
	blocks := s.store.Snapshot()
	overlays := append([]block.Overlay(nil), s.overlays...)
	s.mu.Unlock()

	days := agenda.Build(blocks, overlays, agenda.Days(from, to))
	s.views.Store(key, generation, days)
	return days, nil
}

// View lays out the day, week or month around date.
func (s *CalendarService) View(ctx context.Context, kind ViewKind, date block.Date) ([]agenda.Day, error) {
	if !date.Valid() {
		return nil, newValidationError("date", "date must be YYYY-MM-DD")
	}
	var dates []block.Date
	switch kind {
	case ViewDay, "":
		dates = []block.Date{date}
	case ViewWeek:
		dates = agenda.Week(date, s.settings.WeekStart)
	case ViewMonth:
		dates = agenda.MonthGrid(date, s.settings.WeekStart)
	default:
		return nil, newValidationError("view", "view must be day, week or month")
	}
	return s.Agenda(ctx, dates[0], dates[len(dates)-1])
}

// Reminders lists notification data for occurrences in [from, to].
func (s *CalendarService) Reminders(ctx context.Context, from, to block.Date) ([]agenda.Reminder, error) {
	if err := s.engine.CheckWindow(recurrence.GenerateOptions{RangeStart: from, RangeEnd: to}); err != nil {
		return nil, err
	}
	return agenda.Reminders(s.store.Snapshot(), from, to, s.settings.Location), nil
}

// Export writes every block as an iCalendar feed.
func (s *CalendarService) Export(ctx context.Context, w io.Writer) error {
	err := export.Write(w, s.store.Snapshot(), export.Options{Name: s.settings.ExportName, Now: s.now()})
	if err != nil {
		s.loggerWith(ctx, "Export").ErrorContext(ctx, "export failed", "error", err, "error_kind", ErrorKind(err))
	}
	return err
}

func (s *CalendarService) commit(ctx context.Context, operation string, b block.Block) (block.Block, []ConflictWarning, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.commitLocked(ctx, operation, b)
}

func (s *CalendarService) commitLocked(ctx context.Context, operation string, b block.Block) (block.Block, []ConflictWarning, error) {
	s.storeLocked(ctx, operation, b)
	return b, s.conflictsLocked(b), nil
}

// storeLocked applies the optimistic local mutation, then persists it.
func (s *CalendarService) storeLocked(ctx context.Context, operation string, b block.Block) {
	s.store.Upsert(b)
	s.views.Invalidate()
	if s.gateway == nil {
		return
	}
	if err := s.gateway.SaveBlock(ctx, b); err != nil {
		s.logPersistError(ctx, operation, b.ID, err)
	}
}

func (s *CalendarService) removeLocked(ctx context.Context, operation, id string) {
	s.store.Remove(id)
	s.views.Invalidate()
	if s.gateway == nil {
		return
	}
	if err := s.gateway.DeleteBlock(ctx, id); err != nil {
		s.logPersistError(ctx, operation, id, err)
	}
}

func (s *CalendarService) logPersistError(ctx context.Context, operation, id string, err error) {
	logger := s.loggerWith(ctx, operation, "block_id", id)
	if errors.Is(err, blocksync.ErrDeferred) {
		logger.WarnContext(ctx, "persistence deferred", "error", err, "error_kind", ErrorKind(err))
		return
	}
	logger.ErrorContext(ctx, "persistence failed", "error", err, "error_kind", ErrorKind(err))
}

// conflictsLocked reports overlaps of b on the date it affects: its own
// date, or the first occurrence of a recurring series.
func (s *CalendarService) conflictsLocked(b block.Block) []ConflictWarning {
	date, ok := affectedDate(b)
	if !ok {
		return nil
	}
	days := agenda.Build(s.store.Snapshot(), s.overlays, []block.Date{date})
	var warnings []ConflictWarning
	for _, c := range agenda.Conflicts(days[0], agenda.OccurrenceID(b.ID, date)) {
		warnings = append(warnings, ConflictWarning{
			BlockID: b.ID,
			WithID:  c.WithID,
			Date:    date,
			Start:   c.Start,
			End:     c.End,
		})
	}
	return warnings
}

func affectedDate(b block.Block) (block.Date, bool) {
	if !b.IsRecurring() {
		return b.Date, b.Date.Valid()
	}
	start := b.Recurrence.StartDate
	if start == "" {
		start = b.Date
	}
	for i := 0; i < 7; i++ {
		if d := start.AddDays(i); recurrence.OccursOn(b, d) {
			return d, true
		}
	}
	return "", false
}
