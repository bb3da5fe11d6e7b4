// Package tui is a terminal day view over the calendar service. Blocks are
// created, moved and resized by dragging with the mouse; everything else is
// on the keyboard.
package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/example/timeblocks/internal/agenda"
	"github.com/example/timeblocks/internal/application"
	"github.com/example/timeblocks/internal/block"
	"github.com/example/timeblocks/internal/gesture"
)

type calendarService interface {
	Agenda(ctx context.Context, from, to block.Date) ([]agenda.Day, error)
	ApplyGesture(ctx context.Context, result gesture.Result, date block.Date) (block.Block, []application.ConflictWarning, error)
	CreateFromDraft(ctx context.Context, draft gesture.Result, date block.Date, title string) (block.Block, []application.ConflictWarning, error)
	DuplicateBlock(ctx context.Context, id string, date block.Date) (block.Block, []application.ConflictWarning, error)
	ToggleCompletion(ctx context.Context, id string, date block.Date) (block.Block, error)
	ToggleChecklistItem(ctx context.Context, id, itemID string) (block.Block, error)
	DeleteOccurrence(ctx context.Context, id string, date block.Date) error
}

// Options tunes the day view.
type Options struct {
	// Date is the first day shown. Empty means today.
	Date block.Date
	// RowsPerHour is 1, 2 or 4; anything else means 4.
	RowsPerHour int
	// Location decides what today is. Nil means time.Local.
	Location *time.Location
	Now      func() time.Time
	Logger   *slog.Logger
}

type statusKind int

const (
	statusInfo statusKind = iota
	statusWarn
	statusError
)

type dayLoadedMsg struct {
	date block.Date
	day  agenda.Day
	err  error
}

type mutationDoneMsg struct {
	status   string
	warnings int
	selectID string
	err      error
}

// Model is the bubbletea model of the day view.
type Model struct {
	ctx        context.Context
	service    calendarService
	logger     *slog.Logger
	keys       KeyMap
	help       help.Model
	styles     *Styles
	controller *gesture.Controller
	title      textinput.Model

	today block.Date
	date  block.Date
	day   agenda.Day
	grid  grid

	selected string
	preview  *gesture.Preview
	draft    *gesture.Result

	status     string
	statusKind statusKind
	width      int
	height     int
}

// New builds the day view. ctx bounds every service call it makes.
func New(ctx context.Context, service calendarService, opts Options) *Model {
	loc := opts.Location
	if loc == nil {
		loc = time.Local
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	today := block.DateOf(now().In(loc))
	date := opts.Date
	if !date.Valid() {
		date = today
	}

	title := textinput.New()
	title.Placeholder = "New block"
	title.CharLimit = 200
	title.Prompt = "Title: "
	title.Cursor.SetMode(cursor.CursorStatic)

	rows := validRowsPerHour(opts.RowsPerHour)
	m := &Model{
		ctx:     ctx,
		service: service,
		logger:  logger,
		keys:    DefaultKeyMap(),
		help:    help.New(),
		styles:  NewStyles(TokyoNight),
		title:   title,
		today:   today,
		date:    date,
		day:     agenda.Day{Date: date},
		grid:    grid{rowsPerHour: rows},
	}
	m.resize(80, 40)
	m.grid.scroll = m.grid.clampScroll(7 * rows)
	m.controller = gesture.NewController(m.grid.quantizer(), m.grid.containerTop())
	return m
}

// Date returns the day on screen.
func (m *Model) Date() block.Date { return m.date }

// Init loads the first day.
func (m *Model) Init() tea.Cmd {
	return m.load()
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case dayLoadedMsg:
		if msg.date != m.date {
			return m, nil
		}
		if msg.err != nil {
			m.setError(msg.err)
			return m, nil
		}
		m.day = msg.day
		m.keepSelection()
		return m, nil

	case mutationDoneMsg:
		if msg.err != nil {
			m.setError(msg.err)
		} else {
			m.setStatus(msg.status, msg.warnings)
			if msg.selectID != "" {
				m.selected = msg.selectID
			}
		}
		return m, m.load()

	case tea.MouseMsg:
		return m, m.handleMouse(msg)

	case tea.KeyMsg:
		if m.draft != nil {
			return m, m.handlePromptKey(msg)
		}
		return m, m.handleKey(msg)
	}
	return m, nil
}

func (m *Model) resize(width, height int) {
	m.width, m.height = width, height
	m.grid.width = width - gutterWidth
	if m.grid.width < minColumnWidth {
		m.grid.width = minColumnWidth
	}
	m.syncGrid()
}

// syncGrid recomputes the visible rows after the footer or the scroll
// changed and hands the new geometry to the controller.
func (m *Model) syncGrid() {
	visible := m.height - headerRows - m.footerHeight()
	if visible < 1 {
		visible = 1
	}
	m.grid.visible = visible
	m.grid.scroll = m.grid.clampScroll(m.grid.scroll)
	if m.controller != nil {
		m.controller.SetScale(m.grid.quantizer(), m.grid.containerTop())
	}
}

func (m *Model) footerHeight() int {
	lines := 1
	if m.draft != nil {
		lines = 3
	}
	if m.help.ShowAll {
		longest := 0
		for _, column := range m.keys.FullHelp() {
			longest = max(longest, len(column))
		}
		return lines + longest
	}
	return lines + 1
}

func (m *Model) handleMouse(msg tea.MouseMsg) tea.Cmd {
	if m.draft != nil {
		return nil
	}
	y := float64(msg.Y)

	switch msg.Action {
	case tea.MouseActionPress:
		switch msg.Button {
		case tea.MouseButtonWheelUp:
			m.scrollBy(-m.grid.rowsPerHour)
			return nil
		case tea.MouseButtonWheelDown:
			m.scrollBy(m.grid.rowsPerHour)
			return nil
		case tea.MouseButtonLeft:
		default:
			return nil
		}

		row, ok := m.grid.rowAt(msg.Y)
		if !ok || msg.X < gutterWidth {
			return nil
		}
		if e, found := m.grid.entryAt(m.day, row, msg.X-gutterWidth); found {
			if e.Source == block.SourceBlock {
				m.selected = e.ID
			}
			first, last := m.grid.span(e.Start, e.End)
			var err error
			if row == last && last > first {
				err = m.controller.BeginResize(targetOf(e), y)
			} else {
				err = m.controller.BeginMove(targetOf(e), y)
			}
			if err != nil {
				m.setError(err)
				return nil
			}
		} else if err := m.controller.BeginCreate(y); err != nil {
			m.setError(err)
			return nil
		}
		m.updatePreview(y)

	case tea.MouseActionMotion:
		m.updatePreview(y)

	case tea.MouseActionRelease:
		m.preview = nil
		res, err := m.controller.PointerUp(y)
		if err != nil {
			return nil
		}
		if res.Kind == gesture.ResultDraft {
			m.draft = &res
			m.title.Reset()
			m.title.Focus()
			m.syncGrid()
			return nil
		}
		if res.DeltaMinutes == 0 {
			return nil
		}
		date := m.date
		verb := "moved"
		if res.Kind == gesture.ResultResize {
			verb = "resized"
		}
		return m.mutate(func(ctx context.Context, svc calendarService) mutationDoneMsg {
			b, warnings, err := svc.ApplyGesture(ctx, res, date)
			return mutationDoneMsg{
				status:   fmt.Sprintf("%s %q to %s–%s", verb, b.Title, b.Start, b.End),
				warnings: len(warnings),
				err:      err,
			}
		})
	}
	return nil
}

func (m *Model) updatePreview(y float64) {
	if p, ok := m.controller.PointerMove(y); ok {
		m.preview = &p
	}
}

func (m *Model) handlePromptKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Cancel):
		m.closePrompt()
		m.setStatus("draft discarded", 0)
		return nil

	case key.Matches(msg, m.keys.Confirm):
		draft, title, date := *m.draft, m.title.Value(), m.date
		m.closePrompt()
		return m.mutate(func(ctx context.Context, svc calendarService) mutationDoneMsg {
			b, warnings, err := svc.CreateFromDraft(ctx, draft, date, title)
			return mutationDoneMsg{
				status:   fmt.Sprintf("created %q %s–%s", b.Title, b.Start, b.End),
				warnings: len(warnings),
				selectID: agenda.OccurrenceID(b.ID, date),
				err:      err,
			}
		})
	}

	var cmd tea.Cmd
	m.title, cmd = m.title.Update(msg)
	return cmd
}

func (m *Model) closePrompt() {
	m.draft = nil
	m.title.Blur()
	m.syncGrid()
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return tea.Quit
	case key.Matches(msg, m.keys.Cancel):
		if m.controller.Cancel() {
			m.preview = nil
			m.setStatus("gesture cancelled", 0)
		}
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		m.syncGrid()
	case key.Matches(msg, m.keys.PrevDay):
		return m.goTo(m.date.AddDays(-1))
	case key.Matches(msg, m.keys.NextDay):
		return m.goTo(m.date.AddDays(1))
	case key.Matches(msg, m.keys.Today):
		return m.goTo(m.today)
	case key.Matches(msg, m.keys.Up):
		m.moveSelection(-1)
	case key.Matches(msg, m.keys.Down):
		m.moveSelection(1)
	case key.Matches(msg, m.keys.ScrollUp):
		m.scrollBy(-m.grid.visible / 2)
	case key.Matches(msg, m.keys.ScrollDown):
		m.scrollBy(m.grid.visible / 2)
	case key.Matches(msg, m.keys.Complete):
		return m.withSelected(func(e agenda.Entry, date block.Date) tea.Cmd {
			return m.mutate(func(ctx context.Context, svc calendarService) mutationDoneMsg {
				_, err := svc.ToggleCompletion(ctx, e.BlockID, date)
				state := "done"
				if e.Done {
					state = "not done"
				}
				return mutationDoneMsg{status: fmt.Sprintf("%q marked %s", e.Title, state), err: err}
			})
		})
	case key.Matches(msg, m.keys.Checklist):
		return m.withSelected(func(e agenda.Entry, _ block.Date) tea.Cmd {
			item, ok := nextChecklistItem(e.Checklist)
			if !ok {
				m.setStatus(fmt.Sprintf("%q has no checklist", e.Title), 0)
				return nil
			}
			return m.mutate(func(ctx context.Context, svc calendarService) mutationDoneMsg {
				_, err := svc.ToggleChecklistItem(ctx, e.BlockID, item.ID)
				return mutationDoneMsg{status: fmt.Sprintf("toggled %q", item.Text), err: err}
			})
		})
	case key.Matches(msg, m.keys.Duplicate):
		return m.withSelected(func(e agenda.Entry, date block.Date) tea.Cmd {
			return m.mutate(func(ctx context.Context, svc calendarService) mutationDoneMsg {
				dup, warnings, err := svc.DuplicateBlock(ctx, e.BlockID, "")
				return mutationDoneMsg{
					status:   fmt.Sprintf("duplicated %q at %s–%s", e.Title, dup.Start, dup.End),
					warnings: len(warnings),
					selectID: agenda.OccurrenceID(dup.ID, date),
					err:      err,
				}
			})
		})
	case key.Matches(msg, m.keys.Delete):
		return m.withSelected(func(e agenda.Entry, date block.Date) tea.Cmd {
			return m.mutate(func(ctx context.Context, svc calendarService) mutationDoneMsg {
				err := svc.DeleteOccurrence(ctx, e.BlockID, date)
				return mutationDoneMsg{status: fmt.Sprintf("deleted %q on %s", e.Title, date), err: err}
			})
		})
	}
	return nil
}

func nextChecklistItem(items []block.ChecklistItem) (block.ChecklistItem, bool) {
	for _, item := range items {
		if !item.Completed {
			return item, true
		}
	}
	if len(items) > 0 {
		return items[0], true
	}
	return block.ChecklistItem{}, false
}

func (m *Model) withSelected(fn func(e agenda.Entry, date block.Date) tea.Cmd) tea.Cmd {
	e, ok := m.selectedEntry()
	if !ok {
		m.setStatus("no block selected", 0)
		return nil
	}
	return fn(e, m.date)
}

func (m *Model) mutate(op func(ctx context.Context, svc calendarService) mutationDoneMsg) tea.Cmd {
	ctx, svc := m.ctx, m.service
	return func() tea.Msg {
		return op(ctx, svc)
	}
}

func (m *Model) load() tea.Cmd {
	ctx, svc, date := m.ctx, m.service, m.date
	return func() tea.Msg {
		days, err := svc.Agenda(ctx, date, date)
		if err != nil {
			return dayLoadedMsg{date: date, err: err}
		}
		if len(days) == 0 {
			return dayLoadedMsg{date: date, day: agenda.Day{Date: date}}
		}
		return dayLoadedMsg{date: date, day: days[0]}
	}
}

func (m *Model) goTo(date block.Date) tea.Cmd {
	m.controller.Cancel()
	m.preview = nil
	m.date = date
	m.day = agenda.Day{Date: date}
	m.selected = ""
	return m.load()
}

func (m *Model) scrollBy(rows int) {
	if m.controller.State() != gesture.Idle {
		return
	}
	m.grid.scroll = m.grid.clampScroll(m.grid.scroll + rows)
	m.syncGrid()
}

func (m *Model) blockEntries() []agenda.Entry {
	var out []agenda.Entry
	for _, e := range m.day.Entries {
		if e.Source == block.SourceBlock {
			out = append(out, e)
		}
	}
	return out
}

func (m *Model) selectedEntry() (agenda.Entry, bool) {
	for _, e := range m.day.Entries {
		if e.ID == m.selected && e.Source == block.SourceBlock {
			return e, true
		}
	}
	return agenda.Entry{}, false
}

func (m *Model) keepSelection() {
	if _, ok := m.selectedEntry(); ok {
		return
	}
	m.selected = ""
	if entries := m.blockEntries(); len(entries) > 0 {
		m.selected = entries[0].ID
	}
}

func (m *Model) moveSelection(step int) {
	entries := m.blockEntries()
	if len(entries) == 0 {
		return
	}
	idx := 0
	for i, e := range entries {
		if e.ID == m.selected {
			idx = (i + step + len(entries)) % len(entries)
			break
		}
	}
	m.selected = entries[idx].ID
}

func (m *Model) setStatus(text string, warnings int) {
	m.status, m.statusKind = text, statusInfo
	if warnings > 0 {
		m.status = fmt.Sprintf("%s (overlaps %d)", text, warnings)
		m.statusKind = statusWarn
	}
}

func (m *Model) setError(err error) {
	m.status, m.statusKind = describeError(err), statusError
	m.logger.DebugContext(m.ctx, "day view action failed", "error", err, "date", string(m.date))
}

func describeError(err error) string {
	var vErr *application.ValidationError
	switch {
	case errors.Is(err, gesture.ErrNotMovable):
		return "recurring blocks and overlays cannot be moved or resized"
	case errors.Is(err, application.ErrNotFound):
		return "block no longer exists"
	case errors.As(err, &vErr):
		parts := make([]string, 0, len(vErr.FieldErrors))
		for field, reason := range vErr.FieldErrors {
			parts = append(parts, field+": "+reason)
		}
		sort.Strings(parts)
		return strings.Join(parts, "; ")
	default:
		return err.Error()
	}
}

// View renders the header, the visible grid rows and the footer.
func (m *Model) View() string {
	var b strings.Builder

	header := m.styles.Title.Render(m.date.Time().Format("Monday, 2 January 2006"))
	progress := fmt.Sprintf("%d/%d done", m.day.Progress.Completed, m.day.Progress.Total)
	if m.date == m.today {
		progress += " · today"
	}
	b.WriteString(header + m.styles.Subtitle.Render(progress))
	b.WriteString("\n\n")

	end := min(m.grid.scroll+m.grid.visible, m.grid.totalRows())
	for row := m.grid.scroll; row < end; row++ {
		b.WriteString(m.renderRow(row))
		b.WriteByte('\n')
	}

	if m.draft != nil {
		b.WriteString(m.styles.Prompt.Render(fmt.Sprintf("%s–%s  %s", m.draft.Start, m.draft.End, m.title.View())))
	} else {
		b.WriteString(m.statusLine())
	}
	b.WriteByte('\n')
	b.WriteString(m.styles.Help.Render(m.help.View(m.keys)))
	return b.String()
}

func (m *Model) statusLine() string {
	switch m.statusKind {
	case statusError:
		return m.styles.Error.Render(m.status)
	case statusWarn:
		return m.styles.Warning.Render(m.status)
	default:
		return m.styles.Status.Render(m.status)
	}
}

const (
	emptyCell   = -1
	previewCell = -2
)

func (m *Model) renderRow(row int) string {
	gutter := "      "
	if row%m.grid.rowsPerHour == 0 {
		gutter = m.grid.clockAt(row).String() + " "
	}
	line := m.styles.Gutter.Render(gutter + "│")

	cells := make([]int, m.grid.width)
	for i := range cells {
		cells[i] = emptyCell
	}
	hidden := ""
	if m.preview != nil && m.preview.TargetID != "" {
		hidden = m.preview.TargetID
	}
	var previewX0, previewX1 int
	for i, e := range m.day.Entries {
		if hidden != "" && e.BlockID == hidden {
			previewX0, previewX1 = m.grid.slot(e.Column, e.TotalColumns)
			continue
		}
		first, last := m.grid.span(e.Start, e.End)
		if row < first || row > last {
			continue
		}
		x0, x1 := m.grid.slot(e.Column, e.TotalColumns)
		for x := x0; x < x1; x++ {
			cells[x] = i
		}
	}
	if m.preview != nil {
		if hidden == "" {
			previewX0, previewX1 = 0, m.grid.width
		}
		first, last := m.grid.span(m.preview.Start, m.preview.End)
		if row >= first && row <= last {
			for x := previewX0; x < previewX1; x++ {
				cells[x] = previewCell
			}
		}
	}

	for x := 0; x < len(cells); {
		end := x + 1
		for end < len(cells) && cells[end] == cells[x] {
			end++
		}
		line += m.renderSegment(cells[x], row, end-x)
		x = end
	}
	return line
}

func (m *Model) renderSegment(cell, row, width int) string {
	switch cell {
	case emptyCell:
		if row%m.grid.rowsPerHour == 0 {
			return m.styles.HourLine.Render(strings.Repeat("┄", width))
		}
		return strings.Repeat(" ", width)
	case previewCell:
		first, _ := m.grid.span(m.preview.Start, m.preview.End)
		text := ""
		if row == first {
			text = fmt.Sprintf(" %s–%s", m.preview.Start, m.preview.End)
		}
		return fit(m.styles.Preview, text, width)
	}

	e := m.day.Entries[cell]
	style := m.styles.Entry
	switch {
	case e.Done:
		style = m.styles.Done
	case e.ID == m.selected:
		style = m.styles.Selected
	}
	style = style.Background(m.styles.fill(string(e.Source), e.Color))

	text := ""
	if first, _ := m.grid.span(e.Start, e.End); row == first {
		text = " " + entryLabel(e)
	}
	return fit(style, text, width)
}

func entryLabel(e agenda.Entry) string {
	label := e.Start.String() + " " + e.Title
	if e.Source != block.SourceBlock {
		label = "[" + string(e.Source) + "] " + label
	}
	if e.Recurring {
		label += " ↻"
	}
	if e.Done {
		label = "✓ " + label
	}
	if n := len(e.Checklist); n > 0 {
		done := 0
		for _, item := range e.Checklist {
			if item.Completed {
				done++
			}
		}
		label += fmt.Sprintf(" [%d/%d]", done, n)
	}
	return label
}

// fit renders text on one line padded or cut to exactly width cells.
func fit(style lipgloss.Style, text string, width int) string {
	return style.Inline(true).Width(width).MaxWidth(width).Render(text)
}
