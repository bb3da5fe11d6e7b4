package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/example/timeblocks/internal/agenda"
	"github.com/example/timeblocks/internal/application"
	"github.com/example/timeblocks/internal/block"
)

type calendarService interface {
	Agenda(ctx context.Context, from, to block.Date) ([]agenda.Day, error)
	View(ctx context.Context, kind application.ViewKind, date block.Date) ([]agenda.Day, error)
	SetOverlays(ctx context.Context, overlays []block.Overlay) error
	Overlays() []block.Overlay
	Reminders(ctx context.Context, from, to block.Date) ([]agenda.Reminder, error)
	Export(ctx context.Context, w io.Writer) error
}

// CalendarHandler serves the read side: laid out days, overlays, reminders
// and the iCalendar feed.
type CalendarHandler struct {
	service   calendarService
	responder responder
	logger    *slog.Logger
	filename  string
}

func NewCalendarHandler(service calendarService, logger *slog.Logger) *CalendarHandler {
	base := defaultLogger(logger)
	return &CalendarHandler{service: service, responder: newResponder(base), logger: base, filename: "blockcal.ics"}
}

func (h *CalendarHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return handlerLogger(ctx, h.logger, "CalendarHandler", operation, attrs...)
}

func (h *CalendarHandler) Agenda(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	query := r.URL.Query()
	var (
		days []agenda.Day
		err  error
	)
	if view := strings.TrimSpace(query.Get("view")); view != "" || query.Has("date") {
		date, field, ok := queryDate(query, "date")
		if !ok {
			h.responder.writeFieldError(r.Context(), w, field, "date must be YYYY-MM-DD")
			return
		}
		days, err = h.service.View(r.Context(), application.ViewKind(view), date)
	} else {
		from, to, field, ok := queryRange(query)
		if !ok {
			h.responder.writeFieldError(r.Context(), w, field, field+" must be YYYY-MM-DD")
			return
		}
		days, err = h.service.Agenda(r.Context(), from, to)
	}
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, agendaResponse{Days: toDayDTOs(days)})
}

func (h *CalendarHandler) ListOverlays(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, overlaysPayload{Overlays: toOverlayDTOs(h.service.Overlays())})
}

func (h *CalendarHandler) ReplaceOverlays(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req overlaysPayload
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	overlays := make([]block.Overlay, 0, len(req.Overlays))
	for i, dto := range req.Overlays {
		overlay, field, err := dto.toOverlay()
		if err != nil {
			h.responder.writeFieldError(r.Context(), w, fmt.Sprintf("overlays[%d].%s", i, field), err.Error())
			return
		}
		overlays = append(overlays, overlay)
	}

	if err := h.service.SetOverlays(r.Context(), overlays); err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.log(r.Context(), "ReplaceOverlays").InfoContext(r.Context(), "overlays replaced", "count", len(overlays))
	h.responder.writeJSON(r.Context(), w, http.StatusOK, overlaysPayload{Overlays: toOverlayDTOs(overlays)})
}

func (h *CalendarHandler) Reminders(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	from, to, field, ok := queryRange(r.URL.Query())
	if !ok {
		h.responder.writeFieldError(r.Context(), w, field, field+" must be YYYY-MM-DD")
		return
	}

	reminders, err := h.service.Reminders(r.Context(), from, to)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	out := make([]reminderDTO, 0, len(reminders))
	for _, rem := range reminders {
		out = append(out, reminderDTO{
			BlockID:     rem.BlockID,
			Title:       rem.Title,
			Date:        string(rem.Date),
			StartsAt:    rem.StartsAt.Format(time.RFC3339),
			NotifyAt:    rem.NotifyAt.Format(time.RFC3339),
			LeadMinutes: int(rem.LeadTime / time.Minute),
		})
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, remindersResponse{Reminders: out})
}

func (h *CalendarHandler) Export(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := h.service.Export(r.Context(), &buf); err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+h.filename+`"`)
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		h.log(r.Context(), "Export").ErrorContext(r.Context(), "failed to write calendar", "error", err)
	}
}

// queryRange reads from and to. A missing to means a one-day window.
func queryRange(values url.Values) (from, to block.Date, field string, ok bool) {
	from, field, ok = queryDate(values, "from")
	if !ok {
		return "", "", field, false
	}
	if strings.TrimSpace(values.Get("to")) == "" {
		return from, from, "", true
	}
	to, field, ok = queryDate(values, "to")
	return from, to, field, ok
}

func queryDate(values url.Values, name string) (block.Date, string, bool) {
	d, err := block.ParseDate(strings.TrimSpace(values.Get(name)))
	if err != nil {
		return "", name, false
	}
	return d, "", true
}

type agendaResponse struct {
	Days []dayDTO `json:"days"`
}

type dayDTO struct {
	Date     string      `json:"date"`
	Entries  []entryDTO  `json:"entries"`
	Progress progressDTO `json:"progress"`
}

type progressDTO struct {
	Completed int     `json:"completed"`
	Total     int     `json:"total"`
	Ratio     float64 `json:"ratio"`
}

type entryDTO struct {
	ID           string             `json:"id"`
	BlockID      string             `json:"block_id,omitempty"`
	Source       string             `json:"source"`
	Title        string             `json:"title"`
	Date         string             `json:"date"`
	StartTime    string             `json:"start_time"`
	EndTime      string             `json:"end_time"`
	Recurring    bool               `json:"recurring"`
	Movable      bool               `json:"movable"`
	Done         bool               `json:"done"`
	Color        string             `json:"color,omitempty"`
	Category     string             `json:"category,omitempty"`
	Checklist    []checklistItemDTO `json:"checklist,omitempty"`
	Column       int                `json:"column"`
	TotalColumns int                `json:"total_columns"`
}

func toDayDTOs(days []agenda.Day) []dayDTO {
	out := make([]dayDTO, 0, len(days))
	for _, d := range days {
		entries := make([]entryDTO, 0, len(d.Entries))
		for _, e := range d.Entries {
			var checklist []checklistItemDTO
			for _, item := range e.Checklist {
				checklist = append(checklist, checklistItemDTO{ID: item.ID, Text: item.Text, Completed: item.Completed})
			}
			entries = append(entries, entryDTO{
				ID:           e.ID,
				BlockID:      e.BlockID,
				Source:       string(e.Source),
				Title:        e.Title,
				Date:         string(e.Date),
				StartTime:    e.Start.String(),
				EndTime:      e.End.String(),
				Recurring:    e.Recurring,
				Movable:      e.Movable,
				Done:         e.Done,
				Color:        e.Color,
				Category:     e.Category,
				Checklist:    checklist,
				Column:       e.Column,
				TotalColumns: e.TotalColumns,
			})
		}
		out = append(out, dayDTO{
			Date:    string(d.Date),
			Entries: entries,
			Progress: progressDTO{
				Completed: d.Progress.Completed,
				Total:     d.Progress.Total,
				Ratio:     d.Progress.Ratio(),
			},
		})
	}
	return out
}

type overlaysPayload struct {
	Overlays []overlayDTO `json:"overlays"`
}

type overlayDTO struct {
	ID        string `json:"id"`
	Date      string `json:"date"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	Title     string `json:"title"`
	Kind      string `json:"kind"`
}

// toOverlay parses the wire form. Semantic checks stay in the service.
func (o overlayDTO) toOverlay() (block.Overlay, string, error) {
	start, err := block.ParseClock(strings.TrimSpace(o.StartTime))
	if err != nil {
		return block.Overlay{}, "start_time", fmt.Errorf("start_time must be HH:MM")
	}
	end, err := block.ParseClock(strings.TrimSpace(o.EndTime))
	if err != nil {
		return block.Overlay{}, "end_time", fmt.Errorf("end_time must be HH:MM")
	}
	return block.Overlay{
		ID:    strings.TrimSpace(o.ID),
		Date:  block.Date(strings.TrimSpace(o.Date)),
		Start: start,
		End:   end,
		Title: o.Title,
		Kind:  block.SourceKind(strings.TrimSpace(o.Kind)),
	}, "", nil
}

func toOverlayDTOs(overlays []block.Overlay) []overlayDTO {
	out := make([]overlayDTO, 0, len(overlays))
	for _, o := range overlays {
		out = append(out, overlayDTO{
			ID:        o.ID,
			Date:      string(o.Date),
			StartTime: o.Start.String(),
			EndTime:   o.End.String(),
			Title:     o.Title,
			Kind:      string(o.Kind),
		})
	}
	return out
}

type remindersResponse struct {
	Reminders []reminderDTO `json:"reminders"`
}

type reminderDTO struct {
	BlockID     string `json:"block_id"`
	Title       string `json:"title"`
	Date        string `json:"date"`
	StartsAt    string `json:"starts_at"`
	NotifyAt    string `json:"notify_at"`
	LeadMinutes int    `json:"lead_minutes"`
}
