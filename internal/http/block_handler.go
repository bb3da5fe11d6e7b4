package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/example/timeblocks/internal/application"
	"github.com/example/timeblocks/internal/block"
	"github.com/example/timeblocks/internal/persistence"
	"github.com/example/timeblocks/internal/timegrid"
)

type blockService interface {
	ListBlocks(ctx context.Context) []block.Block
	GetBlock(ctx context.Context, id string) (block.Block, error)
	CreateBlock(ctx context.Context, in application.BlockInput) (block.Block, []application.ConflictWarning, error)
	UpdateBlock(ctx context.Context, id string, in application.BlockInput) (block.Block, []application.ConflictWarning, error)
	DeleteBlock(ctx context.Context, id string) error
	MoveBlock(ctx context.Context, id string, deltaMinutes int) (block.Block, []application.ConflictWarning, error)
	ResizeBlock(ctx context.Context, id string, deltaMinutes int) (block.Block, []application.ConflictWarning, error)
	DuplicateBlock(ctx context.Context, id string, date block.Date) (block.Block, []application.ConflictWarning, error)
	ToggleCompletion(ctx context.Context, id string, date block.Date) (block.Block, error)
	ToggleChecklistItem(ctx context.Context, id, itemID string) (block.Block, error)
	DeleteOccurrence(ctx context.Context, id string, date block.Date) error
}

type BlockHandler struct {
	service   blockService
	quantizer timegrid.Quantizer
	responder responder
	logger    *slog.Logger
}

// NewBlockHandler builds the block endpoints. pixelsPerHour scales raw drag
// offsets that arrive without their own scale.
func NewBlockHandler(service blockService, pixelsPerHour float64, logger *slog.Logger) *BlockHandler {
	base := defaultLogger(logger)
	return &BlockHandler{
		service:   service,
		quantizer: timegrid.New(pixelsPerHour),
		responder: newResponder(base),
		logger:    base,
	}
}

func (h *BlockHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return handlerLogger(ctx, h.logger, "BlockHandler", operation, attrs...)
}

func (h *BlockHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	blocks := h.service.ListBlocks(r.Context())
	h.responder.writeJSON(r.Context(), w, http.StatusOK, listBlocksResponse{Blocks: persistence.ToRecords(blocks)})
}

func (h *BlockHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	id, ok := h.blockID(w, r)
	if !ok {
		return
	}
	b, err := h.service.GetBlock(r.Context(), id)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.renderBlock(r.Context(), w, b, nil, http.StatusOK)
}

func (h *BlockHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req blockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Create", "error_kind", "bad_request").WarnContext(r.Context(), "failed to decode block request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	b, warnings, err := h.service.CreateBlock(r.Context(), req.toInput())
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.log(r.Context(), "Create", "block_id", b.ID).InfoContext(r.Context(), "block created", "warnings", len(warnings))
	h.renderBlock(r.Context(), w, b, warnings, http.StatusCreated)
}

func (h *BlockHandler) Update(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	id, ok := h.blockID(w, r)
	if !ok {
		return
	}

	var req blockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	b, warnings, err := h.service.UpdateBlock(r.Context(), id, req.toInput())
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.renderBlock(r.Context(), w, b, warnings, http.StatusOK)
}

func (h *BlockHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	id, ok := h.blockID(w, r)
	if !ok {
		return
	}
	if err := h.service.DeleteBlock(r.Context(), id); err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

func (h *BlockHandler) Move(w http.ResponseWriter, r *http.Request) {
	h.adjust(w, r, "Move", h.service.MoveBlock)
}

func (h *BlockHandler) Resize(w http.ResponseWriter, r *http.Request) {
	h.adjust(w, r, "Resize", h.service.ResizeBlock)
}

type adjustFunc func(ctx context.Context, id string, deltaMinutes int) (block.Block, []application.ConflictWarning, error)

func (h *BlockHandler) adjust(w http.ResponseWriter, r *http.Request, operation string, apply adjustFunc) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	id, ok := h.blockID(w, r)
	if !ok {
		return
	}

	var req adjustRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}
	delta, err := req.delta(h.quantizer)
	if err != nil {
		h.responder.writeFieldError(r.Context(), w, "delta_minutes", err.Error())
		return
	}

	b, warnings, err := apply(r.Context(), id, delta)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.log(r.Context(), operation, "block_id", id).InfoContext(r.Context(), "block rescheduled", "delta_minutes", delta)
	h.renderBlock(r.Context(), w, b, warnings, http.StatusOK)
}

func (h *BlockHandler) Duplicate(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	id, ok := h.blockID(w, r)
	if !ok {
		return
	}

	var req dateRequest
	if !h.decodeOptional(w, r, &req) {
		return
	}

	b, warnings, err := h.service.DuplicateBlock(r.Context(), id, block.Date(strings.TrimSpace(req.Date)))
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.renderBlock(r.Context(), w, b, warnings, http.StatusCreated)
}

func (h *BlockHandler) Complete(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	id, ok := h.blockID(w, r)
	if !ok {
		return
	}

	var req dateRequest
	if !h.decodeOptional(w, r, &req) {
		return
	}

	b, err := h.service.ToggleCompletion(r.Context(), id, block.Date(strings.TrimSpace(req.Date)))
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.renderBlock(r.Context(), w, b, nil, http.StatusOK)
}

func (h *BlockHandler) ToggleChecklistItem(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	id, ok := h.blockID(w, r)
	if !ok {
		return
	}
	itemID, _ := SubresourceIDFromContext(r.Context())

	b, err := h.service.ToggleChecklistItem(r.Context(), id, itemID)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.renderBlock(r.Context(), w, b, nil, http.StatusOK)
}

func (h *BlockHandler) DeleteOccurrence(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	id, ok := h.blockID(w, r)
	if !ok {
		return
	}
	date, _ := SubresourceIDFromContext(r.Context())

	if err := h.service.DeleteOccurrence(r.Context(), id, block.Date(date)); err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.log(r.Context(), "DeleteOccurrence", "block_id", id, "date", date).InfoContext(r.Context(), "occurrence deleted")
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

func (h *BlockHandler) blockID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id, ok := BlockIDFromContext(r.Context())
	if !ok || strings.TrimSpace(id) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidBlockID)
		return "", false
	}
	return id, true
}

// decodeOptional accepts an empty body as the zero value.
func (h *BlockHandler) decodeOptional(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return false
	}
	return true
}

func (h *BlockHandler) renderBlock(ctx context.Context, w http.ResponseWriter, b block.Block, warnings []application.ConflictWarning, status int) {
	payload := blockResponse{
		Block:    persistence.ToRecord(b),
		Warnings: toWarningDTOs(warnings),
	}
	h.responder.writeJSON(ctx, w, status, payload)
}

type blockRequest struct {
	Title              string             `json:"title"`
	Date               string             `json:"date"`
	StartTime          string             `json:"start_time"`
	EndTime            string             `json:"end_time"`
	IsRecurring        bool               `json:"is_recurring"`
	RecurringDays      []int              `json:"recurring_days"`
	RecurringStartDate string             `json:"recurring_start_date"`
	RecurringEndDate   string             `json:"recurring_end_date"`
	Checklist          []checklistItemDTO `json:"checklist"`
	Category           string             `json:"category"`
	Type               string             `json:"type"`
	Color              string             `json:"color"`
	MeetingLink        string             `json:"meeting_link"`
	NotificationTime   *int               `json:"notification_time"`
	Description        string             `json:"description"`
}

type checklistItemDTO struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	Completed bool   `json:"completed"`
}

func (r blockRequest) toInput() application.BlockInput {
	checklist := make([]application.ChecklistItemInput, 0, len(r.Checklist))
	for _, item := range r.Checklist {
		checklist = append(checklist, application.ChecklistItemInput{
			ID:        item.ID,
			Text:      item.Text,
			Completed: item.Completed,
		})
	}
	return application.BlockInput{
		Title:               r.Title,
		Date:                r.Date,
		StartTime:           r.StartTime,
		EndTime:             r.EndTime,
		Recurring:           r.IsRecurring,
		RecurringDays:       append([]int(nil), r.RecurringDays...),
		RecurringStartDate:  r.RecurringStartDate,
		RecurringEndDate:    r.RecurringEndDate,
		Checklist:           checklist,
		Category:            r.Category,
		Type:                r.Type,
		Color:               r.Color,
		MeetingLink:         r.MeetingLink,
		NotificationMinutes: r.NotificationTime,
		Description:         r.Description,
	}
}

// adjustRequest carries either a minute offset or a raw vertical drag.
type adjustRequest struct {
	DeltaMinutes  *int     `json:"delta_minutes"`
	StartY        *float64 `json:"start_y"`
	CurrentY      *float64 `json:"current_y"`
	PixelsPerHour float64  `json:"pixels_per_hour"`
}

var errMissingDelta = errors.New("delta_minutes or start_y and current_y are required")

// delta snaps the requested offset to the grid step.
func (r adjustRequest) delta(fallback timegrid.Quantizer) (int, error) {
	if r.DeltaMinutes != nil {
		return timegrid.SnapMinutes(float64(*r.DeltaMinutes)), nil
	}
	if r.StartY == nil || r.CurrentY == nil {
		return 0, errMissingDelta
	}
	q := fallback
	if r.PixelsPerHour > 0 {
		q = timegrid.New(r.PixelsPerHour)
	}
	return q.SnapDelta(*r.CurrentY - *r.StartY), nil
}

type dateRequest struct {
	Date string `json:"date"`
}

type blockResponse struct {
	Block    persistence.BlockRecord `json:"block"`
	Warnings []conflictWarningDTO    `json:"warnings,omitempty"`
}

type listBlocksResponse struct {
	Blocks []persistence.BlockRecord `json:"blocks"`
}

type conflictWarningDTO struct {
	BlockID   string `json:"block_id"`
	WithID    string `json:"with_id"`
	Date      string `json:"date"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

func toWarningDTOs(warnings []application.ConflictWarning) []conflictWarningDTO {
	if len(warnings) == 0 {
		return nil
	}

	out := make([]conflictWarningDTO, 0, len(warnings))
	for _, warning := range warnings {
		out = append(out, conflictWarningDTO{
			BlockID:   warning.BlockID,
			WithID:    warning.WithID,
			Date:      string(warning.Date),
			StartTime: warning.Start.String(),
			EndTime:   warning.End.String(),
		})
	}
	return out
}
