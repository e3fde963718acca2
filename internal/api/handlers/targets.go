package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/donaldgifford/slot-watcher/internal/config"
	"github.com/donaldgifford/slot-watcher/internal/engine"
	domain "github.com/donaldgifford/slot-watcher/pkg/types"
)

// CycleScheduler is the part of the scheduler the API drives.
type CycleScheduler interface {
	Targets() []config.Target
	NextRun(targetID string) (time.Time, bool)
	Trigger(ctx context.Context, targetID string) (engine.Result, error)
}

// StateManager reads and resets persisted monitor state.
type StateManager interface {
	State(ctx context.Context, targetID string) (*domain.MonitorState, domain.Snapshot, error)
	Reset(ctx context.Context, targetID string) error
}

// TargetHandler serves target status, manual checks, and resets.
type TargetHandler struct {
	sched CycleScheduler
	state StateManager
}

// NewTargetHandler creates a new TargetHandler.
func NewTargetHandler(s CycleScheduler, st StateManager) *TargetHandler {
	return &TargetHandler{sched: s, state: st}
}

// ListTargetsOutput is the response body for listing targets.
type ListTargetsOutput struct {
	Body []domain.TargetStatus
}

// TargetInput identifies a target by path.
type TargetInput struct {
	ID string `path:"id" doc:"Target ID from the configuration" example:"azabu"`
}

// GetTargetOutput is the response body for a single target.
type GetTargetOutput struct {
	Body domain.TargetStatus
}

// CheckTargetOutput is the response body for a manual check.
type CheckTargetOutput struct {
	Body domain.CheckResult
}

// List returns every scheduled target with its persisted state.
func (h *TargetHandler) List(ctx context.Context, _ *struct{}) (*ListTargetsOutput, error) {
	targets := h.sched.Targets()
	out := make([]domain.TargetStatus, 0, len(targets))
	for _, t := range targets {
		st, err := h.status(ctx, t, false)
		if err != nil {
			return nil, huma.Error500InternalServerError("loading state failed: " + err.Error())
		}
		out = append(out, st)
	}
	return &ListTargetsOutput{Body: out}, nil
}

// Get returns one target with its current slots.
func (h *TargetHandler) Get(ctx context.Context, in *TargetInput) (*GetTargetOutput, error) {
	t, ok := h.lookup(in.ID)
	if !ok {
		return nil, huma.Error404NotFound("target not found: " + in.ID)
	}
	st, err := h.status(ctx, t, true)
	if err != nil {
		return nil, huma.Error500InternalServerError("loading state failed: " + err.Error())
	}
	return &GetTargetOutput{Body: st}, nil
}

// Check runs one poll cycle for the target now. A cycle that fails to fetch
// still returns 200 with the error in the body; notifications were sent.
func (h *TargetHandler) Check(ctx context.Context, in *TargetInput) (*CheckTargetOutput, error) {
	res, err := h.sched.Trigger(ctx, in.ID)
	switch {
	case errors.Is(err, engine.ErrUnknownTarget):
		return nil, huma.Error404NotFound("target not found: " + in.ID)
	case errors.Is(err, engine.ErrCycleInProgress):
		return nil, huma.Error409Conflict("a cycle for " + in.ID + " is already running")
	case errors.Is(err, engine.ErrPersistence):
		return nil, huma.Error500InternalServerError("saving state failed: " + err.Error())
	}

	body := domain.CheckResult{
		TargetID:      res.TargetID,
		Phase:         res.Phase,
		Outcome:       res.Outcome,
		Degraded:      res.Degraded,
		Notifications: res.Notifications,
		Changes:       res.Changes,
		SlotCount:     res.Snapshot.Len(),
	}
	if body.Notifications == nil {
		body.Notifications = []domain.NotificationEvent{}
	}
	if err != nil {
		body.Error = err.Error()
	}
	return &CheckTargetOutput{Body: body}, nil
}

// Reset forgets the target's state; its next cycle starts unopened.
func (h *TargetHandler) Reset(ctx context.Context, in *TargetInput) (*struct{}, error) {
	if _, ok := h.lookup(in.ID); !ok {
		return nil, huma.Error404NotFound("target not found: " + in.ID)
	}
	if err := h.state.Reset(ctx, in.ID); err != nil {
		return nil, huma.Error500InternalServerError("resetting state failed: " + err.Error())
	}
	return nil, nil
}

func (h *TargetHandler) lookup(id string) (config.Target, bool) {
	for _, t := range h.sched.Targets() {
		if t.ID == id {
			return t, true
		}
	}
	return config.Target{}, false
}

func (h *TargetHandler) status(ctx context.Context, t config.Target, withSlots bool) (domain.TargetStatus, error) {
	st, snap, err := h.state.State(ctx, t.ID)
	if err != nil {
		return domain.TargetStatus{}, err
	}

	out := domain.TargetStatus{
		ID:             t.ID,
		Name:           t.DisplayName(),
		URL:            t.URL,
		Phase:          st.Phase,
		Fingerprint:    st.Fingerprint,
		SlotCount:      snap.Len(),
		AvailableCount: len(snap.Available()),
	}
	if !st.UpdatedAt.IsZero() {
		updated := st.UpdatedAt
		out.UpdatedAt = &updated
	}
	if next, ok := h.sched.NextRun(t.ID); ok && !next.IsZero() {
		out.NextCheck = &next
	}
	if withSlots {
		out.Notes = t.Notes
		out.Slots = snap.Slots
	}
	return out, nil
}

// RegisterTargetRoutes registers target endpoints with the Huma API.
func RegisterTargetRoutes(api huma.API, h *TargetHandler) {
	huma.Register(api, huma.Operation{
		OperationID: "list-targets",
		Method:      http.MethodGet,
		Path:        "/api/v1/targets",
		Summary:     "List monitored targets",
		Description: "Returns every configured target with its phase, fingerprint, and slot counts.",
		Tags:        []string{"targets"},
		Errors:      []int{http.StatusInternalServerError},
	}, h.List)

	huma.Register(api, huma.Operation{
		OperationID: "get-target",
		Method:      http.MethodGet,
		Path:        "/api/v1/targets/{id}",
		Summary:     "Get a target",
		Description: "Returns one target with the slots from its last successful check.",
		Tags:        []string{"targets"},
		Errors:      []int{http.StatusNotFound, http.StatusInternalServerError},
	}, h.Get)

	huma.Register(api, huma.Operation{
		OperationID: "check-target",
		Method:      http.MethodPost,
		Path:        "/api/v1/targets/{id}/check",
		Summary:     "Check a target now",
		Description: "Runs one poll cycle outside the schedule. Notifications are sent as usual.",
		Tags:        []string{"targets"},
		Errors:      []int{http.StatusNotFound, http.StatusConflict, http.StatusInternalServerError},
	}, h.Check)

	huma.Register(api, huma.Operation{
		OperationID:   "reset-target",
		Method:        http.MethodDelete,
		Path:          "/api/v1/targets/{id}/state",
		Summary:       "Reset a target",
		Description:   "Deletes the stored state so the next cycle starts unopened and may announce opening again.",
		Tags:          []string{"targets"},
		DefaultStatus: http.StatusNoContent,
		Errors:        []int{http.StatusNotFound, http.StatusInternalServerError},
	}, h.Reset)
}
