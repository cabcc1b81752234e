// Package canvas drives interactive drag and resize sessions over a trip's
// moment grid: candidate snapping, live preview reflow, and the batched
// position commit at gesture end.
package canvas

import (
	"context"
	"log/slog"
	"sync"

	apperr "github.com/driftlog/driftlog-server/internal/errors"

	"github.com/driftlog/driftlog-server/internal/domain"
	"github.com/driftlog/driftlog-server/internal/grid"
)

// State is the gesture state of a canvas session.
type State string

const (
	StateIdle       State = "idle"
	StateDragging   State = "dragging"
	StateResizing   State = "resizing"
	StateCommitting State = "committing"
)

// PositionUpdate pairs a moment with its new grid position for a batch commit.
type PositionUpdate struct {
	MomentID string              `json:"moment_id"`
	Position domain.GridPosition `json:"position"`
}

// Committer persists a batch of reflowed positions in one call.
type Committer interface {
	CommitPositions(ctx context.Context, tripID string, updates []PositionUpdate) error
}

// Session is one user's live view of a trip canvas. Three layers of state
// apply in precedence order while a gesture is active: the gesture preview,
// then the optimistic local set, then the last-known server set. A session
// has at most one gesture in flight at a time.
type Session struct {
	mu sync.Mutex

	tripID  string
	role    domain.Role
	metrics grid.Metrics

	moments []*domain.Moment // optimistic local state, server-reconciled
	preview []*domain.Moment // non-nil only while a gesture is active

	state     State
	activeID  string
	candidate domain.GridPosition
	origin    grid.Frame // active moment's pixel frame at gesture start

	committer Committer
	logger    *slog.Logger
}

// NewSession creates a canvas session over the given moment set. The role
// gates gesture starts; a viewer's session only renders.
func NewSession(tripID string, role domain.Role, metrics grid.Metrics, moments []*domain.Moment, committer Committer, logger *slog.Logger) *Session {
	return &Session{
		tripID:    tripID,
		role:      role,
		metrics:   metrics,
		moments:   cloneMoments(moments),
		state:     StateIdle,
		committer: committer,
		logger:    logger.With("component", "canvas", "trip_id", tripID),
	}
}

// State returns the current gesture state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Moments returns the set the canvas should render right now: the gesture
// preview when one is active, otherwise the optimistic local set.
func (s *Session) Moments() []*domain.Moment {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneMoments(s.visible())
}

// Layout returns pixel frames for the currently visible set.
func (s *Session) Layout() map[string]grid.Frame {
	s.mu.Lock()
	defer s.mu.Unlock()
	return grid.CalculateLayout(s.visible(), s.metrics)
}

// BeginDrag starts a drag gesture on a moment. Fails before any state
// changes if the session's role cannot edit, if another gesture is active,
// or if the moment is unknown.
func (s *Session) BeginDrag(momentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.beginGesture(momentID, StateDragging); err != nil {
		return err
	}

	frames := grid.CalculateLayout(s.moments, s.metrics)
	s.origin = frames[momentID]
	return nil
}

// UpdateDrag applies an accumulated pointer translation in pixels. When the
// snapped candidate changes, the preview reflows around the pinned moment.
// No persistence happens here.
func (s *Session) UpdateDrag(dx, dy float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateDragging {
		return
	}

	active := findMoment(s.moments, s.activeID)
	candidate := s.metrics.CandidatePosition(
		s.origin.X+dx,
		s.origin.Y+dy,
		active.GridPosition.Width,
		active.GridPosition.Height,
	)
	if candidate == s.candidate {
		return
	}

	s.candidate = candidate
	s.refreshPreview()
}

// EndDrag commits the gesture: one final pinned reflow, then a single batch
// call carrying every changed position. The optimistic set is rolled back to
// its pre-commit state if the call fails.
func (s *Session) EndDrag(ctx context.Context) error {
	return s.commitGesture(ctx, StateDragging)
}

// CancelDrag abandons the gesture and restores the pre-gesture layout.
func (s *Session) CancelDrag() {
	s.cancelGesture(StateDragging)
}

// BeginResize starts a resize gesture on a moment. Same gating as BeginDrag.
func (s *Session) BeginResize(momentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.beginGesture(momentID, StateResizing)
}

// SetSize applies a size chosen from the picker and refreshes the preview.
// The moment keeps its column and row; a width change to full span forces
// column zero.
func (s *Session) SetSize(width int, height float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateResizing {
		return
	}

	active := findMoment(s.moments, s.activeID)
	candidate := s.metrics.CandidatePosition(0, 0, width, height)
	candidate.Row = active.GridPosition.Row
	if candidate.Width < domain.GridColumnCount {
		candidate.Column = active.GridPosition.Column
	}

	if candidate == s.candidate {
		return
	}
	s.candidate = candidate
	s.refreshPreview()
}

// EndResize commits the resize with the same batch semantics as EndDrag.
func (s *Session) EndResize(ctx context.Context) error {
	return s.commitGesture(ctx, StateResizing)
}

// CancelResize abandons the gesture and restores the pre-gesture layout.
func (s *Session) CancelResize() {
	s.cancelGesture(StateResizing)
}

// ApplyServerSnapshot replaces the session's moment set with an authoritative
// push from the store. During an active gesture the actively manipulated
// moment keeps its candidate position and the preview is rebuilt around it,
// so an incoming snapshot never yanks the moment out from under the pointer.
func (s *Session) ApplyServerSnapshot(moments []*domain.Moment) {
	s.mu.Lock()
	defer s.mu.Unlock()

	fresh := cloneMoments(moments)

	if s.state == StateDragging || s.state == StateResizing {
		if findMoment(fresh, s.activeID) != nil {
			s.moments = fresh
			s.refreshPreview()
			return
		}
		// The active moment was deleted remotely; the gesture has nothing
		// left to commit.
		s.logger.Info("active moment removed by server, abandoning gesture", "moment_id", s.activeID)
		s.resetGesture()
	}

	s.moments = fresh
}

func (s *Session) beginGesture(momentID string, next State) error {
	if !s.role.CanEdit() {
		return apperr.Forbidden("only the owner or a collaborator can rearrange moments")
	}
	if s.state != StateIdle {
		return apperr.Conflict("another gesture is already in progress")
	}

	active := findMoment(s.moments, momentID)
	if active == nil {
		return apperr.NotFoundf("moment %s not found on canvas", momentID)
	}

	s.state = next
	s.activeID = momentID
	s.candidate = active.GridPosition
	return nil
}

func (s *Session) commitGesture(ctx context.Context, expect State) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != expect {
		return apperr.Conflict("no matching gesture in progress")
	}

	s.state = StateCommitting
	final := s.previewOrCurrent()
	previous := s.moments

	updates := changedPositions(previous, final)
	s.moments = final
	s.resetGesture()

	if len(updates) == 0 {
		return nil
	}

	if err := s.committer.CommitPositions(ctx, s.tripID, updates); err != nil {
		// Symmetric rollback: the optimistic layout reverts so the canvas
		// matches what the server still holds.
		s.moments = previous
		s.logger.Warn("position commit failed, rolled back", "error", err, "updates", len(updates))
		return err
	}

	return nil
}

func (s *Session) cancelGesture(expect State) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != expect {
		return
	}
	s.resetGesture()
}

func (s *Session) resetGesture() {
	s.state = StateIdle
	s.activeID = ""
	s.candidate = domain.GridPosition{}
	s.origin = grid.Frame{}
	s.preview = nil
}

// refreshPreview rebuilds the preview: the active moment takes its candidate
// position and everything else reflows around it, pinned.
func (s *Session) refreshPreview() {
	working := cloneMoments(s.moments)
	if active := findMoment(working, s.activeID); active != nil {
		active.GridPosition = s.candidate
	}
	s.preview = grid.Reflow(working, s.activeID)
}

// previewOrCurrent returns the set a commit should persist.
func (s *Session) previewOrCurrent() []*domain.Moment {
	if s.preview != nil {
		return s.preview
	}
	return s.moments
}

func (s *Session) visible() []*domain.Moment {
	if s.preview != nil {
		return s.preview
	}
	return s.moments
}

// changedPositions diffs two moment sets and returns one update per moment
// whose position moved, so the batch carries only real changes.
func changedPositions(before, after []*domain.Moment) []PositionUpdate {
	prior := make(map[string]domain.GridPosition, len(before))
	for _, m := range before {
		prior[m.ID] = m.GridPosition
	}

	var updates []PositionUpdate
	for _, m := range after {
		if pos, ok := prior[m.ID]; !ok || pos != m.GridPosition {
			updates = append(updates, PositionUpdate{MomentID: m.ID, Position: m.GridPosition})
		}
	}
	return updates
}

func findMoment(moments []*domain.Moment, id string) *domain.Moment {
	for _, m := range moments {
		if m.ID == id {
			return m
		}
	}
	return nil
}

func cloneMoments(moments []*domain.Moment) []*domain.Moment {
	out := make([]*domain.Moment, len(moments))
	for i, m := range moments {
		clone := *m
		out[i] = &clone
	}
	return out
}
