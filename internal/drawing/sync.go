package drawing

import (
	"fmt"
	"image"
	"sync"
)

// Synchronizer keeps one participant's canvas consistent with the active
// drawer. Local input is accepted only while the gate is open (this
// participant is drawing); remote ops are applied only when they come from the
// current drawer. Every accepted local op is normalized and handed to emit.
type Synchronizer struct {
	mu sync.Mutex

	canvas   *Canvas
	undo     UndoStack
	drawerID string
	enabled  bool

	emit     func(Operation)
	onChange func(*Canvas)
}

type SyncOptions struct {
	// Emit receives every accepted local op in normalized form.
	Emit func(Operation)
	// OnChange is called after the canvas changed, under the sync lock.
	OnChange func(*Canvas)
}

func NewSynchronizer(canvas *Canvas, opts SyncOptions) *Synchronizer {
	return &Synchronizer{
		canvas:   canvas,
		emit:     opts.Emit,
		onChange: opts.OnChange,
	}
}

// SetEmitter replaces the outbound hook; the session wires itself in here.
func (s *Synchronizer) SetEmitter(emit func(Operation)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.emit = emit
}

// SetDrawer records who may mutate the canvas and whether that is us.
func (s *Synchronizer) SetDrawer(drawerID string, local bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.drawerID != drawerID {
		s.undo.Reset()
	}
	s.drawerID = drawerID
	s.enabled = local && drawerID != ""
}

// BeginStroke starts a stroke at p, given in local canvas pixels.
func (s *Synchronizer) BeginStroke(p Point, c Color, widthPx float64) error {
	return s.local(true, func(ext Extent) Operation {
		return StrokeStart(Normalize(p, ext), c, widthPx/ext.Width)
	})
}

// ContinueStroke extends the current stroke from one local point to the next.
func (s *Synchronizer) ContinueStroke(from, to Point, c Color, widthPx float64) error {
	return s.local(false, func(ext Extent) Operation {
		return StrokeSegment(Normalize(from, ext), Normalize(to, ext), c, widthPx/ext.Width)
	})
}

// Fill flood-fills from a local seed point.
func (s *Synchronizer) Fill(p Point, c Color) error {
	return s.local(true, func(ext Extent) Operation {
		return FloodFill(Normalize(p, ext), c)
	})
}

func (s *Synchronizer) ClearCanvas() error {
	return s.local(true, func(Extent) Operation {
		return Clear()
	})
}

// Undo restores the latest snapshot and emits the resulting raster, so
// viewers converge on the same pixels without replaying strokes.
func (s *Synchronizer) Undo() error {
	s.mu.Lock()
	if !s.enabled {
		s.mu.Unlock()
		return ErrNotDrawer
	}
	img, ok := s.undo.Pop()
	if !ok {
		s.mu.Unlock()
		return ErrNothingToUndo
	}
	s.canvas.Restore(img)
	s.changedLocked()
	emit := s.emit
	s.mu.Unlock()

	png, err := EncodePNG(img)
	if err != nil {
		return err
	}
	if emit != nil {
		emit(Snapshot(png))
	}
	return nil
}

// ApplyRemote renders an op relayed from the wire. Ops from anyone but the
// current drawer are ignored and reported as false.
func (s *Synchronizer) ApplyRemote(from string, op Operation) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if from == "" || from != s.drawerID {
		return false, nil
	}
	if _, err := s.canvas.Apply(op); err != nil {
		return false, err
	}
	s.changedLocked()
	return true, nil
}

// SnapshotOp captures the whole canvas as a snapshot op, used to bring a late
// joiner up to date.
func (s *Synchronizer) SnapshotOp() (Operation, error) {
	png, err := s.PNG()
	if err != nil {
		return Operation{}, err
	}
	return Snapshot(png), nil
}

// PNG encodes the current canvas.
func (s *Synchronizer) PNG() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return EncodePNG(s.canvas.Image())
}

// Reset wipes the canvas and undo history, e.g. at the start of a turn.
func (s *Synchronizer) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.undo.Reset()
	s.canvas.clear()
	s.changedLocked()
}

func (s *Synchronizer) UndoDepth() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.undo.Len()
}

// local applies one op produced from drawer input and emits it once the lock
// is released; emit calls back into the session, which may hold its own lock
// while calling into the synchronizer.
func (s *Synchronizer) local(snapshot bool, build func(Extent) Operation) error {
	s.mu.Lock()
	if !s.enabled {
		s.mu.Unlock()
		return ErrNotDrawer
	}
	op := build(s.canvas.Extent())
	if err := op.Validate(); err != nil {
		s.mu.Unlock()
		return fmt.Errorf("local %s: %w", op.Kind, err)
	}
	var before *image.RGBA
	if snapshot {
		before = s.canvas.Clone()
	}
	n, err := s.canvas.Apply(op)
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("local %s: %w", op.Kind, err)
	}
	// a fill onto its own colour changes nothing and is not sent
	if op.Kind == OpFloodFill && n == 0 {
		s.mu.Unlock()
		return nil
	}
	if before != nil {
		s.undo.Push(before)
	}
	s.changedLocked()
	emit := s.emit
	s.mu.Unlock()

	if emit != nil {
		emit(op)
	}
	return nil
}

func (s *Synchronizer) changedLocked() {
	if s.onChange != nil {
		s.onChange(s.canvas)
	}
}
