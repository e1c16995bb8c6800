package editor

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/bezier-extrude/internal/extrude"
)

// DefaultDepth is the number of commands kept for undo.
const DefaultDepth = 50

var (
	ErrNothingToUndo = errors.New("nothing to undo")
	ErrNothingToRedo = errors.New("nothing to redo")
)

// History runs commands against one extruder and keeps undo and redo stacks.
// Once more than depth commands are recorded the oldest is forgotten.
type History struct {
	target *extrude.Extruder
	depth  int
	undo   []Command
	redo   []Command
	log    *zap.Logger
}

// NewHistory creates a history for e. depth <= 0 selects DefaultDepth.
func NewHistory(e *extrude.Extruder, depth int, log *zap.Logger) *History {
	if depth <= 0 {
		depth = DefaultDepth
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &History{target: e, depth: depth, log: log}
}

// Do executes cmd and records it. A failed command is not recorded.
// Recording a new command discards the redo stack.
func (h *History) Do(cmd Command) error {
	if err := cmd.Do(h.target); err != nil {
		return fmt.Errorf("%s: %w", cmd.Name(), err)
	}
	if len(h.undo) >= h.depth {
		h.undo = h.undo[1:]
	}
	h.undo = append(h.undo, cmd)
	h.redo = nil
	h.log.Debug("command done", zap.String("command", cmd.Name()), zap.Int("undo_depth", len(h.undo)))
	return nil
}

// Undo reverts the most recent command.
func (h *History) Undo() error {
	if len(h.undo) == 0 {
		return ErrNothingToUndo
	}
	cmd := h.undo[len(h.undo)-1]
	if err := cmd.Undo(h.target); err != nil {
		return fmt.Errorf("undo %s: %w", cmd.Name(), err)
	}
	h.undo = h.undo[:len(h.undo)-1]
	h.redo = append(h.redo, cmd)
	h.log.Debug("command undone", zap.String("command", cmd.Name()))
	return nil
}

// Redo re-executes the most recently undone command.
func (h *History) Redo() error {
	if len(h.redo) == 0 {
		return ErrNothingToRedo
	}
	cmd := h.redo[len(h.redo)-1]
	if err := cmd.Do(h.target); err != nil {
		return fmt.Errorf("redo %s: %w", cmd.Name(), err)
	}
	h.redo = h.redo[:len(h.redo)-1]
	h.undo = append(h.undo, cmd)
	h.log.Debug("command redone", zap.String("command", cmd.Name()))
	return nil
}

func (h *History) CanUndo() bool { return len(h.undo) > 0 }

func (h *History) CanRedo() bool { return len(h.redo) > 0 }

// UndoName returns the name of the command Undo would revert.
func (h *History) UndoName() string {
	if len(h.undo) == 0 {
		return ""
	}
	return h.undo[len(h.undo)-1].Name()
}

// Clear drops both stacks.
func (h *History) Clear() {
	h.undo = nil
	h.redo = nil
}
