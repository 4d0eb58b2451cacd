package domain

// UndoEvent is the net effect of one root-level action.
// The field names are part of the persisted contract and are inspected by external tooling.
type UndoEvent struct {
	// TargetPath is the path from the tracked root to the object the action ran on.
	TargetPath Path `json:"targetPath" yaml:"targetPath"`
	// ActionName is the name of the invoked action.
	ActionName string `json:"actionName" yaml:"actionName"`
	// Patches are the changes done inside the action, in chronological order.
	Patches []Patch `json:"patches" yaml:"patches"`
	// InversePatches undo Patches when applied in the given order.
	InversePatches []Patch `json:"inversePatches" yaml:"inversePatches"`
}

// History is the persisted form of an undo store.
// The last element of each slice is the top of its stack.
type History struct {
	UndoEvents []UndoEvent `json:"undoEvents" yaml:"undoEvents"`
	RedoEvents []UndoEvent `json:"redoEvents" yaml:"redoEvents"`

	// Sealed holds an encrypted copy of the stacks when the history went through an
	// encrypting store. Both stacks are empty in that case.
	Sealed string `json:"sealed,omitempty" yaml:"sealed,omitempty"`
}

// NewHistory returns an empty history.
func NewHistory() *History {
	return &History{
		UndoEvents: []UndoEvent{},
		RedoEvents: []UndoEvent{},
	}
}

// Clone returns a copy of h whose stacks can be modified independently.
// Patch values are shared since they are treated as immutable.
func (h *History) Clone() *History {
	out := &History{
		UndoEvents: make([]UndoEvent, len(h.UndoEvents)),
		RedoEvents: make([]UndoEvent, len(h.RedoEvents)),
		Sealed:     h.Sealed,
	}
	for i, ev := range h.UndoEvents {
		out.UndoEvents[i] = ev.Clone()
	}
	for i, ev := range h.RedoEvents {
		out.RedoEvents[i] = ev.Clone()
	}
	return out
}

// Clone returns a copy of e that shares no slices with it.
func (e UndoEvent) Clone() UndoEvent {
	e.TargetPath = append(Path{}, e.TargetPath...)
	e.Patches = append([]Patch{}, e.Patches...)
	e.InversePatches = append([]Patch{}, e.InversePatches...)
	return e
}
