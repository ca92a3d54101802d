package layout

// Stack tracks the currently active layers in priority order. The base
// layer is always present at the bottom and can never be removed; a
// switched layer sits directly above it; toggled layers stack above
// both in activation order.
//
// The stack is owned exclusively by the dispatch loop and is not safe
// for concurrent mutation.
type Stack struct {
	base     string
	switched string
	toggles  []string
}

// NewStack creates a stack with only the base layer active.
func NewStack(base string) *Stack {
	return &Stack{base: base}
}

// Base returns the immutable base layer name.
func (s *Stack) Base() string {
	return s.base
}

// PushToggle latches a layer on top of the stack. The same layer may be
// pushed by several trigger keys; each push needs a matching pop.
func (s *Stack) PushToggle(name string) {
	s.toggles = append(s.toggles, name)
}

// PopToggle removes the most recent activation of the named layer.
// Popping a layer that is not active is a no-op.
func (s *Stack) PopToggle(name string) {
	for i := len(s.toggles) - 1; i >= 0; i-- {
		if s.toggles[i] == name {
			s.toggles = append(s.toggles[:i], s.toggles[i+1:]...)
			return
		}
	}
}

// SwitchTo atomically clears all toggled layers and activates exactly
// the named layer above the base.
func (s *Stack) SwitchTo(name string) {
	s.toggles = s.toggles[:0]
	s.switched = name
}

// ActiveSequence returns the active layer names, most recent first,
// ending with the base layer.
func (s *Stack) ActiveSequence() []string {
	seq := make([]string, 0, len(s.toggles)+2)
	for i := len(s.toggles) - 1; i >= 0; i-- {
		seq = append(seq, s.toggles[i])
	}
	if s.switched != "" {
		seq = append(seq, s.switched)
	}
	seq = append(seq, s.base)
	return seq
}

// Depth returns the number of active layers including the base.
func (s *Stack) Depth() int {
	n := len(s.toggles) + 1
	if s.switched != "" {
		n++
	}
	return n
}
