package scope

// MainFunction is the frame name used for top-level code.
const MainFunction = "<main>"

// Frame is one activation on the interpreter's call stack.
type Frame struct {
	// Function is the name of the function executing in this frame.
	Function string
	// CallLine is the source line of the call site (0 for the main frame).
	CallLine int
	// Scope is the innermost scope currently active in this frame.
	Scope *Scope
	// ReturnPC is the statement index execution resumes at after return.
	ReturnPC int
	// ResultVar receives the return value in the caller ("" discards it).
	ResultVar string
	// DeclareResult declares ResultVar rather than assigning it.
	DeclareResult bool
}

// State is the complete mutable state of an interpreter.
type State struct {
	// Frames is the call stack, outermost (main) first.
	Frames []*Frame
	// PC is the index of the next statement to execute.
	PC int
	// Output collects the lines produced by print statements.
	Output []string
	// Executed counts the statements executed so far.
	Executed int
}

// NewState creates a state holding a single main frame with an empty global
// scope, positioned at the first statement.
func NewState() *State {
	return &State{
		Frames: []*Frame{{
			Function: MainFunction,
			Scope:    NewScope(nil),
		}},
	}
}

// Top returns the innermost frame, or nil if the stack is empty.
func (st *State) Top() *Frame {
	if len(st.Frames) == 0 {
		return nil
	}
	return st.Frames[len(st.Frames)-1]
}

// Globals returns the root scope of the main frame.
func (st *State) Globals() *Scope {
	if len(st.Frames) == 0 {
		return nil
	}
	chain := st.Frames[0].Scope.Chain()
	return chain[0]
}

// Push adds a frame to the top of the call stack.
func (st *State) Push(f *Frame) {
	st.Frames = append(st.Frames, f)
}

// Pop removes and returns the innermost frame. The main frame is never
// popped; Pop returns nil when only main remains.
func (st *State) Pop() *Frame {
	if len(st.Frames) <= 1 {
		return nil
	}
	top := st.Frames[len(st.Frames)-1]
	st.Frames = st.Frames[:len(st.Frames)-1]
	return top
}

// Depth returns the number of frames on the call stack.
func (st *State) Depth() int {
	return len(st.Frames)
}
