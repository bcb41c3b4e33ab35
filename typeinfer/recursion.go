package typeinfer

import (
	"strings"

	"github.com/benbjohnson/immutable"
	"github.com/cottand/typeinfer/types"
	"github.com/cottand/typeinfer/util"
)

// Frame is a function being inferred for some argument types
type Frame struct {
	FuncID  string
	Args    []types.Type
	Inferer *TypeInferer
}

func (f *Frame) String() string {
	return f.FuncID + "(" + util.JoinString(f.Args, ", ") + ")"
}

// CallStack holds the functions currently being inferred, innermost last.
// Pushing returns a new stack and leaves the original untouched, so nested
// inferers can share the frames of their callers. The zero CallStack is empty
type CallStack struct {
	frames *immutable.List[*Frame]
}

func (s CallStack) Push(f *Frame) CallStack {
	if s.frames == nil {
		return CallStack{frames: immutable.NewList(f)}
	}
	return CallStack{frames: s.frames.Append(f)}
}

func (s CallStack) Len() int {
	if s.frames == nil {
		return 0
	}
	return s.frames.Len()
}

// Top returns the innermost frame, or nil
func (s CallStack) Top() *Frame {
	if s.Len() == 0 {
		return nil
	}
	return s.frames.Get(s.Len() - 1)
}

// FindFirst returns the innermost frame inferring funcID, or nil
func (s CallStack) FindFirst(funcID string) *Frame {
	for i := s.Len() - 1; i >= 0; i-- {
		if f := s.frames.Get(i); f.FuncID == funcID {
			return f
		}
	}
	return nil
}

// Match returns the innermost frame inferring funcID for exactly args, or nil
func (s CallStack) Match(funcID string, args []types.Type) *Frame {
	for i := s.Len() - 1; i >= 0; i-- {
		if f := s.frames.Get(i); f.FuncID == funcID && types.EqualSlices(f.Args, args) {
			return f
		}
	}
	return nil
}

func (s CallStack) String() string {
	frames := make([]string, 0, s.Len())
	for i := 0; i < s.Len(); i++ {
		frames = append(frames, s.frames.Get(i).String())
	}
	return "[" + strings.Join(frames, " -> ") + "]"
}

// Compiler infers the functions a TypeInferer finds calls to
type Compiler interface {
	// FoldArguments maps keyword arguments to the positions funcID declares them at
	FoldArguments(funcID string, args []types.Type, kws []types.KeywordArg) ([]types.Type, error)
	// Compile infers funcID for args with stack as the functions already being inferred
	Compile(stack CallStack, funcID string, args []types.Type) (*types.Signature, error)
	// Compiled returns the signature of funcID for args if it was already inferred, or nil
	Compiled(funcID string, args []types.Type) *types.Signature
}
