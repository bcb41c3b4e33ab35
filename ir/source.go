package ir

import (
	"fmt"
	"go/token"
	"unicode"
	"unicode/utf8"
)

// Loc is the position of an instruction in the original source file.
// The zero Loc is the unknown location and prints as "-"
type Loc = token.Position

var UnknownLoc = Loc{}

// Located allows finding the location in the original source file.
// The easiest way to be Located is to carry an At field
type Located interface {
	Loc() Loc
}

// Node is anything a call type can be recorded against, or that
// can be reported in a diagnostic
type Node interface {
	Located
	fmt.Stringer
}

// Var is a reference to a variable by name.
//
// By convention, names not starting with a letter (like "$phi1.2") are
// temporaries introduced while building the IR
type Var struct {
	Name string
	At   Loc
}

func (v Var) Loc() Loc        { return v.At }
func (v Var) String() string { return v.Name }
func (v Var) IsTemp() bool   { return IsTemp(v.Name) }

// IsTemp returns true for variable names that were not written by the user
func IsTemp(name string) bool {
	r, _ := utf8.DecodeRuneInString(name)
	return r == utf8.RuneError || !unicode.IsLetter(r)
}

// FuncRef is the value of a global referring to another function of the same program
type FuncRef struct {
	ID   string
	Name string
}

func (f FuncRef) String() string { return fmt.Sprintf("<function %s>", f.Name) }

// BuiltinRef is the value of a global referring to a builtin like len or range
type BuiltinRef struct {
	Name string
}

func (b BuiltinRef) String() string { return fmt.Sprintf("<built-in %s>", b.Name) }

// Unbound is the value of a global whose name could not be resolved when building the IR
type Unbound struct {
	Name string
}

func (u Unbound) String() string { return fmt.Sprintf("<unbound %s>", u.Name) }
