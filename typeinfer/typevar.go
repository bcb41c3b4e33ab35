package typeinfer

import (
	"fmt"
	"slices"

	"github.com/cottand/typeinfer/ir"
	"github.com/cottand/typeinfer/tierr"
	"github.com/cottand/typeinfer/types"
	"github.com/cottand/typeinfer/typing"
	"github.com/pkg/errors"
)

type notSet struct{}

func (notSet) String() string { return "<not set>" }

// NotSet is the LiteralValue of a TypeVar that holds no constant
var NotSet any = notSet{}

// TypeVar is the type of a single variable as inference progresses.
//
// An unlocked TypeVar only ever grows: every new type is unified with the
// current one. A locked TypeVar keeps its type, and only checks that new
// types convert to it.
type TypeVar struct {
	ctx typing.Context

	Var string
	// Type is nil until the variable is first typed
	Type      types.Type
	Locked    bool
	DefineLoc ir.Loc
	// LiteralValue is the constant the variable was locked with, or NotSet
	LiteralValue any
}

func newTypeVar(ctx typing.Context, name string) *TypeVar {
	return &TypeVar{ctx: ctx, Var: name, LiteralValue: NotSet}
}

// AddType merges t into the type of the variable and returns the resulting type
func (tv *TypeVar) AddType(t types.Type, loc ir.Loc) (types.Type, error) {
	if tv.Locked {
		if !types.Equal(t, tv.Type) && !tv.ctx.CanConvert(t, tv.Type) {
			return nil, tierr.New(tierr.NoConversionError{Var: tv.Var, From: t, To: tv.Type, DefinedAt: tv.DefineLoc, At: loc})
		}
		return tv.Type, nil
	}
	if tv.Type == nil {
		tv.Type = t
		tv.DefineLoc = loc
		return tv.Type, nil
	}
	unified := tv.ctx.UnifyPairs(tv.Type, t)
	if unified == nil {
		return nil, tierr.New(tierr.CannotUnify{Var: tv.Var, First: tv.Type, Second: t, DefinedAt: tv.DefineLoc, At: tv.DefineLoc})
	}
	tv.Type = unified
	return tv.Type, nil
}

// Lock fixes the type of the variable to t. A TypeVar can only be locked once
func (tv *TypeVar) Lock(t types.Type, loc ir.Loc, literal any) error {
	if tv.Locked {
		cause := errors.Errorf("invalid reassignment of a type-variable: type variables are locked by the seeded signature or by constants. Type=%s. %s", t, tv.Type)
		return tierr.New(tierr.InternalError{Cause: cause, Constraint: "lock " + tv.Var, Trace: fmt.Sprintf("%+v", cause), At: loc})
	}
	if tv.Type != nil && !tv.ctx.CanConvert(tv.Type, t) {
		return tierr.New(tierr.NoConversionError{Var: tv.Var, From: t, To: tv.Type, DefinedAt: tv.DefineLoc, At: loc})
	}
	tv.Type = t
	tv.Locked = true
	if !tv.DefineLoc.IsValid() {
		tv.DefineLoc = loc
	}
	tv.LiteralValue = literal
	return nil
}

// Union merges the type of other, if it has one, and returns the type of tv
func (tv *TypeVar) Union(other *TypeVar, loc ir.Loc) (types.Type, error) {
	if other.Type != nil {
		return tv.AddType(other.Type, loc)
	}
	return tv.Type, nil
}

func (tv *TypeVar) Defined() bool { return tv.Type != nil }

// Get returns the type of the variable as a slice of zero or one elements
func (tv *TypeVar) Get() []types.Type {
	if tv.Type == nil {
		return nil
	}
	return []types.Type{tv.Type}
}

func (tv *TypeVar) GetOne() (types.Type, error) {
	if tv.Type == nil {
		return nil, tierr.Typingf(tv.DefineLoc, "Undecided type %s", tv)
	}
	return tv.Type, nil
}

func (tv *TypeVar) String() string {
	if tv.Type == nil {
		return fmt.Sprintf("%s := <undecided>", tv.Var)
	}
	return fmt.Sprintf("%s := %s", tv.Var, tv.Type)
}

// ----------------------------------------------

// TypeVarMap holds the TypeVar of every variable. Looking up a variable creates its TypeVar
type TypeVarMap struct {
	ctx  typing.Context
	vars map[string]*TypeVar
}

func NewTypeVarMap(ctx typing.Context) *TypeVarMap {
	return &TypeVarMap{ctx: ctx, vars: make(map[string]*TypeVar)}
}

// Get returns the TypeVar of name, creating it if needed
func (m *TypeVarMap) Get(name string) *TypeVar {
	tv, ok := m.vars[name]
	if !ok {
		tv = newTypeVar(m.ctx, name)
		m.vars[name] = tv
	}
	return tv
}

// Lookup returns the TypeVar of name without creating it
func (m *TypeVarMap) Lookup(name string) (*TypeVar, bool) {
	tv, ok := m.vars[name]
	return tv, ok
}

// Set adds a TypeVar for name. Variables cannot be redefined
func (m *TypeVarMap) Set(name string, tv *TypeVar) error {
	if _, ok := m.vars[name]; ok {
		return errors.Errorf("cannot redefine typevar %s", name)
	}
	m.vars[name] = tv
	return nil
}

// Names returns the names of all variables, sorted
func (m *TypeVarMap) Names() []string {
	names := make([]string, 0, len(m.vars))
	for name := range m.vars {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

func (m *TypeVarMap) Len() int { return len(m.vars) }
