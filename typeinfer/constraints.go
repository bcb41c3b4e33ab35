package typeinfer

import (
	"fmt"

	"github.com/cottand/typeinfer/ir"
	"github.com/cottand/typeinfer/tierr"
	"github.com/cottand/typeinfer/types"
	"github.com/cottand/typeinfer/util"
)

// Constraint is a single typing rule. Apply is called once per propagation pass, and must
// do nothing when the types it depends on are not known yet
type Constraint interface {
	Apply(ti *TypeInferer) error
	Loc() ir.Loc
	String() string
}

// Refiner is a Constraint that can push a more precise type of its target back to its sources
type Refiner interface {
	Constraint
	Refine(ti *TypeInferer, updated types.Type) error
}

// CallSite is a Constraint that resolves a signature, like a call or a setitem
type CallSite interface {
	Constraint
	CallSignature() (*types.Signature, bool)
}

var (
	_ Refiner  = (*Propagate)(nil)
	_ Refiner  = (*GetAttrConstraint)(nil)
	_ Refiner  = (*CallConstraint)(nil)
	_ Refiner  = (*IntrinsicCallConstraint)(nil)
	_ CallSite = (*CallConstraint)(nil)
	_ CallSite = (*IntrinsicCallConstraint)(nil)
	_ CallSite = (*StaticGetItemConstraint)(nil)
	_ CallSite = (*SetItemConstraint)(nil)
	_ CallSite = (*StaticSetItemConstraint)(nil)
	_ CallSite = (*DelItemConstraint)(nil)
	_ CallSite = (*SetAttrConstraint)(nil)
	_ CallSite = (*PrintConstraint)(nil)
)

// signatureCell holds the signature a call-like constraint resolved to. It may be
// replaced while propagating. Once frozen, later writes are ignored
type signatureCell struct {
	sig    *types.Signature
	frozen bool
}

func (c *signatureCell) set(sig *types.Signature) {
	if c.frozen {
		return
	}
	c.sig = sig
}

func (c *signatureCell) freeze() { c.frozen = true }

func (c *signatureCell) CallSignature() (*types.Signature, bool) {
	return c.sig, c.sig != nil
}

// ----------------------------------------------

// Propagate is the assignment Dst = Src
type Propagate struct {
	Dst, Src string
	At       ir.Loc
}

func (c *Propagate) Loc() ir.Loc    { return c.At }
func (c *Propagate) String() string { return fmt.Sprintf("propagate %s = %s", c.Dst, c.Src) }

func (c *Propagate) Apply(ti *TypeInferer) error {
	if err := ti.CopyType(c.Src, c.Dst, c.At); err != nil {
		return err
	}
	ti.refineMap[c.Dst] = c
	return nil
}

// Refine pushes the refined type of Dst back to Src, unless Src is locked
func (c *Propagate) Refine(ti *TypeInferer, updated types.Type) error {
	if !types.IsPrecise(updated) {
		return nil
	}
	return ti.addType(c.Src, updated, c.At, true)
}

// ArgConstraint binds the argument slot Src to the variable Dst
type ArgConstraint struct {
	Dst, Src string
	At       ir.Loc
}

func (c *ArgConstraint) Loc() ir.Loc    { return c.At }
func (c *ArgConstraint) String() string { return fmt.Sprintf("arg %s = %s", c.Dst, c.Src) }

func (c *ArgConstraint) Apply(ti *TypeInferer) error {
	src := ti.typeVars.Get(c.Src)
	if !src.Defined() {
		return nil
	}
	t := src.Type
	if omitted, ok := t.(types.Omitted); ok {
		resolved, err := ti.resolveValueTypePreferLiteral(omitted.Value, c.At)
		if err != nil {
			return err
		}
		t = resolved
	}
	if !types.IsPrecise(t) {
		return tierr.Typingf(c.At, "non-precise type %s", t)
	}
	return ti.AddType(c.Dst, t, c.At)
}

// BuildTupleConstraint types Target = (Items...)
type BuildTupleConstraint struct {
	Target string
	Items  []ir.Var
	At     ir.Loc
}

func (c *BuildTupleConstraint) Loc() ir.Loc { return c.At }
func (c *BuildTupleConstraint) String() string {
	return fmt.Sprintf("build_tuple %s = (%s)", c.Target, util.JoinString(c.Items, ", "))
}

func (c *BuildTupleConstraint) Apply(ti *TypeInferer) error {
	for elems := range util.Product(ti.typeSets(c.Items)) {
		// elems is reused by Product
		tuple := types.MakeTuple(append([]types.Type(nil), elems...))
		if err := ti.AddType(c.Target, tuple, c.At); err != nil {
			return err
		}
	}
	return nil
}

// BuildContainerConstraint types Target = [Items...] or {Items...}
type BuildContainerConstraint struct {
	Target string
	Items  []ir.Var
	// Kind is build_list or build_set
	Kind string
	At   ir.Loc
}

func (c *BuildContainerConstraint) Loc() ir.Loc { return c.At }
func (c *BuildContainerConstraint) String() string {
	return fmt.Sprintf("%s %s = [%s]", c.Kind, c.Target, util.JoinString(c.Items, ", "))
}

func (c *BuildContainerConstraint) container(elem types.Type) types.Type {
	elem = types.Unliteral(elem)
	if c.Kind == "build_set" {
		return types.Set{Elem: elem}
	}
	return types.List{Elem: elem}
}

// Apply adds a container for every combination of item types that unify.
// Combinations that do not unify are skipped
func (c *BuildContainerConstraint) Apply(ti *TypeInferer) error {
	if len(c.Items) == 0 {
		return ti.AddType(c.Target, c.container(types.Undefined), c.At)
	}
	for elems := range util.Product(ti.typeSets(c.Items)) {
		unified := ti.ctx.UnifyTypes(elems...)
		if unified == nil {
			continue
		}
		if err := ti.AddType(c.Target, c.container(unified), c.At); err != nil {
			return err
		}
	}
	return nil
}

// ExhaustIterConstraint types Target as a tuple of exactly Count elements unpacked from Iterator
type ExhaustIterConstraint struct {
	Target   string
	Count    int
	Iterator ir.Var
	At       ir.Loc
}

func (c *ExhaustIterConstraint) Loc() ir.Loc { return c.At }
func (c *ExhaustIterConstraint) String() string {
	return fmt.Sprintf("exhaust_iter %s = %s x %d", c.Target, c.Iterator, c.Count)
}

func (c *ExhaustIterConstraint) Apply(ti *TypeInferer) error {
	for _, t := range ti.typeVars.Get(c.Iterator.Name).Get() {
		if opt, ok := t.(types.Optional); ok {
			t = opt.Inner
		}
		switch t := t.(type) {
		case types.BaseTuple:
			if t.Len() != c.Count {
				return tierr.New(tierr.UnpackLengthMismatch{Var: c.Iterator.Name, Expected: c.Count, Got: t.Len(), At: c.At})
			}
			return ti.AddType(c.Target, t, c.At)
		case types.IterableType:
			tuple := types.UniTuple{Elem: t.Iterator().Yield(), Count: c.Count}
			return ti.AddType(c.Target, tuple, c.At)
		default:
			return tierr.New(tierr.FailedUnpack{Type: t, At: c.At})
		}
	}
	return nil
}

// PairConstraint types Target as one half of the pair in Pair
type PairConstraint struct {
	Target string
	Pair   ir.Var
	Second bool
	At     ir.Loc
}

func (c *PairConstraint) Loc() ir.Loc { return c.At }
func (c *PairConstraint) String() string {
	if c.Second {
		return fmt.Sprintf("pair_second %s = %s", c.Target, c.Pair)
	}
	return fmt.Sprintf("pair_first %s = %s", c.Target, c.Pair)
}

// Apply ignores values that are not pairs
func (c *PairConstraint) Apply(ti *TypeInferer) error {
	for _, t := range ti.typeVars.Get(c.Pair.Name).Get() {
		pair, ok := t.(types.Pair)
		if !ok {
			continue
		}
		half := pair.First
		if c.Second {
			half = pair.Second
		}
		if err := ti.AddType(c.Target, half, c.At); err != nil {
			return err
		}
	}
	return nil
}

// StaticGetItemConstraint types Target = Value[Index] for a constant Index.
// When the context cannot, the dynamic getitem Fallback is used
type StaticGetItemConstraint struct {
	Target   string
	Value    ir.Var
	Index    any
	Fallback *IntrinsicCallConstraint
	At       ir.Loc
}

func (c *StaticGetItemConstraint) Loc() ir.Loc { return c.At }
func (c *StaticGetItemConstraint) String() string {
	return fmt.Sprintf("static_getitem %s = %s[%s]", c.Target, c.Value, ir.ShowValue(c.Index))
}

func (c *StaticGetItemConstraint) Apply(ti *TypeInferer) error {
	for _, t := range ti.typeVars.Get(c.Value.Name).Get() {
		sig := ti.ctx.ResolveStaticGetItem(t, c.Index)
		if sig != nil {
			// imprecise items are let through for unify to report
			if err := ti.AddType(c.Target, sig.Return, c.At); err != nil {
				return err
			}
		} else if c.Fallback != nil {
			if err := c.Fallback.Apply(ti); err != nil {
				return err
			}
		}
	}
	return nil
}

// CallSignature is only known when the fallback was used
func (c *StaticGetItemConstraint) CallSignature() (*types.Signature, bool) {
	if c.Fallback == nil {
		return nil, false
	}
	return c.Fallback.CallSignature()
}

func (c *StaticGetItemConstraint) freeze() {
	if c.Fallback != nil {
		c.Fallback.freeze()
	}
}

// GetAttrConstraint types Target = Value.Attr
type GetAttrConstraint struct {
	Target string
	Attr   string
	Value  ir.Var
	Inst   ir.Node
	At     ir.Loc
}

func (c *GetAttrConstraint) Loc() ir.Loc { return c.At }
func (c *GetAttrConstraint) String() string {
	return fmt.Sprintf("getattr %s = %s.%s", c.Target, c.Value, c.Attr)
}

func (c *GetAttrConstraint) Apply(ti *TypeInferer) error {
	for _, t := range ti.typeVars.Get(c.Value.Name).Get() {
		attrType := ti.ctx.ResolveGetAttr(t, c.Attr)
		if attrType == nil {
			return tierr.New(tierr.AttributeNotFoundError{Attr: c.Attr, Type: t, At: c.Inst.Loc()})
		}
		if err := ti.AddType(c.Target, attrType, c.At); err != nil {
			return err
		}
	}
	ti.refineMap[c.Target] = c
	return nil
}

// Refine pushes the receiver of a refined bound method back to Value, and to whatever produced Value
func (c *GetAttrConstraint) Refine(ti *TypeInferer, updated types.Type) error {
	bound, ok := updated.(types.BoundFunction)
	if !ok {
		return nil
	}
	recvr := bound.This
	if err := ti.AddType(c.Value.Name, recvr, c.At); err != nil {
		return err
	}
	if source, ok := ti.refineMap[c.Value.Name]; ok {
		return source.Refine(ti, recvr)
	}
	return nil
}
