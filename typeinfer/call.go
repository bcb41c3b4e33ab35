package typeinfer

import (
	"fmt"
	"strings"

	"github.com/cottand/typeinfer/ir"
	"github.com/cottand/typeinfer/tierr"
	"github.com/cottand/typeinfer/types"
	"github.com/cottand/typeinfer/util"
)

// starArgs is the folded form of a *args argument
type starArgs interface {
	elems(ti *TypeInferer, at ir.Loc) ([]types.Type, error)
}

// literalTuple is a *args bound to a constant tuple
type literalTuple struct{ values []any }

// typedTuple is a *args bound to a variable of tuple type
type typedTuple struct{ elemTypes []types.Type }

func (l literalTuple) elems(ti *TypeInferer, at ir.Loc) ([]types.Type, error) {
	elems := make([]types.Type, len(l.values))
	for i, value := range l.values {
		t, err := ti.resolveValueTypePreferLiteral(value, at)
		if err != nil {
			return nil, err
		}
		elems[i] = t
	}
	return elems, nil
}

func (t typedTuple) elems(*TypeInferer, ir.Loc) ([]types.Type, error) { return t.elemTypes, nil }

func classifyStarArgs(t types.Type, at ir.Loc) (starArgs, error) {
	switch t := t.(type) {
	case types.Literal:
		if values, ok := t.Value.([]any); ok {
			return literalTuple{values: values}, nil
		}
	case types.BaseTuple:
		return typedTuple{elemTypes: t.Elems()}, nil
	}
	return nil, tierr.New(tierr.InvalidStarArgs{Type: t, At: at})
}

// foldArgs returns the types of the positional arguments, with *args expanded, and
// of the keyword arguments. ok is false while any of them is not known yet
func (ti *TypeInferer) foldArgs(args []ir.Var, vararg *ir.Var, kws []ir.Kw, at ir.Loc) (pos []types.Type, kwTypes []types.KeywordArg, ok bool, err error) {
	all := make([]*TypeVar, 0, len(args)+len(kws)+1)
	for _, arg := range args {
		all = append(all, ti.typeVars.Get(arg.Name))
	}
	for _, kw := range kws {
		all = append(all, ti.typeVars.Get(kw.Value.Name))
	}
	if vararg != nil {
		all = append(all, ti.typeVars.Get(vararg.Name))
	}
	for _, tv := range all {
		if !tv.Defined() {
			return nil, nil, false, nil
		}
	}
	for _, tv := range all[:len(args)] {
		pos = append(pos, tv.Type)
	}
	for i, kw := range kws {
		kwTypes = append(kwTypes, types.KeywordArg{Name: kw.Name, Type: all[len(args)+i].Type})
	}
	if vararg != nil {
		star, err := classifyStarArgs(all[len(all)-1].Type, at)
		if err != nil {
			return nil, nil, false, err
		}
		elems, err := star.elems(ti, at)
		if err != nil {
			return nil, nil, false, err
		}
		pos = append(pos, elems...)
	}
	return pos, kwTypes, true, nil
}

// isArrayNotPrecise is the one kind of imprecise type calls accept as an argument, so that
// arrays can have their dtype inferred from how they are used
func isArrayNotPrecise(t types.Type) bool {
	return types.IsImpreciseArray(t)
}

// callResolver holds what CallConstraint and IntrinsicCallConstraint share
type callResolver struct {
	Target string
	Args   []ir.Var
	Kws    []ir.Kw
	Vararg *ir.Var
	At     ir.Loc
	signatureCell
}

func (c *callResolver) Loc() ir.Loc { return c.At }

func (c *callResolver) showArgs() string {
	args := util.MapSlice(c.Args, ir.Var.String)
	for _, kw := range c.Kws {
		args = append(args, kw.Name+"="+kw.Value.Name)
	}
	if c.Vararg != nil {
		args = append(args, "*"+c.Vararg.Name)
	}
	return strings.Join(args, ", ")
}

// resolveCallAt is resolveCall failing with an InvalidCallError when no signature matches
func (ti *TypeInferer) resolveCallAt(fnty types.Type, pos []types.Type, kws []types.KeywordArg, at ir.Loc) (*types.Signature, error) {
	sig, err := ti.resolveCall(fnty, pos, kws)
	if err != nil || sig != nil {
		return sig, err
	}
	return nil, tierr.New(tierr.InvalidCallError{
		Callee:      fnty,
		Args:        pos,
		Kws:         types.SortedKeywords(kws),
		Explanation: ti.ctx.ExplainFunctionType(fnty),
		At:          at,
	})
}

func (c *callResolver) resolve(ti *TypeInferer, fnty types.Type, owner Refiner) error {
	pos, kws, ok, err := ti.foldArgs(c.Args, c.Vararg, c.Kws, c.At)
	if err != nil || !ok {
		return err
	}
	for _, arg := range pos {
		if !types.IsPrecise(arg) && !isArrayNotPrecise(arg) {
			return nil
		}
	}
	for _, kw := range kws {
		if !types.IsPrecise(kw.Type) && !isArrayNotPrecise(kw.Type) {
			return nil
		}
	}
	if ref, ok := fnty.(types.TypeRef); ok {
		fnty = ref.Instance
	}

	sig, err := ti.resolveCallAt(fnty, pos, kws, c.At)
	if err != nil {
		return err
	}
	if err := ti.AddType(c.Target, sig.Return, c.At); err != nil {
		return err
	}

	if bound, ok := fnty.(types.BoundFunction); ok && sig.Recvr != nil && !types.Equal(sig.Recvr, bound.This) {
		refinedThis := ti.ctx.UnifyPairs(sig.Recvr, bound.This)
		if refinedThis == nil && types.IsPrecise(bound.This) && types.IsPrecise(sig.Recvr) {
			return tierr.Typingf(c.At, "Cannot refine type %s to %s", sig.Recvr, bound.This)
		}
		if refinedThis != nil && types.IsPrecise(refinedThis) {
			if caller, ok := owner.(*CallConstraint); ok {
				if err := ti.propagateRefinedType(caller.Func, bound.WithThis(refinedThis)); err != nil {
					return err
				}
			}
		}
	}

	// an imprecise return type defers to what the target already is, like for
	// s = set(); s.add(1)
	if !types.IsPrecise(sig.Return) {
		if target := ti.typeVars.Get(c.Target); target.Defined() {
			if types.Equal(ti.ctx.UnifyPairs(target.Type, sig.Return), target.Type) {
				sig = sig.WithReturn(target.Type)
			}
		}
	}
	c.set(sig)
	c.addRefineMap(ti, pos, owner)
	return nil
}

// addRefineMap registers owner to be refined when the target is an array of unknown dtype, or
// when it is the element of such an array
func (c *callResolver) addRefineMap(ti *TypeInferer, pos []types.Type, owner Refiner) {
	target := ti.typeVars.Get(c.Target).Type
	if isArrayNotPrecise(target) {
		ti.refineMap[c.Target] = owner
		return
	}
	if intrinsic, ok := owner.(*IntrinsicCallConstraint); ok && intrinsic.isGetItem() && len(pos) > 0 && isArrayNotPrecise(pos[0]) {
		ti.refineMap[c.Target] = owner
	}
}

// CallConstraint types Target = Func(Args..., Kws..., *Vararg), where Func is a variable
type CallConstraint struct {
	callResolver
	Func string
}

func (c *CallConstraint) String() string {
	return fmt.Sprintf("call %s = %s(%s)", c.Target, c.Func, c.showArgs())
}

func (c *CallConstraint) Apply(ti *TypeInferer) error {
	fn := ti.typeVars.Get(c.Func)
	if !fn.Defined() {
		return nil
	}
	return c.resolve(ti, fn.Type, c)
}

// Refine has nothing to do for calls to functions: the target was refined already
func (c *CallConstraint) Refine(*TypeInferer, types.Type) error { return nil }

// IntrinsicCallConstraint is a call to an operator or builtin known when building constraints
type IntrinsicCallConstraint struct {
	callResolver
	Func types.Type
}

func (c *IntrinsicCallConstraint) String() string {
	return fmt.Sprintf("intrinsic %s = %s(%s)", c.Target, c.Func, c.showArgs())
}

func (c *IntrinsicCallConstraint) Apply(ti *TypeInferer) error {
	return c.resolve(ti, c.Func, c)
}

func (c *IntrinsicCallConstraint) isGetItem() bool {
	return types.Equal(c.Func, types.Function{Key: "getitem"})
}

// Refine infers the dtype of an indexed array from the refined type of the item taken out of it
func (c *IntrinsicCallConstraint) Refine(ti *TypeInferer, updated types.Type) error {
	if !c.isGetItem() {
		return tierr.Typingf(c.At, "no type refinement implemented for function %s updating to %s", c.Func, updated)
	}
	arr, ok := ti.typeVars.Get(c.Args[0].Name).Type.(types.Array)
	if !ok || arr.Precise() || !types.IsPrecise(updated) {
		return nil
	}
	dtype := updated
	if updatedArr, isArr := updated.(types.Array); isArr {
		dtype = updatedArr.DType
	}
	return ti.AddType(c.Args[0].Name, arr.WithDType(types.Unliteral(dtype)), c.At)
}
