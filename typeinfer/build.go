package typeinfer

import (
	"github.com/cottand/typeinfer/ir"
	"github.com/cottand/typeinfer/tierr"
	"github.com/cottand/typeinfer/types"
)

// BuildConstraint adds the constraints of every instruction of the function, in block order
func (ti *TypeInferer) BuildConstraint() error {
	for inst := range ti.fn.Instructions() {
		if err := ti.constrainStatement(inst); err != nil {
			return err
		}
	}
	ti.logger.Debug("built constraints", "count", ti.constraints.Len())
	return nil
}

func (ti *TypeInferer) constrainStatement(inst ir.Inst) error {
	switch inst := inst.(type) {
	case *ir.Assign:
		return ti.typeofAssign(inst)
	case *ir.SetItem:
		c := &SetItemConstraint{Target: inst.Target, Index: inst.Index, Value: inst.Value, At: inst.At}
		ti.AddConstraint(c)
		ti.AddCall(inst, c)
	case *ir.StaticSetItem:
		c := &StaticSetItemConstraint{Target: inst.Target, Index: inst.Index, IndexVar: inst.IndexVar, Value: inst.Value, At: inst.At}
		ti.AddConstraint(c)
		ti.AddCall(inst, c)
	case *ir.DelItem:
		c := &DelItemConstraint{Target: inst.Target, Index: inst.Index, At: inst.At}
		ti.AddConstraint(c)
		ti.AddCall(inst, c)
	case *ir.SetAttr:
		c := &SetAttrConstraint{Target: inst.Target, Attr: inst.Attr, Value: inst.Value, At: inst.At}
		ti.AddConstraint(c)
		ti.AddCall(inst, c)
	case *ir.Print:
		c := &PrintConstraint{Args: inst.Args, Vararg: inst.Vararg, At: inst.At}
		ti.AddConstraint(c)
		ti.AddCall(inst, c)
	case *ir.Jump, *ir.Branch, *ir.Return, *ir.Del, *ir.StaticRaise:
		// control flow does not constrain types
	case *ir.Extension:
		handler, ok := ti.extensions[inst.Kind]
		if !ok {
			return tierr.New(tierr.UnsupportedError{What: "constraint", Node: inst, At: inst.At})
		}
		return handler(inst, ti)
	default:
		return tierr.New(tierr.UnsupportedError{What: "constraint", Node: inst, At: inst.Loc()})
	}
	return nil
}

func (ti *TypeInferer) typeofAssign(inst *ir.Assign) error {
	target := inst.Target.Name
	switch value := inst.Value.(type) {
	case ir.Const:
		return ti.typeofConst(inst, value)
	case ir.Var:
		ti.AddConstraint(&Propagate{Dst: target, Src: value.Name, At: inst.At})
	case ir.Global:
		return ti.typeofGlobal(inst, value.Name, value.Value)
	case ir.FreeVar:
		return ti.typeofGlobal(inst, value.Name, value.Value)
	case ir.Arg:
		ti.AddConstraint(&ArgConstraint{Dst: target, Src: mangleArg(value.Name), At: inst.At})
	case ir.Yield:
		return ti.AddType(target, types.None, inst.At)
	case ir.Expr:
		return ti.typeofExpr(inst, value)
	default:
		return tierr.New(tierr.UnsupportedError{What: "assignment", Node: inst, At: inst.At})
	}
	return nil
}

func (ti *TypeInferer) typeofConst(inst *ir.Assign, c ir.Const) error {
	if c.UseLiteral {
		if lit, err := ti.ctx.ResolveLiteral(c.Value); err == nil {
			return ti.AddType(inst.Target.Name, lit, inst.At)
		}
	}
	t, err := ti.resolveValueType(c.Value, inst.At)
	if err != nil {
		return err
	}
	return ti.AddType(inst.Target.Name, t, inst.At)
}

// modifiableBuiltins are the builtins whose global name must refer to the builtin itself
var modifiableBuiltins = []string{"range", "slice", "len"}

func (ti *TypeInferer) sentryModifiedBuiltin(inst *ir.Assign, name string, value any) error {
	for _, builtin := range modifiableBuiltins {
		if name != builtin {
			continue
		}
		if ref, ok := value.(ir.BuiltinRef); !ok || ref.Name != builtin {
			return tierr.Typingf(inst.At, "Modified builtin '%s'", name)
		}
	}
	return nil
}

// typeofGlobal locks the target to the type of the value the global had when the IR was built
func (ti *TypeInferer) typeofGlobal(inst *ir.Assign, name string, value any) error {
	t, err := ti.ctx.ResolveValueType(value)
	if err != nil {
		unbound, isUnbound := value.(ir.Unbound)
		switch {
		case isUnbound && name == ti.fn.Name:
			// the function refers to itself before being bound to its name
			t = types.Dispatcher{ID: ti.fn.ID, Name: ti.fn.Name}
		case isUnbound:
			return tierr.Typingf(inst.At, "NameError: name '%s' is not defined", unbound.Name)
		default:
			return tierr.Typingf(inst.At, "Untyped global name '%s': %s", name, err)
		}
	}

	switch typed := t.(type) {
	case types.Dispatcher:
		if ti.callStack.FindFirst(typed.ID) != nil {
			t = types.RecursiveCall{Dispatcher: typed}
		}
	case types.Array:
		t = typed.WithReadonly()
	case types.BaseTuple:
		if values, ok := value.([]any); ok {
			t = ti.literalTuple(values, t)
		}
	}

	if err := ti.sentryModifiedBuiltin(inst, name, value); err != nil {
		return err
	}
	if lit, err := ti.ctx.ResolveLiteral(value); err == nil {
		t = lit
	}
	if err := ti.lockOrAdd(inst.Target.Name, t, inst.At, value); err != nil {
		return err
	}
	ti.assumedImmutables.Insert(inst)
	return nil
}

// literalTuple returns the tuple of the literal types of values, or fallback when
// any of them cannot be a literal
func (ti *TypeInferer) literalTuple(values []any, fallback types.Type) types.Type {
	literals := make([]types.Type, len(values))
	for i, v := range values {
		lit, err := ti.ctx.ResolveLiteral(v)
		if err != nil {
			return fallback
		}
		literals[i] = lit
	}
	return types.Tuple{Types: literals}
}

// lockOrAdd locks name to t, or checks t against the type name is already locked to
// when another assignment or the seeded signature got there first
func (ti *TypeInferer) lockOrAdd(name string, t types.Type, loc ir.Loc, literal any) error {
	if ti.typeVars.Get(name).Locked {
		return ti.AddType(name, t, loc)
	}
	return ti.LockType(name, t, loc, literal)
}

func (ti *TypeInferer) intrinsic(inst *ir.Assign, fn string, args ...ir.Var) *IntrinsicCallConstraint {
	return &IntrinsicCallConstraint{
		callResolver: callResolver{Target: inst.Target.Name, Args: args, At: inst.At},
		Func:         types.Function{Key: fn},
	}
}

func (ti *TypeInferer) addIntrinsic(inst *ir.Assign, expr ir.Expr, fn string, args ...ir.Var) {
	c := ti.intrinsic(inst, fn, args...)
	ti.AddConstraint(c)
	ti.AddCall(expr, c)
}

func (ti *TypeInferer) typeofExpr(inst *ir.Assign, expr ir.Expr) error {
	target := inst.Target.Name
	switch expr := expr.(type) {
	case *ir.Call:
		c := &CallConstraint{
			callResolver: callResolver{Target: target, Args: expr.Args, Kws: expr.Kws, Vararg: expr.Vararg, At: inst.At},
			Func:         expr.Func.Name,
		}
		ti.AddConstraint(c)
		ti.AddCall(expr, c)
	case *ir.GetIter:
		ti.addIntrinsic(inst, expr, "getiter", expr.Value)
	case *ir.IterNext:
		ti.addIntrinsic(inst, expr, "iternext", expr.Value)
	case *ir.ExhaustIter:
		ti.AddConstraint(&ExhaustIterConstraint{Target: target, Count: expr.Count, Iterator: expr.Value, At: expr.At})
	case *ir.PairFirst:
		ti.AddConstraint(&PairConstraint{Target: target, Pair: expr.Value, At: expr.At})
	case *ir.PairSecond:
		ti.AddConstraint(&PairConstraint{Target: target, Pair: expr.Value, Second: true, At: expr.At})
	case *ir.BinOp:
		ti.addIntrinsic(inst, expr, expr.Fn, expr.Lhs, expr.Rhs)
	case *ir.InplaceBinOp:
		ti.addIntrinsic(inst, expr, expr.Fn, expr.Lhs, expr.Rhs)
	case *ir.Unary:
		ti.addIntrinsic(inst, expr, expr.Fn, expr.Value)
	case *ir.StaticGetItem:
		c := &StaticGetItemConstraint{Target: target, Value: expr.Value, Index: expr.Index, At: expr.At}
		if expr.IndexVar != nil {
			c.Fallback = ti.intrinsic(inst, "getitem", expr.Value, *expr.IndexVar)
		}
		ti.AddConstraint(c)
		ti.AddCall(expr, c)
	case *ir.GetItem:
		ti.addIntrinsic(inst, expr, "getitem", expr.Value, expr.Index)
	case *ir.GetAttr:
		ti.AddConstraint(&GetAttrConstraint{Target: target, Attr: expr.Attr, Value: expr.Value, Inst: inst, At: inst.At})
	case *ir.BuildTuple:
		ti.AddConstraint(&BuildTupleConstraint{Target: target, Items: expr.Items, At: inst.At})
	case *ir.BuildList:
		ti.AddConstraint(&BuildContainerConstraint{Target: target, Items: expr.Items, Kind: expr.Op(), At: inst.At})
	case *ir.BuildSet:
		ti.AddConstraint(&BuildContainerConstraint{Target: target, Items: expr.Items, Kind: expr.Op(), At: inst.At})
	case *ir.Cast:
		ti.AddConstraint(&Propagate{Dst: target, Src: expr.Value.Name, At: inst.At})
	case *ir.MakeFunction:
		return ti.lockOrAdd(target, types.MakeFunctionLiteral{Name: expr.Name}, inst.At, expr)
	default:
		return tierr.New(tierr.UnsupportedError{What: "op-code", Node: expr, At: expr.Loc()})
	}
	return nil
}
