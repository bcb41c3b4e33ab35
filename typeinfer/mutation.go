package typeinfer

import (
	"fmt"

	"github.com/cottand/typeinfer/ir"
	"github.com/cottand/typeinfer/tierr"
	"github.com/cottand/typeinfer/types"
	"github.com/cottand/typeinfer/util"
)

// definedTypes returns the types of vars, or false if any of them is not known yet
func (ti *TypeInferer) definedTypes(vars ...ir.Var) ([]types.Type, bool) {
	ts := make([]types.Type, len(vars))
	for i, v := range vars {
		tv := ti.typeVars.Get(v.Name)
		if !tv.Defined() {
			return nil, false
		}
		ts[i] = tv.Type
	}
	return ts, true
}

// refineTarget writes back the array refined by a setitem signature when
// the target array did not have a known dtype
func refineTarget(ti *TypeInferer, target ir.Var, targetType types.Type, sig *types.Signature, at ir.Loc) error {
	if isArrayNotPrecise(targetType) && len(sig.Args) > 0 {
		return ti.AddType(target.Name, sig.Args[0], at)
	}
	return nil
}

// SetItemConstraint checks Target[Index] = Value
type SetItemConstraint struct {
	Target, Index, Value ir.Var
	At                   ir.Loc
	signatureCell
}

func (c *SetItemConstraint) Loc() ir.Loc { return c.At }
func (c *SetItemConstraint) String() string {
	return fmt.Sprintf("setitem %s[%s] = %s", c.Target, c.Index, c.Value)
}

func (c *SetItemConstraint) Apply(ti *TypeInferer) error {
	ts, ok := ti.definedTypes(c.Target, c.Index, c.Value)
	if !ok {
		return nil
	}
	targetType, indexType, valueType := ts[0], ts[1], ts[2]
	sig := ti.ctx.ResolveSetItem(targetType, indexType, valueType)
	if sig == nil {
		return tierr.New(tierr.InvalidMutation{
			Op:       "setitem",
			Operands: fmt.Sprintf("%s[%s] = %s", targetType, indexType, valueType),
			At:       c.At,
		})
	}
	c.set(sig)
	return refineTarget(ti, c.Target, targetType, sig, c.At)
}

// StaticSetItemConstraint checks Target[Index] = Value for a constant Index, falling
// back to a dynamic setitem with IndexVar
type StaticSetItemConstraint struct {
	Target   ir.Var
	Index    any
	IndexVar ir.Var
	Value    ir.Var
	At       ir.Loc
	signatureCell
}

func (c *StaticSetItemConstraint) Loc() ir.Loc { return c.At }
func (c *StaticSetItemConstraint) String() string {
	return fmt.Sprintf("static_setitem %s[%s] = %s", c.Target, ir.ShowValue(c.Index), c.Value)
}

func (c *StaticSetItemConstraint) Apply(ti *TypeInferer) error {
	ts, ok := ti.definedTypes(c.Target, c.IndexVar, c.Value)
	if !ok {
		return nil
	}
	targetType, indexType, valueType := ts[0], ts[1], ts[2]
	sig := ti.ctx.ResolveStaticSetItem(targetType, c.Index, valueType)
	if sig == nil {
		sig = ti.ctx.ResolveSetItem(targetType, indexType, valueType)
	}
	if sig == nil {
		return tierr.New(tierr.InvalidMutation{
			Op:       "setitem",
			Operands: fmt.Sprintf("%s[%s] = %s", targetType, ir.ShowValue(c.Index), valueType),
			At:       c.At,
		})
	}
	c.set(sig)
	return refineTarget(ti, c.Target, targetType, sig, c.At)
}

// DelItemConstraint checks del Target[Index]
type DelItemConstraint struct {
	Target, Index ir.Var
	At            ir.Loc
	signatureCell
}

func (c *DelItemConstraint) Loc() ir.Loc    { return c.At }
func (c *DelItemConstraint) String() string { return fmt.Sprintf("delitem %s[%s]", c.Target, c.Index) }

func (c *DelItemConstraint) Apply(ti *TypeInferer) error {
	ts, ok := ti.definedTypes(c.Target, c.Index)
	if !ok {
		return nil
	}
	sig := ti.ctx.ResolveDelItem(ts[0], ts[1])
	if sig == nil {
		return tierr.New(tierr.InvalidMutation{
			Op:       "delitem",
			Operands: fmt.Sprintf("%s[%s]", ts[0], ts[1]),
			At:       c.At,
		})
	}
	c.set(sig)
	return nil
}

// SetAttrConstraint checks Target.Attr = Value
type SetAttrConstraint struct {
	Target ir.Var
	Attr   string
	Value  ir.Var
	At     ir.Loc
	signatureCell
}

func (c *SetAttrConstraint) Loc() ir.Loc { return c.At }
func (c *SetAttrConstraint) String() string {
	return fmt.Sprintf("setattr %s.%s = %s", c.Target, c.Attr, c.Value)
}

func (c *SetAttrConstraint) Apply(ti *TypeInferer) error {
	ts, ok := ti.definedTypes(c.Target, c.Value)
	if !ok {
		return nil
	}
	sig := ti.ctx.ResolveSetAttr(ts[0], c.Attr, ts[1])
	if sig == nil {
		return tierr.New(tierr.InvalidMutation{
			Op:       "setattr",
			Operands: fmt.Sprintf("(%s).%s = %s", ts[0], c.Attr, ts[1]),
			At:       c.At,
		})
	}
	c.set(sig)
	return nil
}

// PrintConstraint checks the arguments of print(Args..., *Vararg)
type PrintConstraint struct {
	Args   []ir.Var
	Vararg *ir.Var
	At     ir.Loc
	signatureCell
}

func (c *PrintConstraint) Loc() ir.Loc { return c.At }
func (c *PrintConstraint) String() string {
	return fmt.Sprintf("print(%s)", util.JoinString(c.Args, ", "))
}

func (c *PrintConstraint) Apply(ti *TypeInferer) error {
	pos, kws, ok, err := ti.foldArgs(c.Args, c.Vararg, nil, c.At)
	if err != nil || !ok {
		return err
	}
	fnty, err := ti.resolveValueType(ir.BuiltinRef{Name: "print"}, c.At)
	if err != nil {
		return err
	}
	sig, err := ti.resolveCallAt(fnty, pos, kws, c.At)
	if err != nil {
		return err
	}
	c.set(sig)
	return nil
}
