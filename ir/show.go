package ir

import (
	"fmt"
	"strings"
)

func joinVars(vars []Var) string {
	names := make([]string, len(vars))
	for i, v := range vars {
		names[i] = v.Name
	}
	return strings.Join(names, ", ")
}

func optVar(v *Var) string {
	if v == nil {
		return "None"
	}
	return v.Name
}

// ShowValue renders a constant the way it would be written as a literal
func ShowValue(v any) string {
	switch v := v.(type) {
	case nil:
		return "None"
	case string:
		return fmt.Sprintf("%q", v)
	case []any:
		elems := make([]string, len(v))
		for i, elem := range v {
			elems[i] = ShowValue(elem)
		}
		if len(elems) == 1 {
			return "(" + elems[0] + ",)"
		}
		return "(" + strings.Join(elems, ", ") + ")"
	case bool:
		if v {
			return "True"
		}
		return "False"
	default:
		return fmt.Sprint(v)
	}
}

func (c Const) String() string {
	return fmt.Sprintf("const(%T, %s)", c.Value, ShowValue(c.Value))
}
func (g Global) String() string  { return fmt.Sprintf("global(%s: %v)", g.Name, g.Value) }
func (f FreeVar) String() string { return fmt.Sprintf("freevar(%s: %v)", f.Name, f.Value) }
func (a Arg) String() string     { return fmt.Sprintf("arg(%d, name=%s)", a.Index, a.Name) }
func (y Yield) String() string   { return fmt.Sprintf("yield %s", y.Value.Name) }

func (e *Call) String() string {
	kws := make([]string, len(e.Kws))
	for i, kw := range e.Kws {
		kws[i] = kw.Name + "=" + kw.Value.Name
	}
	args := joinVars(e.Args)
	if len(kws) > 0 {
		if args != "" {
			args += ", "
		}
		args += strings.Join(kws, ", ")
	}
	if e.Vararg != nil {
		if args != "" {
			args += ", "
		}
		args += "*" + e.Vararg.Name
	}
	return fmt.Sprintf("call %s(%s)", e.Func.Name, args)
}
func (e *GetIter) String() string  { return fmt.Sprintf("getiter(value=%s)", e.Value.Name) }
func (e *IterNext) String() string { return fmt.Sprintf("iternext(value=%s)", e.Value.Name) }
func (e *ExhaustIter) String() string {
	return fmt.Sprintf("exhaust_iter(value=%s, count=%d)", e.Value.Name, e.Count)
}
func (e *PairFirst) String() string  { return fmt.Sprintf("pair_first(value=%s)", e.Value.Name) }
func (e *PairSecond) String() string { return fmt.Sprintf("pair_second(value=%s)", e.Value.Name) }
func (e *BinOp) String() string {
	return fmt.Sprintf("%s %s %s", e.Lhs.Name, e.Fn, e.Rhs.Name)
}
func (e *InplaceBinOp) String() string {
	return fmt.Sprintf("%s %s %s", e.Lhs.Name, e.Fn, e.Rhs.Name)
}
func (e *Unary) String() string { return fmt.Sprintf("unary(fn=%s, value=%s)", e.Fn, e.Value.Name) }
func (e *StaticGetItem) String() string {
	return fmt.Sprintf("static_getitem(value=%s, index=%s, index_var=%s)", e.Value.Name, ShowValue(e.Index), optVar(e.IndexVar))
}
func (e *GetItem) String() string {
	return fmt.Sprintf("getitem(value=%s, index=%s)", e.Value.Name, e.Index.Name)
}
func (e *GetAttr) String() string {
	return fmt.Sprintf("getattr(value=%s, attr=%s)", e.Value.Name, e.Attr)
}
func (e *BuildTuple) String() string { return fmt.Sprintf("build_tuple(items=[%s])", joinVars(e.Items)) }
func (e *BuildList) String() string  { return fmt.Sprintf("build_list(items=[%s])", joinVars(e.Items)) }
func (e *BuildSet) String() string   { return fmt.Sprintf("build_set(items=[%s])", joinVars(e.Items)) }
func (e *Cast) String() string       { return fmt.Sprintf("cast(value=%s)", e.Value.Name) }
func (e *MakeFunction) String() string {
	return fmt.Sprintf("make_function(name=%s, defaults=%s, closure=%s)", e.Name, optVar(e.Defaults), optVar(e.Closure))
}

func (i *Assign) String() string { return fmt.Sprintf("%s = %s", i.Target.Name, i.Value) }
func (i *SetItem) String() string {
	return fmt.Sprintf("%s[%s] = %s", i.Target.Name, i.Index.Name, i.Value.Name)
}
func (i *StaticSetItem) String() string {
	return fmt.Sprintf("%s[%s] = %s", i.Target.Name, ShowValue(i.Index), i.Value.Name)
}
func (i *DelItem) String() string { return fmt.Sprintf("del %s[%s]", i.Target.Name, i.Index.Name) }
func (i *SetAttr) String() string {
	return fmt.Sprintf("(%s).%s = %s", i.Target.Name, i.Attr, i.Value.Name)
}
func (i *Print) String() string {
	return fmt.Sprintf("print(%s, vararg=%s)", joinVars(i.Args), optVar(i.Vararg))
}
func (i *Jump) String() string   { return fmt.Sprintf("jump %d", i.Target) }
func (i *Branch) String() string { return fmt.Sprintf("branch %s, %d, %d", i.Cond.Name, i.Truebr, i.Falsebr) }
func (i *Return) String() string { return fmt.Sprintf("return %s", i.Value.Name) }
func (i *Del) String() string    { return fmt.Sprintf("del %s", i.Name) }
func (i *StaticRaise) String() string {
	return fmt.Sprintf("raise %q", i.Message)
}
func (i *Extension) String() string {
	return fmt.Sprintf("%s(%s)", i.Kind, joinVars(i.Vars))
}

func (b *Block) String() string {
	sb := strings.Builder{}
	_, _ = fmt.Fprintf(&sb, "label %d:\n", b.Label)
	for _, inst := range b.Body {
		sb.WriteString("    ")
		sb.WriteString(inst.String())
		sb.WriteString("\n")
	}
	return sb.String()
}

func (f *Function) String() string {
	sb := strings.Builder{}
	_, _ = fmt.Fprintf(&sb, "function %s(%s):\n", f.Name, strings.Join(f.ArgNames, ", "))
	for _, b := range f.Blocks {
		sb.WriteString(b.String())
	}
	return sb.String()
}
