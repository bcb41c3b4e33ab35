package ir

import (
	"io"
	"reflect"
	"strings"

	"github.com/pkg/errors"
	"github.com/traefik/yaegi/interp"
	"gopkg.in/yaml.v3"
)

// builtinNames are the global names that resolve to a BuiltinRef when a
// program does not give them a value
var builtinNames = map[string]bool{
	"len":   true,
	"range": true,
	"slice": true,
	"print": true,
	"list":  true,
	"set":   true,

	"sorted":         true,
	"empty_inferred": true,
}

type yamlProgram struct {
	File      string         `yaml:"file"`
	Functions []yamlFunction `yaml:"functions"`
}

type yamlFunction struct {
	ID        string   `yaml:"id"`
	Name      string   `yaml:"name"`
	Args      []string `yaml:"args"`
	Line      int      `yaml:"line"`
	Generator *struct {
		StateVars []string `yaml:"state_vars"`
	} `yaml:"generator"`
	Blocks []yamlBlock `yaml:"blocks"`
}

type yamlBlock struct {
	Label int        `yaml:"label"`
	Body  []yamlInst `yaml:"body"`
}

type yamlInst struct {
	Line          int          `yaml:"line"`
	Assign        *yamlAssign  `yaml:"assign"`
	SetItem       *yamlSetItem `yaml:"setitem"`
	StaticSetItem *struct {
		Target   string `yaml:"target"`
		Index    string `yaml:"index"`
		IndexVar string `yaml:"index_var"`
		Value    string `yaml:"value"`
	} `yaml:"static_setitem"`
	DelItem *yamlSetItem `yaml:"delitem"`
	SetAttr *struct {
		Target string `yaml:"target"`
		Attr   string `yaml:"attr"`
		Value  string `yaml:"value"`
	} `yaml:"setattr"`
	Print *struct {
		Args   []string `yaml:"args"`
		Vararg string   `yaml:"vararg"`
	} `yaml:"print"`
	Jump   *int `yaml:"jump"`
	Branch *struct {
		Cond  string `yaml:"cond"`
		True  int    `yaml:"true"`
		False int    `yaml:"false"`
	} `yaml:"branch"`
	Return    *string `yaml:"return"`
	Del       *string `yaml:"del"`
	Raise     *string `yaml:"raise"`
	Extension *struct {
		Kind    string   `yaml:"kind"`
		Vars    []string `yaml:"vars"`
		Payload any      `yaml:"payload"`
	} `yaml:"extension"`
}

type yamlSetItem struct {
	Target string `yaml:"target"`
	Index  string `yaml:"index"`
	Value  string `yaml:"value"`
}

type yamlGlobal struct {
	Name  string  `yaml:"name"`
	Index int     `yaml:"index"`
	Value *string `yaml:"value"`
}

type yamlAssign struct {
	Target     string      `yaml:"target"`
	Const      *string     `yaml:"const"`
	UseLiteral *bool       `yaml:"use_literal"`
	Var        *string     `yaml:"var"`
	Global     *yamlGlobal `yaml:"global"`
	FreeVar    *yamlGlobal `yaml:"freevar"`
	Arg        *struct {
		Index int    `yaml:"index"`
		Name  string `yaml:"name"`
	} `yaml:"arg"`
	Yield *string `yaml:"yield"`
	Call  *struct {
		Func string   `yaml:"func"`
		Args []string `yaml:"args"`
		Kws  []struct {
			Name  string `yaml:"name"`
			Value string `yaml:"value"`
		} `yaml:"kws"`
		Vararg string `yaml:"vararg"`
	} `yaml:"call"`
	GetIter     *string `yaml:"getiter"`
	IterNext    *string `yaml:"iternext"`
	ExhaustIter *struct {
		Value string `yaml:"value"`
		Count int    `yaml:"count"`
	} `yaml:"exhaust_iter"`
	PairFirst  *string `yaml:"pair_first"`
	PairSecond *string `yaml:"pair_second"`
	BinOp      *struct {
		Fn  string `yaml:"fn"`
		Lhs string `yaml:"lhs"`
		Rhs string `yaml:"rhs"`
	} `yaml:"binop"`
	InplaceBinOp *struct {
		Fn          string `yaml:"fn"`
		ImmutableFn string `yaml:"immutable_fn"`
		Lhs         string `yaml:"lhs"`
		Rhs         string `yaml:"rhs"`
	} `yaml:"inplace_binop"`
	Unary *struct {
		Fn    string `yaml:"fn"`
		Value string `yaml:"value"`
	} `yaml:"unary"`
	StaticGetItem *struct {
		Value    string `yaml:"value"`
		Index    string `yaml:"index"`
		IndexVar string `yaml:"index_var"`
	} `yaml:"static_getitem"`
	GetItem *struct {
		Value string `yaml:"value"`
		Index string `yaml:"index"`
	} `yaml:"getitem"`
	GetAttr *struct {
		Value string `yaml:"value"`
		Attr  string `yaml:"attr"`
	} `yaml:"getattr"`
	BuildTuple   *[]string `yaml:"build_tuple"`
	BuildList    *[]string `yaml:"build_list"`
	BuildSet     *[]string `yaml:"build_set"`
	Cast         *string   `yaml:"cast"`
	MakeFunction *struct {
		Name string `yaml:"name"`
	} `yaml:"make_function"`
}

// loader converts a decoded yamlProgram into Functions.
// Constants are Go expressions, evaluated with an embedded interpreter
type loader struct {
	file      string
	line      int
	functions map[string]yamlFunction
	interp    *interp.Interpreter
}

// LoadYAML reads a program made of one or more functions.
//
// Each instruction is a single-key map, for example
//
//	- assign: {target: x, const: "1"}
//	- assign: {target: $0, binop: {fn: "+", lhs: x, rhs: y}}
//	- return: $0
//
// Constants and static indices are Go expressions ("1", "2.5", `"str"`, "[]any{1, 2}" for a tuple).
func LoadYAML(r io.Reader) ([]*Function, error) {
	var program yamlProgram
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(&program); err != nil {
		return nil, errors.Wrap(err, "could not decode program")
	}
	l := &loader{
		file:      program.File,
		functions: make(map[string]yamlFunction, len(program.Functions)),
		interp:    interp.New(interp.Options{}),
	}
	for i := range program.Functions {
		fn := &program.Functions[i]
		if fn.ID == "" {
			fn.ID = fn.Name
		}
		if _, dup := l.functions[fn.Name]; dup {
			return nil, errors.Errorf("function %s defined more than once", fn.Name)
		}
		l.functions[fn.Name] = *fn
	}
	functions := make([]*Function, 0, len(program.Functions))
	for _, fn := range program.Functions {
		converted, err := l.convertFunction(fn)
		if err != nil {
			return nil, errors.Wrapf(err, "in function %s", fn.Name)
		}
		functions = append(functions, converted)
	}
	return functions, nil
}

func (l *loader) loc() Loc {
	return Loc{Filename: l.file, Line: l.line}
}

func (l *loader) v(name string) Var {
	return Var{Name: name, At: l.loc()}
}

func (l *loader) optVar(name string) *Var {
	if name == "" {
		return nil
	}
	v := l.v(name)
	return &v
}

func (l *loader) vars(names []string) []Var {
	vars := make([]Var, len(names))
	for i, name := range names {
		vars[i] = l.v(name)
	}
	return vars
}

// eval evaluates a Go constant expression into an int64, float64, string, bool, nil or []any
func (l *loader) eval(src string) (any, error) {
	trimmed := strings.TrimSpace(src)
	if trimmed == "nil" || trimmed == "None" {
		return nil, nil
	}
	value, err := l.interp.Eval(trimmed)
	if err != nil {
		return nil, errors.Wrapf(err, "could not evaluate constant %q", src)
	}
	return normalizeValue(value)
}

func normalizeValue(v reflect.Value) (any, error) {
	if !v.IsValid() {
		return nil, nil
	}
	switch v.Kind() {
	case reflect.Interface, reflect.Pointer:
		if v.IsNil() {
			return nil, nil
		}
		return normalizeValue(v.Elem())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int(), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return int64(v.Uint()), nil
	case reflect.Float32, reflect.Float64:
		return v.Float(), nil
	case reflect.Bool:
		return v.Bool(), nil
	case reflect.String:
		return v.String(), nil
	case reflect.Slice, reflect.Array:
		if isNumericSlice(v.Type()) {
			return numericSlice(v), nil
		}
		elems := make([]any, v.Len())
		for i := range elems {
			elem, err := normalizeValue(v.Index(i))
			if err != nil {
				return nil, err
			}
			elems[i] = elem
		}
		return elems, nil
	default:
		return nil, errors.Errorf("unsupported constant of kind %s", v.Kind())
	}
}

// isNumericSlice is true for slices of numbers, at any depth, like []float64 or [][]int
func isNumericSlice(t reflect.Type) bool {
	for t.Kind() == reflect.Slice {
		t = t.Elem()
	}
	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

// numericSlice converts a slice of numbers into a slice of int64 or float64 with the same
// number of dimensions, so that it is typed as an array
func numericSlice(v reflect.Value) any {
	elem := v.Type().Elem()
	if elem.Kind() == reflect.Slice {
		out := reflect.MakeSlice(reflect.SliceOf(normalizedSliceType(elem)), v.Len(), v.Len())
		for i := 0; i < v.Len(); i++ {
			out.Index(i).Set(reflect.ValueOf(numericSlice(v.Index(i))))
		}
		return out.Interface()
	}
	if elem.Kind() == reflect.Float32 || elem.Kind() == reflect.Float64 {
		out := make([]float64, v.Len())
		for i := range out {
			out[i] = v.Index(i).Float()
		}
		return out
	}
	out := make([]int64, v.Len())
	for i := range out {
		if v.Index(i).CanInt() {
			out[i] = v.Index(i).Int()
		} else {
			out[i] = int64(v.Index(i).Uint())
		}
	}
	return out
}

func normalizedSliceType(t reflect.Type) reflect.Type {
	if t.Kind() == reflect.Slice {
		return reflect.SliceOf(normalizedSliceType(t.Elem()))
	}
	if t.Kind() == reflect.Float32 || t.Kind() == reflect.Float64 {
		return reflect.TypeOf(float64(0))
	}
	return reflect.TypeOf(int64(0))
}

func (l *loader) convertFunction(fn yamlFunction) (*Function, error) {
	l.line = fn.Line
	converted := &Function{
		ID:       fn.ID,
		Name:     fn.Name,
		ArgNames: fn.Args,
		At:       l.loc(),
	}
	if fn.Generator != nil {
		converted.Generator = &GeneratorInfo{StateVars: fn.Generator.StateVars}
	}
	for _, block := range fn.Blocks {
		b := &Block{Label: block.Label}
		for i, inst := range block.Body {
			l.line = inst.Line
			convertedInst, err := l.convertInst(inst)
			if err != nil {
				return nil, errors.Wrapf(err, "block %d, instruction %d", block.Label, i)
			}
			b.Body = append(b.Body, convertedInst)
		}
		converted.Blocks = append(converted.Blocks, b)
	}
	return converted, nil
}

func (l *loader) convertInst(inst yamlInst) (Inst, error) {
	at := l.loc()
	switch {
	case inst.Assign != nil:
		value, err := l.convertAssign(*inst.Assign)
		if err != nil {
			return nil, err
		}
		return &Assign{Target: l.v(inst.Assign.Target), Value: value, At: at}, nil
	case inst.SetItem != nil:
		return &SetItem{Target: l.v(inst.SetItem.Target), Index: l.v(inst.SetItem.Index), Value: l.v(inst.SetItem.Value), At: at}, nil
	case inst.StaticSetItem != nil:
		index, err := l.eval(inst.StaticSetItem.Index)
		if err != nil {
			return nil, err
		}
		return &StaticSetItem{
			Target:   l.v(inst.StaticSetItem.Target),
			Index:    index,
			IndexVar: l.v(inst.StaticSetItem.IndexVar),
			Value:    l.v(inst.StaticSetItem.Value),
			At:       at,
		}, nil
	case inst.DelItem != nil:
		return &DelItem{Target: l.v(inst.DelItem.Target), Index: l.v(inst.DelItem.Index), At: at}, nil
	case inst.SetAttr != nil:
		return &SetAttr{Target: l.v(inst.SetAttr.Target), Attr: inst.SetAttr.Attr, Value: l.v(inst.SetAttr.Value), At: at}, nil
	case inst.Print != nil:
		return &Print{Args: l.vars(inst.Print.Args), Vararg: l.optVar(inst.Print.Vararg), At: at}, nil
	case inst.Jump != nil:
		return &Jump{Target: *inst.Jump, At: at}, nil
	case inst.Branch != nil:
		return &Branch{Cond: l.v(inst.Branch.Cond), Truebr: inst.Branch.True, Falsebr: inst.Branch.False, At: at}, nil
	case inst.Return != nil:
		return &Return{Value: l.v(*inst.Return), At: at}, nil
	case inst.Del != nil:
		return &Del{Name: *inst.Del, At: at}, nil
	case inst.Raise != nil:
		return &StaticRaise{Message: *inst.Raise, At: at}, nil
	case inst.Extension != nil:
		return &Extension{Kind: inst.Extension.Kind, Vars: l.vars(inst.Extension.Vars), Payload: inst.Extension.Payload, At: at}, nil
	default:
		return nil, errors.New("empty or unknown instruction")
	}
}

func (l *loader) globalValue(g yamlGlobal) (any, error) {
	if g.Value != nil {
		return l.eval(*g.Value)
	}
	if fn, ok := l.functions[g.Name]; ok {
		return FuncRef{ID: fn.ID, Name: fn.Name}, nil
	}
	if builtinNames[g.Name] {
		return BuiltinRef{Name: g.Name}, nil
	}
	return Unbound{Name: g.Name}, nil
}

func (l *loader) convertAssign(a yamlAssign) (RHS, error) {
	at := l.loc()
	switch {
	case a.Const != nil:
		value, err := l.eval(*a.Const)
		if err != nil {
			return nil, err
		}
		useLiteral := a.UseLiteral == nil || *a.UseLiteral
		return Const{Value: value, UseLiteral: useLiteral}, nil
	case a.Var != nil:
		return l.v(*a.Var), nil
	case a.Global != nil:
		value, err := l.globalValue(*a.Global)
		if err != nil {
			return nil, err
		}
		return Global{Name: a.Global.Name, Value: value}, nil
	case a.FreeVar != nil:
		value, err := l.globalValue(*a.FreeVar)
		if err != nil {
			return nil, err
		}
		return FreeVar{Index: a.FreeVar.Index, Name: a.FreeVar.Name, Value: value}, nil
	case a.Arg != nil:
		return Arg{Index: a.Arg.Index, Name: a.Arg.Name}, nil
	case a.Yield != nil:
		return Yield{Value: l.v(*a.Yield)}, nil
	case a.Call != nil:
		call := &Call{Func: l.v(a.Call.Func), Args: l.vars(a.Call.Args), Vararg: l.optVar(a.Call.Vararg), At: at}
		for _, kw := range a.Call.Kws {
			call.Kws = append(call.Kws, Kw{Name: kw.Name, Value: l.v(kw.Value)})
		}
		return call, nil
	case a.GetIter != nil:
		return &GetIter{Value: l.v(*a.GetIter), At: at}, nil
	case a.IterNext != nil:
		return &IterNext{Value: l.v(*a.IterNext), At: at}, nil
	case a.ExhaustIter != nil:
		return &ExhaustIter{Value: l.v(a.ExhaustIter.Value), Count: a.ExhaustIter.Count, At: at}, nil
	case a.PairFirst != nil:
		return &PairFirst{Value: l.v(*a.PairFirst), At: at}, nil
	case a.PairSecond != nil:
		return &PairSecond{Value: l.v(*a.PairSecond), At: at}, nil
	case a.BinOp != nil:
		return &BinOp{Fn: a.BinOp.Fn, Lhs: l.v(a.BinOp.Lhs), Rhs: l.v(a.BinOp.Rhs), At: at}, nil
	case a.InplaceBinOp != nil:
		return &InplaceBinOp{
			Fn:          a.InplaceBinOp.Fn,
			ImmutableFn: a.InplaceBinOp.ImmutableFn,
			Lhs:         l.v(a.InplaceBinOp.Lhs),
			Rhs:         l.v(a.InplaceBinOp.Rhs),
			At:          at,
		}, nil
	case a.Unary != nil:
		return &Unary{Fn: a.Unary.Fn, Value: l.v(a.Unary.Value), At: at}, nil
	case a.StaticGetItem != nil:
		index, err := l.eval(a.StaticGetItem.Index)
		if err != nil {
			return nil, err
		}
		return &StaticGetItem{Value: l.v(a.StaticGetItem.Value), Index: index, IndexVar: l.optVar(a.StaticGetItem.IndexVar), At: at}, nil
	case a.GetItem != nil:
		return &GetItem{Value: l.v(a.GetItem.Value), Index: l.v(a.GetItem.Index), At: at}, nil
	case a.GetAttr != nil:
		return &GetAttr{Value: l.v(a.GetAttr.Value), Attr: a.GetAttr.Attr, At: at}, nil
	case a.BuildTuple != nil:
		return &BuildTuple{Items: l.vars(*a.BuildTuple), At: at}, nil
	case a.BuildList != nil:
		return &BuildList{Items: l.vars(*a.BuildList), At: at}, nil
	case a.BuildSet != nil:
		return &BuildSet{Items: l.vars(*a.BuildSet), At: at}, nil
	case a.Cast != nil:
		return &Cast{Value: l.v(*a.Cast), At: at}, nil
	case a.MakeFunction != nil:
		return &MakeFunction{Name: a.MakeFunction.Name, At: at}, nil
	default:
		return nil, errors.Errorf("assignment to %s has no right-hand side", a.Target)
	}
}
