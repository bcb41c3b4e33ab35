package ir

// when adding right-hand sides or expressions here, you should add them to the switch cases in:
// - typeinfer:build.go/typeofAssign and typeofExpr
// - ir:show.go
// - ir:load.go/convertAssign

// RHS is the right-hand side of an Assign
type RHS interface {
	String() string
	rhsNode()
}

var (
	_ RHS = Const{}
	_ RHS = Var{}
	_ RHS = Global{}
	_ RHS = FreeVar{}
	_ RHS = Arg{}
	_ RHS = Yield{}
	_ RHS = Expr(nil)
)

// Const is a literal value. When UseLiteral is set, type inference prefers a
// literal type carrying Value over the plain type of Value
type Const struct {
	Value      any
	UseLiteral bool
}

// Global is a reference to a global (module-level) name, whose Value
// is known when building the IR
type Global struct {
	Name  string
	Value any
}

// FreeVar is a reference to a variable captured from an enclosing scope
type FreeVar struct {
	Index int
	Name  string
	Value any
}

// Arg is a reference to the function argument at Index
type Arg struct {
	Index int
	Name  string
}

// Yield suspends a generator producing Value
type Yield struct {
	Value Var
	Index int
}

func (Const) rhsNode()   {}
func (Var) rhsNode()     {}
func (Global) rhsNode()  {}
func (FreeVar) rhsNode() {}
func (Arg) rhsNode()     {}
func (Yield) rhsNode()   {}

// Expr is a computed right-hand side. Op returns the name of the operation,
// for example "call" or "build_tuple"
type Expr interface {
	RHS
	Node
	Op() string
	exprNode()
}

var (
	_ Expr = (*Call)(nil)
	_ Expr = (*GetIter)(nil)
	_ Expr = (*IterNext)(nil)
	_ Expr = (*ExhaustIter)(nil)
	_ Expr = (*PairFirst)(nil)
	_ Expr = (*PairSecond)(nil)
	_ Expr = (*BinOp)(nil)
	_ Expr = (*InplaceBinOp)(nil)
	_ Expr = (*Unary)(nil)
	_ Expr = (*StaticGetItem)(nil)
	_ Expr = (*GetItem)(nil)
	_ Expr = (*GetAttr)(nil)
	_ Expr = (*BuildTuple)(nil)
	_ Expr = (*BuildList)(nil)
	_ Expr = (*BuildSet)(nil)
	_ Expr = (*Cast)(nil)
	_ Expr = (*MakeFunction)(nil)
)

// Kw is a keyword argument of a Call
type Kw struct {
	Name  string
	Value Var
}

// Call is func(args..., kws..., *vararg)
type Call struct {
	Func   Var
	Args   []Var
	Kws    []Kw
	Vararg *Var
	At     Loc
}

type GetIter struct {
	Value Var
	At    Loc
}

// IterNext advances an iterator, producing a pair of (value, valid)
type IterNext struct {
	Value Var
	At    Loc
}

// ExhaustIter unpacks Value into exactly Count elements
type ExhaustIter struct {
	Value Var
	Count int
	At    Loc
}

type PairFirst struct {
	Value Var
	At    Loc
}

type PairSecond struct {
	Value Var
	At    Loc
}

// BinOp is lhs fn rhs, where Fn is an operator like "+" or "<"
type BinOp struct {
	Fn       string
	Lhs, Rhs Var
	At       Loc
}

// InplaceBinOp is lhs fn= rhs. ImmutableFn is the operator used when lhs cannot be mutated
type InplaceBinOp struct {
	Fn, ImmutableFn string
	Lhs, Rhs        Var
	At              Loc
}

type Unary struct {
	Fn    string
	Value Var
	At    Loc
}

// StaticGetItem is value[index] where index is known when building the IR.
// IndexVar, when present, holds the same index as a runtime value
type StaticGetItem struct {
	Value    Var
	Index    any
	IndexVar *Var
	At       Loc
}

type GetItem struct {
	Value, Index Var
	At           Loc
}

type GetAttr struct {
	Value Var
	Attr  string
	At    Loc
}

type BuildTuple struct {
	Items []Var
	At    Loc
}

type BuildList struct {
	Items []Var
	At    Loc
}

type BuildSet struct {
	Items []Var
	At    Loc
}

// Cast marks Value as converted to the type of the assignment target,
// typically the return value of a function
type Cast struct {
	Value Var
	At    Loc
}

type MakeFunction struct {
	Name     string
	Defaults *Var
	Closure  *Var
	At       Loc
}

func (*Call) Op() string          { return "call" }
func (*GetIter) Op() string       { return "getiter" }
func (*IterNext) Op() string      { return "iternext" }
func (*ExhaustIter) Op() string   { return "exhaust_iter" }
func (*PairFirst) Op() string     { return "pair_first" }
func (*PairSecond) Op() string    { return "pair_second" }
func (*BinOp) Op() string         { return "binop" }
func (*InplaceBinOp) Op() string  { return "inplace_binop" }
func (*Unary) Op() string         { return "unary" }
func (*StaticGetItem) Op() string { return "static_getitem" }
func (*GetItem) Op() string       { return "getitem" }
func (*GetAttr) Op() string       { return "getattr" }
func (*BuildTuple) Op() string    { return "build_tuple" }
func (*BuildList) Op() string     { return "build_list" }
func (*BuildSet) Op() string      { return "build_set" }
func (*Cast) Op() string          { return "cast" }
func (*MakeFunction) Op() string  { return "make_function" }

func (e *Call) Loc() Loc          { return e.At }
func (e *GetIter) Loc() Loc       { return e.At }
func (e *IterNext) Loc() Loc      { return e.At }
func (e *ExhaustIter) Loc() Loc   { return e.At }
func (e *PairFirst) Loc() Loc     { return e.At }
func (e *PairSecond) Loc() Loc    { return e.At }
func (e *BinOp) Loc() Loc         { return e.At }
func (e *InplaceBinOp) Loc() Loc  { return e.At }
func (e *Unary) Loc() Loc         { return e.At }
func (e *StaticGetItem) Loc() Loc { return e.At }
func (e *GetItem) Loc() Loc       { return e.At }
func (e *GetAttr) Loc() Loc       { return e.At }
func (e *BuildTuple) Loc() Loc    { return e.At }
func (e *BuildList) Loc() Loc     { return e.At }
func (e *BuildSet) Loc() Loc      { return e.At }
func (e *Cast) Loc() Loc          { return e.At }
func (e *MakeFunction) Loc() Loc  { return e.At }

func (*Call) rhsNode()          {}
func (*GetIter) rhsNode()       {}
func (*IterNext) rhsNode()      {}
func (*ExhaustIter) rhsNode()   {}
func (*PairFirst) rhsNode()     {}
func (*PairSecond) rhsNode()    {}
func (*BinOp) rhsNode()         {}
func (*InplaceBinOp) rhsNode()  {}
func (*Unary) rhsNode()         {}
func (*StaticGetItem) rhsNode() {}
func (*GetItem) rhsNode()       {}
func (*GetAttr) rhsNode()       {}
func (*BuildTuple) rhsNode()    {}
func (*BuildList) rhsNode()     {}
func (*BuildSet) rhsNode()      {}
func (*Cast) rhsNode()          {}
func (*MakeFunction) rhsNode()  {}

func (*Call) exprNode()          {}
func (*GetIter) exprNode()       {}
func (*IterNext) exprNode()      {}
func (*ExhaustIter) exprNode()   {}
func (*PairFirst) exprNode()     {}
func (*PairSecond) exprNode()    {}
func (*BinOp) exprNode()         {}
func (*InplaceBinOp) exprNode()  {}
func (*Unary) exprNode()         {}
func (*StaticGetItem) exprNode() {}
func (*GetItem) exprNode()       {}
func (*GetAttr) exprNode()       {}
func (*BuildTuple) exprNode()    {}
func (*BuildList) exprNode()     {}
func (*BuildSet) exprNode()      {}
func (*Cast) exprNode()          {}
func (*MakeFunction) exprNode()  {}
