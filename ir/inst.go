package ir

// when adding instructions here, you should add them to the switch cases in:
// - typeinfer:build.go/constrainStatement
// - ir:show.go
// - ir:load.go/convertInst

// Inst is a single statement of a Block
type Inst interface {
	Node
	instNode()
}

var (
	_ Inst = (*Assign)(nil)
	_ Inst = (*SetItem)(nil)
	_ Inst = (*StaticSetItem)(nil)
	_ Inst = (*DelItem)(nil)
	_ Inst = (*SetAttr)(nil)
	_ Inst = (*Print)(nil)
	_ Inst = (*Jump)(nil)
	_ Inst = (*Branch)(nil)
	_ Inst = (*Return)(nil)
	_ Inst = (*Del)(nil)
	_ Inst = (*StaticRaise)(nil)
	_ Inst = (*Extension)(nil)
)

// Assign binds Target to the result of Value
type Assign struct {
	Target Var
	Value  RHS
	At     Loc
}

// SetItem is target[index] = value
type SetItem struct {
	Target, Index, Value Var
	At                   Loc
}

// StaticSetItem is target[index] = value where index is known when building the IR.
// IndexVar holds the same index as a runtime value
type StaticSetItem struct {
	Target   Var
	Index    any
	IndexVar Var
	Value    Var
	At       Loc
}

// DelItem is del target[index]
type DelItem struct {
	Target, Index Var
	At            Loc
}

// SetAttr is target.attr = value
type SetAttr struct {
	Target Var
	Attr   string
	Value  Var
	At     Loc
}

type Print struct {
	Args   []Var
	Vararg *Var
	At     Loc
}

type Jump struct {
	Target int
	At     Loc
}

type Branch struct {
	Cond            Var
	Truebr, Falsebr int
	At              Loc
}

type Return struct {
	Value Var
	At    Loc
}

type Del struct {
	Name string
	At   Loc
}

type StaticRaise struct {
	Message string
	At      Loc
}

// Extension is a host-specific instruction. Type inference looks up a handler by Kind
type Extension struct {
	Kind    string
	Vars    []Var
	Payload any
	At      Loc
}

func (*Assign) instNode()        {}
func (*SetItem) instNode()       {}
func (*StaticSetItem) instNode() {}
func (*DelItem) instNode()       {}
func (*SetAttr) instNode()       {}
func (*Print) instNode()         {}
func (*Jump) instNode()          {}
func (*Branch) instNode()        {}
func (*Return) instNode()        {}
func (*Del) instNode()           {}
func (*StaticRaise) instNode()   {}
func (*Extension) instNode()     {}

func (i *Assign) Loc() Loc        { return i.At }
func (i *SetItem) Loc() Loc       { return i.At }
func (i *StaticSetItem) Loc() Loc { return i.At }
func (i *DelItem) Loc() Loc       { return i.At }
func (i *SetAttr) Loc() Loc       { return i.At }
func (i *Print) Loc() Loc         { return i.At }
func (i *Jump) Loc() Loc          { return i.At }
func (i *Branch) Loc() Loc        { return i.At }
func (i *Return) Loc() Loc        { return i.At }
func (i *Del) Loc() Loc           { return i.At }
func (i *StaticRaise) Loc() Loc   { return i.At }
func (i *Extension) Loc() Loc     { return i.At }
