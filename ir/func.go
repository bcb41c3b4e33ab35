package ir

import (
	"iter"
)

// Block is a basic block: a straight sequence of instructions whose
// last instruction is its terminator
type Block struct {
	Label int
	Body  []Inst
}

// Terminator returns the last instruction of the block, or nil for an empty block
func (b *Block) Terminator() Inst {
	if len(b.Body) == 0 {
		return nil
	}
	return b.Body[len(b.Body)-1]
}

// FindVariableAssignment returns the first assignment to name within the block
func (b *Block) FindVariableAssignment(name string) *Assign {
	for _, inst := range b.Body {
		if assign, ok := inst.(*Assign); ok && assign.Target.Name == name {
			return assign
		}
	}
	return nil
}

// GeneratorInfo is present on functions that yield
type GeneratorInfo struct {
	// StateVars are the variables that must survive across yield points
	StateVars []string
}

// Function is the IR of a single function, the unit of type inference
type Function struct {
	// ID uniquely identifies the function within a program
	ID       string
	Name     string
	ArgNames []string
	Blocks   []*Block
	// Generator is nil for functions that do not yield
	Generator *GeneratorInfo
	At        Loc
}

func (f *Function) Loc() Loc { return f.At }

// Instructions iterates over every instruction in block order
func (f *Function) Instructions() iter.Seq[Inst] {
	return func(yield func(Inst) bool) {
		for _, block := range f.Blocks {
			for _, inst := range block.Body {
				if !yield(inst) {
					return
				}
			}
		}
	}
}

// FindVariableAssignment returns the first assignment to name in block order, or nil
func (f *Function) FindVariableAssignment(name string) *Assign {
	for _, block := range f.Blocks {
		if found := block.FindVariableAssignment(name); found != nil {
			return found
		}
	}
	return nil
}

// Returns lists every return statement of the function
func (f *Function) Returns() []*Return {
	var returns []*Return
	for inst := range f.Instructions() {
		if ret, ok := inst.(*Return); ok {
			returns = append(returns, ret)
		}
	}
	return returns
}

// YieldPoints lists the assignments whose right-hand side is a Yield
func (f *Function) YieldPoints() []*Assign {
	var points []*Assign
	for inst := range f.Instructions() {
		if assign, ok := inst.(*Assign); ok {
			if _, isYield := assign.Value.(Yield); isYield {
				points = append(points, assign)
			}
		}
	}
	return points
}
