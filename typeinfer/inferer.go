// Package typeinfer infers the type of every variable of an ir.Function.
//
// Each instruction of the function is turned into one or more Constraints. Constraints are
// applied over and over until the types of the variables stop changing, after which Unify
// checks that every variable ended up with a single, precise type.
package typeinfer

import (
	"log/slog"

	"github.com/cottand/typeinfer/internal/log"
	"github.com/cottand/typeinfer/ir"
	"github.com/cottand/typeinfer/tierr"
	"github.com/cottand/typeinfer/types"
	"github.com/cottand/typeinfer/typing"
	"github.com/cottand/typeinfer/util"
	"github.com/hashicorp/go-set/v3"
)

// ExtensionFunc builds the constraints of an ir.Extension instruction
type ExtensionFunc func(inst *ir.Extension, ti *TypeInferer) error

type Options struct {
	// Logger defaults to log.DefaultLogger
	Logger *slog.Logger
	// Extensions are looked up by ir.Extension.Kind
	Extensions map[string]ExtensionFunc
	// CallStack holds the functions already being inferred by callers of this one
	CallStack CallStack
	// Compiler infers callees. When nil, calls to other functions are resolved by the typing.Context
	Compiler Compiler
}

type callRecord struct {
	node ir.Node
	site CallSite
}

type TypeInferer struct {
	ctx         typing.Context
	fn          *ir.Function
	typeVars    *TypeVarMap
	constraints *ConstraintNetwork
	// refineMap maps a variable to the constraint that produced it
	refineMap map[string]Refiner
	// assumedImmutables are the assignments of globals, whose values are assumed to not change
	assumedImmutables *set.Set[*ir.Assign]
	calls             []callRecord
	argNames          map[int]string
	// seeded are the variables locked before constraints were built
	seeded        *set.Set[string]
	skipRecursion bool
	callStack     CallStack
	compiler      Compiler
	extensions    map[string]ExtensionFunc
	logger        *slog.Logger
}

func New(ctx typing.Context, fn *ir.Function, opts Options) *TypeInferer {
	logger := opts.Logger
	if logger == nil {
		logger = log.DefaultLogger
	}
	logger = slog.New(ir.SlogHandler(logger.Handler())).With("section", "typeinfer", "func", fn.Name)
	return &TypeInferer{
		ctx:               ctx,
		fn:                fn,
		typeVars:          NewTypeVarMap(ctx),
		constraints:       newConstraintNetwork(logger),
		refineMap:         make(map[string]Refiner),
		assumedImmutables: set.New[*ir.Assign](0),
		argNames:          make(map[int]string),
		seeded:            set.New[string](0),
		callStack:         opts.CallStack,
		compiler:          opts.Compiler,
		extensions:        opts.Extensions,
		logger:            logger,
	}
}

func (ti *TypeInferer) Function() *ir.Function  { return ti.fn }
func (ti *TypeInferer) Context() typing.Context { return ti.ctx }
func (ti *TypeInferer) TypeVars() *TypeVarMap   { return ti.typeVars }
func (ti *TypeInferer) CallStack() CallStack    { return ti.callStack }

// AssumedImmutable reports whether assign reads a global whose value inference relied on
func (ti *TypeInferer) AssumedImmutable(assign *ir.Assign) bool {
	return ti.assumedImmutables.Contains(assign)
}

func mangleArg(name string) string { return "arg." + name }

// SeedArgument locks the type of the argument name at index
func (ti *TypeInferer) SeedArgument(name string, index int, t types.Type) error {
	name = mangleArg(name)
	ti.argNames[index] = name
	return ti.SeedType(name, t)
}

func (ti *TypeInferer) SeedType(name string, t types.Type) error {
	if err := ti.LockType(name, t, ti.fn.At, NotSet); err != nil {
		return err
	}
	ti.seeded.Insert(name)
	return nil
}

// SeedReturn locks the variable of every return statement to t
func (ti *TypeInferer) SeedReturn(t types.Type) error {
	for _, ret := range ti.fn.Returns() {
		if ti.seeded.Contains(ret.Value.Name) {
			continue
		}
		if err := ti.SeedType(ret.Value.Name, t); err != nil {
			return err
		}
	}
	return nil
}

func (ti *TypeInferer) LockType(name string, t types.Type, loc ir.Loc, literal any) error {
	return ti.typeVars.Get(name).Lock(t, loc, literal)
}

// AddType merges t into the type of name. When this changes the type of name, the
// constraint that produced name is given a chance to refine its own inputs
func (ti *TypeInferer) AddType(name string, t types.Type, loc ir.Loc) error {
	return ti.addType(name, t, loc, false)
}

func (ti *TypeInferer) addType(name string, t types.Type, loc ir.Loc, unlessLocked bool) error {
	tv := ti.typeVars.Get(name)
	if unlessLocked && tv.Locked {
		return nil
	}
	old := tv.Type
	unified, err := tv.AddType(t, loc)
	if err != nil {
		return err
	}
	if !types.Equal(old, unified) {
		return ti.propagateRefinedType(name, unified)
	}
	return nil
}

// CopyType merges the type of src into dst
func (ti *TypeInferer) CopyType(src, dst string, loc ir.Loc) error {
	_, err := ti.typeVars.Get(dst).Union(ti.typeVars.Get(src), loc)
	return err
}

func (ti *TypeInferer) propagateRefinedType(name string, updated types.Type) error {
	if source, ok := ti.refineMap[name]; ok {
		ti.logger.Debug("refining", "var", name, "updated", updated.String(), "source", source.String())
		return source.Refine(ti, updated)
	}
	return nil
}

func (ti *TypeInferer) AddConstraint(c Constraint) { ti.constraints.Append(c) }

// AddCall records that the signature of node is resolved by site
func (ti *TypeInferer) AddCall(node ir.Node, site CallSite) {
	ti.calls = append(ti.calls, callRecord{node: node, site: site})
}

func (ti *TypeInferer) typeSets(vars []ir.Var) [][]types.Type {
	return util.MapSlice(vars, func(v ir.Var) []types.Type { return ti.typeVars.Get(v.Name).Get() })
}

func (ti *TypeInferer) resolveValueType(value any, loc ir.Loc) (types.Type, error) {
	t, err := ti.ctx.ResolveValueType(value)
	if err != nil {
		return nil, tierr.New(tierr.TypingError{Msg: err.Error(), At: loc})
	}
	return t, nil
}

func (ti *TypeInferer) resolveValueTypePreferLiteral(value any, loc ir.Loc) (types.Type, error) {
	if lit, err := ti.ctx.ResolveLiteral(value); err == nil {
		return lit, nil
	}
	return ti.resolveValueType(value, loc)
}

// ----------------------------------------------

// StateToken is a snapshot of the type of every variable, in name order
type StateToken []types.Type

func (s StateToken) Equal(other StateToken) bool { return types.EqualSlices(s, other) }

func (ti *TypeInferer) StateToken() StateToken {
	names := ti.typeVars.Names()
	token := make(StateToken, len(names))
	for i, name := range names {
		token[i] = ti.typeVars.Get(name).Type
	}
	return token
}

// Propagate applies the constraints until the types of the variables stop changing.
//
// Only the errors of the last pass count, since later passes may have fixed what failed earlier.
// When raiseErrors is set the first of them is returned as an error, otherwise all are returned
func (ti *TypeInferer) Propagate(raiseErrors bool) (*tierr.Errors, error) {
	token := ti.StateToken()
	var errs []tierr.Error
	for pass := 1; ; pass++ {
		ti.logger.Debug("propagate started", "pass", pass)
		old := token
		errs = ti.constraints.Propagate(ti)
		token = ti.StateToken()
		ti.logger.Debug("propagate finished", "pass", pass, "errors", len(errs))
		if token.Equal(old) {
			break
		}
	}
	collected := (*tierr.Errors)(nil).With(errs...)
	if !collected.HasError() {
		return nil, nil
	}
	if raiseErrors {
		return nil, collected.First()
	}
	return collected, nil
}

// ----------------------------------------------

func (ti *TypeInferer) resolveCall(fnty types.Type, pos []types.Type, kws []types.KeywordArg) (*types.Signature, error) {
	switch fn := fnty.(type) {
	case types.RecursiveCall:
		if ti.compiler == nil {
			break
		}
		args, err := ti.foldDispatcherArgs(fn.Dispatcher, pos, kws)
		if err != nil {
			return nil, err
		}
		if ti.skipRecursion {
			return ti.compiler.Compiled(fn.Dispatcher.ID, args), nil
		}
		frame := ti.callStack.Match(fn.Dispatcher.ID, args)
		if frame == nil {
			return ti.compiler.Compile(ti.callStack, fn.Dispatcher.ID, args)
		}
		ti.logger.Debug("resolving recursive call", "callee", fn.Dispatcher.Name, "stack", ti.callStack.String())
		ret := frame.Inferer.returnTypesFromPartial(ti.callStack)
		if ret == nil {
			return nil, tierr.New(tierr.TypingError{Msg: "cannot type infer runaway recursion"})
		}
		return types.NewSignature(ret, args...), nil
	case types.Dispatcher:
		if ti.compiler == nil {
			break
		}
		args, err := ti.foldDispatcherArgs(fn, pos, kws)
		if err != nil {
			return nil, err
		}
		return ti.compiler.Compile(ti.callStack, fn.ID, args)
	}
	return ti.ctx.ResolveFunctionType(fnty, pos, kws)
}

func (ti *TypeInferer) foldDispatcherArgs(d types.Dispatcher, pos []types.Type, kws []types.KeywordArg) ([]types.Type, error) {
	args, err := ti.compiler.FoldArguments(d.ID, pos, kws)
	if err != nil {
		return nil, tierr.New(tierr.TypingError{Msg: err.Error()})
	}
	return util.MapSlice(args, types.Unliteral), nil
}

// returnTypesFromPartial infers what ti returns without resolving recursive calls that are
// not inferred yet. It returns nil when no return type could be found
func (ti *TypeInferer) returnTypesFromPartial(stack CallStack) types.Type {
	clone, err := ti.Copy(true)
	if err != nil {
		ti.logger.Debug("could not copy inferer", "err", err)
		return nil
	}
	clone.callStack = stack
	if err := clone.BuildConstraint(); err != nil {
		ti.logger.Debug("partial inference failed", "err", err)
		return nil
	}
	errs, err := clone.Propagate(false)
	if err != nil {
		return nil
	}
	if errs.HasError() {
		ti.logger.Debug("partial inference had errors", "errs", errs)
	}
	var rettypes []types.Type
	for _, ret := range ti.fn.Returns() {
		if tv, ok := clone.typeVars.Lookup(ret.Value.Name); ok && tv.Defined() {
			rettypes = append(rettypes, types.Unliteral(tv.Type))
		}
	}
	if len(rettypes) == 0 {
		return nil
	}
	unified := ti.ctx.UnifyTypes(types.Unique(rettypes)...)
	if unified == nil || !types.IsPrecise(unified) {
		return nil
	}
	return unified
}

// Copy returns a TypeInferer for the same function that starts from the types ti inferred so far.
// Seeded types stay locked. When skipRecursion is set, recursive calls are only resolved
// if the callee was already inferred
func (ti *TypeInferer) Copy(skipRecursion bool) (*TypeInferer, error) {
	clone := New(ti.ctx, ti.fn, Options{
		Extensions: ti.extensions,
		CallStack:  ti.callStack,
		Compiler:   ti.compiler,
	})
	clone.logger = ti.logger.With("clone", true)
	clone.constraints.logger = ti.constraints.logger
	clone.skipRecursion = skipRecursion
	for index, name := range ti.argNames {
		clone.argNames[index] = name
	}
	for _, name := range ti.typeVars.Names() {
		tv := ti.typeVars.Get(name)
		switch {
		case ti.seeded.Contains(name):
			if err := clone.LockType(name, tv.Type, tv.DefineLoc, tv.LiteralValue); err != nil {
				return nil, err
			}
			clone.seeded.Insert(name)
		case !tv.Locked && tv.Defined():
			if _, err := clone.typeVars.Get(name).AddType(tv.Type, tv.DefineLoc); err != nil {
				return nil, err
			}
		}
	}
	return clone, nil
}
