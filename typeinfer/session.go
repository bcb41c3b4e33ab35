package typeinfer

import (
	"log/slog"
	"slices"

	"github.com/cottand/typeinfer/internal/log"
	"github.com/cottand/typeinfer/ir"
	"github.com/cottand/typeinfer/tierr"
	"github.com/cottand/typeinfer/types"
	"github.com/cottand/typeinfer/typing"
	"github.com/cottand/typeinfer/util"
	"github.com/google/uuid"
	"github.com/hashicorp/go-set/v3"
	"github.com/pkg/errors"
)

var _ Compiler = (*Session)(nil)

// Session infers a program made of several functions. Functions are inferred on demand,
// once per distinct list of argument types, when another function calls them.
//
// A Session is not safe for concurrent use
type Session struct {
	ID         uuid.UUID
	ctx        typing.Context
	functions  map[string]*ir.Function
	cache      map[string]*Result
	inProgress *set.Set[string]
	extensions map[string]ExtensionFunc
	logger     *slog.Logger
}

type SessionOption func(*Session)

func WithLogger(logger *slog.Logger) SessionOption {
	return func(s *Session) { s.logger = logger }
}

func WithExtensions(extensions map[string]ExtensionFunc) SessionOption {
	return func(s *Session) { s.extensions = extensions }
}

func NewSession(ctx typing.Context, opts ...SessionOption) *Session {
	s := &Session{
		ID:         uuid.New(),
		ctx:        ctx,
		functions:  make(map[string]*ir.Function),
		cache:      make(map[string]*Result),
		inProgress: set.New[string](0),
		logger:     log.DefaultLogger,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("section", "session", "session_id", s.ID.String())
	return s
}

// Register makes fns available to be inferred and called. Function IDs must be unique
func (s *Session) Register(fns ...*ir.Function) error {
	for _, fn := range fns {
		if _, ok := s.functions[fn.ID]; ok {
			return errors.Errorf("function %s (%s) is already registered", fn.ID, fn.Name)
		}
		s.functions[fn.ID] = fn
	}
	return nil
}

func (s *Session) Function(id string) (*ir.Function, bool) {
	fn, ok := s.functions[id]
	return fn, ok
}

// Infer infers the function id when called with args
func (s *Session) Infer(id string, args []types.Type) (*Result, error) {
	return s.infer(CallStack{}, id, args, nil)
}

// InferWithReturn is Infer for a function known to return ret
func (s *Session) InferWithReturn(id string, args []types.Type, ret types.Type) (*Result, error) {
	return s.infer(CallStack{}, id, args, ret)
}

func overloadKey(id string, args []types.Type) string {
	return id + "(" + util.JoinString(args, ", ") + ")"
}

func (s *Session) infer(stack CallStack, id string, args []types.Type, ret types.Type) (*Result, error) {
	fn, ok := s.functions[id]
	if !ok {
		return nil, errors.Errorf("unknown function %s", id)
	}
	if len(args) != len(fn.ArgNames) {
		return nil, errors.Errorf("%s takes %d arguments, got %d", fn.Name, len(fn.ArgNames), len(args))
	}
	key := overloadKey(id, args)
	if ret == nil {
		if cached, ok := s.cache[key]; ok {
			return cached, nil
		}
	}
	if !s.inProgress.Insert(key) {
		return nil, tierr.Typingf(fn.At, "cannot type infer runaway recursion")
	}
	defer s.inProgress.Remove(key)

	logger := s.logger.With("overload", key)
	logger.Info("inferring", "depth", stack.Len())
	ti := New(s.ctx, fn, Options{
		Logger:     logger,
		Extensions: s.extensions,
		Compiler:   s,
	})
	ti.callStack = stack.Push(&Frame{FuncID: id, Args: args, Inferer: ti})

	for i, name := range fn.ArgNames {
		if err := ti.SeedArgument(name, i, args[i]); err != nil {
			return nil, err
		}
	}
	if ret != nil {
		if err := ti.SeedReturn(ret); err != nil {
			return nil, err
		}
	}
	if err := ti.BuildConstraint(); err != nil {
		return nil, err
	}
	if _, err := ti.Propagate(true); err != nil {
		return nil, err
	}
	result, err := ti.Unify()
	if err != nil {
		return nil, err
	}
	logger.Info("inferred", "return", result.Return.String())
	if ret == nil {
		s.cache[key] = result
	}
	return result, nil
}

func (s *Session) Compile(stack CallStack, funcID string, args []types.Type) (*types.Signature, error) {
	result, err := s.infer(stack, funcID, args, nil)
	if err != nil {
		return nil, err
	}
	return types.NewSignature(result.Return, args...), nil
}

func (s *Session) Compiled(funcID string, args []types.Type) *types.Signature {
	result, ok := s.cache[overloadKey(funcID, args)]
	if !ok {
		return nil
	}
	return types.NewSignature(result.Return, args...)
}

// FoldArguments places keyword arguments at the position of the argument of the same name
func (s *Session) FoldArguments(funcID string, args []types.Type, kws []types.KeywordArg) ([]types.Type, error) {
	fn, ok := s.functions[funcID]
	if !ok {
		return nil, errors.Errorf("unknown function %s", funcID)
	}
	if len(args) > len(fn.ArgNames) {
		return nil, errors.Errorf("%s() takes %d positional arguments but %d were given", fn.Name, len(fn.ArgNames), len(args))
	}
	folded := make([]types.Type, len(fn.ArgNames))
	copy(folded, args)
	for _, kw := range kws {
		index := slices.Index(fn.ArgNames, kw.Name)
		if index < 0 {
			return nil, errors.Errorf("%s() got an unexpected keyword argument '%s'", fn.Name, kw.Name)
		}
		if folded[index] != nil {
			return nil, errors.Errorf("%s() got multiple values for argument '%s'", fn.Name, kw.Name)
		}
		folded[index] = kw.Type
	}
	for i, t := range folded {
		if t == nil {
			return nil, errors.Errorf("%s() missing argument '%s'", fn.Name, fn.ArgNames[i])
		}
	}
	return folded, nil
}
