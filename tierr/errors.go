// Package tierr holds the errors type inference reports.
//
// Every error carries an ErrCode and the location it should be reported at.
// Errors are created through New, which records where they were raised from.
package tierr

import (
	"fmt"
	"runtime/debug"
	"strings"

	"github.com/cottand/typeinfer/ir"
	"github.com/cottand/typeinfer/types"
)

// enableDebugErrorPrinting makes errors include where they were raised from when printed
var enableDebugErrorPrinting = false

const enableDebugFullStacktrace bool = false

// SetDebugPrinting makes FormatWithCode include the frame that raised each error
func SetDebugPrinting(enabled bool) {
	enableDebugErrorPrinting = enabled
}

type ErrCode int

const (
	None ErrCode = iota
	Typing
	Unify
	NoConversion
	UndefinedVariable
	Imprecise
	UnpackLength
	AttributeNotFound
	Unsupported
	InvalidCall
	Internal
	StarArgs
)

type Error interface {
	Error() string
	Code() ErrCode
	ir.Located

	withStack([]byte) Error
	getStack() []byte
}

func FormatWithCode(e Error) string {
	msg := fmt.Sprintf("(E%03d) %s", e.Code(), e.Error())
	if loc := e.Loc(); loc.IsValid() {
		msg = fmt.Sprintf("%s: %s", loc, msg)
	}
	if enableDebugErrorPrinting && e.getStack() != nil {
		stack := string(e.getStack())
		if !enableDebugFullStacktrace {
			lines := strings.Split(stack, "\n")
			if len(lines) > 6 {
				stack = strings.TrimSpace(lines[6])
			}
		}
		return fmt.Sprintf("%s:%s", stack, msg)
	}
	return msg
}

func New[E Error](err E) Error {
	return err.withStack(debug.Stack())
}

// IsTyping returns false for errors that denote a mismatch between the IR
// and the inferencer rather than a type error in the user's program
func IsTyping(err Error) bool {
	return err.Code() != Unsupported
}

// ----------------------------------------------

type TypingError struct {
	Msg   string
	At    ir.Loc
	stack []byte
}

func (e TypingError) Error() string    { return e.Msg }
func (e TypingError) Loc() ir.Loc      { return e.At }
func (e TypingError) Code() ErrCode    { return Typing }
func (e TypingError) getStack() []byte { return e.stack }
func (e TypingError) withStack(stack []byte) Error {
	e.stack = stack
	return e
}

// Typingf is a shorthand for a generic TypingError
func Typingf(at ir.Loc, format string, args ...any) Error {
	return New(TypingError{Msg: fmt.Sprintf(format, args...), At: at})
}

type CannotUnify struct {
	Var       string
	First     types.Type
	Second    types.Type
	DefinedAt ir.Loc
	At        ir.Loc
	stack     []byte
}

func (e CannotUnify) Error() string {
	return fmt.Sprintf("Cannot unify %s and %s for '%s', defined at %s", e.First, e.Second, e.Var, e.DefinedAt)
}
func (e CannotUnify) Loc() ir.Loc      { return e.At }
func (e CannotUnify) Code() ErrCode    { return Unify }
func (e CannotUnify) getStack() []byte { return e.stack }
func (e CannotUnify) withStack(stack []byte) Error {
	e.stack = stack
	return e
}

type NoConversionError struct {
	Var       string
	From      types.Type
	To        types.Type
	DefinedAt ir.Loc
	At        ir.Loc
	stack     []byte
}

func (e NoConversionError) Error() string {
	return fmt.Sprintf("No conversion from %s to %s for '%s', defined at %s", e.From, e.To, e.Var, e.DefinedAt)
}
func (e NoConversionError) Loc() ir.Loc      { return e.At }
func (e NoConversionError) Code() ErrCode    { return NoConversion }
func (e NoConversionError) getStack() []byte { return e.stack }
func (e NoConversionError) withStack(stack []byte) Error {
	e.stack = stack
	return e
}

// UndefinedVar is raised when a variable never received a type.
// Offender is the instruction found to define the variable, if any
type UndefinedVar struct {
	Var      string
	Offender ir.Node
	At       ir.Loc
	stack    []byte
}

func (e UndefinedVar) Error() string {
	op := "<unknown>"
	if e.Offender != nil {
		op = e.Offender.String()
	}
	return fmt.Sprintf("Type of variable '%s' cannot be determined, operation: %s, location: %s", e.Var, op, e.At)
}
func (e UndefinedVar) Loc() ir.Loc      { return e.At }
func (e UndefinedVar) Code() ErrCode    { return UndefinedVariable }
func (e UndefinedVar) getStack() []byte { return e.stack }
func (e UndefinedVar) withStack(stack []byte) Error {
	e.stack = stack
	return e
}

// ImpreciseType is raised when a variable still has placeholders in its type when inference ends.
// Hint may suggest how to make the type known
type ImpreciseType struct {
	Var   string
	Type  types.Type
	Hint  string
	At    ir.Loc
	stack []byte
}

func (e ImpreciseType) Error() string {
	extra := ""
	if ir.IsTemp(e.Var) {
		extra = " (temporary variable)"
	}
	return fmt.Sprintf("Cannot infer the type of variable '%s'%s, have imprecise type: %s. %s", e.Var, extra, e.Type, e.Hint)
}
func (e ImpreciseType) Loc() ir.Loc      { return e.At }
func (e ImpreciseType) Code() ErrCode    { return Imprecise }
func (e ImpreciseType) getStack() []byte { return e.stack }
func (e ImpreciseType) withStack(stack []byte) Error {
	e.stack = stack
	return e
}

type UnpackLengthMismatch struct {
	Var      string
	Expected int
	Got      int
	At       ir.Loc
	stack    []byte
}

func (e UnpackLengthMismatch) Error() string {
	return fmt.Sprintf("wrong tuple length for %s: expected %d, got %d", e.Var, e.Expected, e.Got)
}
func (e UnpackLengthMismatch) Loc() ir.Loc      { return e.At }
func (e UnpackLengthMismatch) Code() ErrCode    { return UnpackLength }
func (e UnpackLengthMismatch) getStack() []byte { return e.stack }
func (e UnpackLengthMismatch) withStack(stack []byte) Error {
	e.stack = stack
	return e
}

type FailedUnpack struct {
	Type  types.Type
	At    ir.Loc
	stack []byte
}

func (e FailedUnpack) Error() string {
	return fmt.Sprintf("failed to unpack %s", e.Type)
}
func (e FailedUnpack) Loc() ir.Loc      { return e.At }
func (e FailedUnpack) Code() ErrCode    { return UnpackLength }
func (e FailedUnpack) getStack() []byte { return e.stack }
func (e FailedUnpack) withStack(stack []byte) Error {
	e.stack = stack
	return e
}

type AttributeNotFoundError struct {
	Attr  string
	Type  types.Type
	At    ir.Loc
	stack []byte
}

func (e AttributeNotFoundError) Error() string {
	return fmt.Sprintf("Unknown attribute '%s' of type %s", e.Attr, e.Type)
}
func (e AttributeNotFoundError) Loc() ir.Loc      { return e.At }
func (e AttributeNotFoundError) Code() ErrCode    { return AttributeNotFound }
func (e AttributeNotFoundError) getStack() []byte { return e.stack }
func (e AttributeNotFoundError) withStack(stack []byte) Error {
	e.stack = stack
	return e
}

// UnsupportedError is raised for instructions or expressions inference does not know about
type UnsupportedError struct {
	What  string
	Node  fmt.Stringer
	At    ir.Loc
	stack []byte
}

func (e UnsupportedError) Error() string {
	return fmt.Sprintf("Unsupported %s encountered: %s", e.What, e.Node)
}
func (e UnsupportedError) Loc() ir.Loc      { return e.At }
func (e UnsupportedError) Code() ErrCode    { return Unsupported }
func (e UnsupportedError) getStack() []byte { return e.stack }
func (e UnsupportedError) withStack(stack []byte) Error {
	e.stack = stack
	return e
}

// InvalidCallError is raised when no signature matches the arguments of a call.
// Explanation lists the signatures that were considered
type InvalidCallError struct {
	Callee      types.Type
	Args        []types.Type
	Kws         []types.KeywordArg
	Explanation string
	At          ir.Loc
	stack       []byte
}

func (e InvalidCallError) Error() string {
	args := make([]string, 0, len(e.Args)+len(e.Kws))
	for _, arg := range e.Args {
		args = append(args, arg.String())
	}
	for _, kw := range e.Kws {
		args = append(args, kw.String())
	}
	msg := fmt.Sprintf("Invalid use of %s with parameters (%s)", e.Callee, strings.Join(args, ", "))
	if e.Explanation != "" {
		msg += "\n" + e.Explanation
	}
	return msg
}
func (e InvalidCallError) Loc() ir.Loc      { return e.At }
func (e InvalidCallError) Code() ErrCode    { return InvalidCall }
func (e InvalidCallError) getStack() []byte { return e.stack }
func (e InvalidCallError) withStack(stack []byte) Error {
	e.stack = stack
	return e
}

// InvalidMutation is raised when setitem, setattr or delitem cannot be resolved for its operands
type InvalidMutation struct {
	Op       string
	Operands string
	At       ir.Loc
	stack    []byte
}

func (e InvalidMutation) Error() string {
	return fmt.Sprintf("Cannot resolve %s: %s", e.Op, e.Operands)
}
func (e InvalidMutation) Loc() ir.Loc      { return e.At }
func (e InvalidMutation) Code() ErrCode    { return InvalidCall }
func (e InvalidMutation) getStack() []byte { return e.stack }
func (e InvalidMutation) withStack(stack []byte) Error {
	e.stack = stack
	return e
}

// InternalError wraps an unexpected failure while applying a constraint.
// Trace holds the full trace of Cause
type InternalError struct {
	Cause      error
	Constraint string
	Trace      string
	At         ir.Loc
	stack      []byte
}

func (e InternalError) Error() string {
	return fmt.Sprintf("Internal error at %s.\n%v\n%s", e.Constraint, e.Cause, e.Trace)
}
func (e InternalError) Unwrap() error    { return e.Cause }
func (e InternalError) Loc() ir.Loc      { return e.At }
func (e InternalError) Code() ErrCode    { return Internal }
func (e InternalError) getStack() []byte { return e.stack }
func (e InternalError) withStack(stack []byte) Error {
	e.stack = stack
	return e
}

type InvalidStarArgs struct {
	Type  types.Type
	At    ir.Loc
	stack []byte
}

func (e InvalidStarArgs) Error() string {
	return fmt.Sprintf("*args in function call should be a tuple, got %s", e.Type)
}
func (e InvalidStarArgs) Loc() ir.Loc      { return e.At }
func (e InvalidStarArgs) Code() ErrCode    { return StarArgs }
func (e InvalidStarArgs) getStack() []byte { return e.stack }
func (e InvalidStarArgs) withStack(stack []byte) Error {
	e.stack = stack
	return e
}

// InConstraint is an error raised while applying a constraint, reported at the location of the constraint
type InConstraint struct {
	Cause Error
	At    ir.Loc
	stack []byte
}

func (e InConstraint) Error() string    { return e.Cause.Error() }
func (e InConstraint) Unwrap() error    { return e.Cause }
func (e InConstraint) Loc() ir.Loc      { return e.At }
func (e InConstraint) Code() ErrCode    { return e.Cause.Code() }
func (e InConstraint) getStack() []byte {
	if e.stack != nil {
		return e.stack
	}
	return e.Cause.getStack()
}
func (e InConstraint) withStack(stack []byte) Error {
	e.stack = stack
	return e
}
