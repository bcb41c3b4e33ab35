package tierr

import (
	"testing"

	"github.com/cottand/typeinfer/ir"
	"github.com/cottand/typeinfer/types"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var at = ir.Loc{Filename: "prog.py", Line: 7}

func TestFormatWithCode(t *testing.T) {
	tests := []struct {
		name string
		err  Error
		want string
	}{
		{
			name: "with location",
			err:  Typingf(at, "bad %s", "thing"),
			want: "prog.py:7: (E001) bad thing",
		},
		{
			name: "without location",
			err:  New(TypingError{Msg: "somewhere"}),
			want: "(E001) somewhere",
		},
		{
			name: "cannot unify",
			err:  New(CannotUnify{Var: "x", First: types.Int64, Second: types.Unicode, At: at}),
			want: "prog.py:7: (E002) ",
		},
		{
			name: "wrapped keeps the code of its cause",
			err:  New(InConstraint{Cause: New(UnpackLengthMismatch{Var: "t", Expected: 2, Got: 3}), At: at}),
			want: "prog.py:7: (E006) wrong tuple length for t: expected 2, got 3",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Contains(t, FormatWithCode(tt.err), tt.want)
		})
	}
}

func TestInConstraintUnwraps(t *testing.T) {
	cause := New(AttributeNotFoundError{Attr: "foo", Type: types.Int64, At: ir.Loc{Filename: "prog.py", Line: 2}})
	var err error = New(InConstraint{Cause: cause, At: at})

	var notFound AttributeNotFoundError
	require.True(t, errors.As(err, &notFound))
	assert.Equal(t, "foo", notFound.Attr)
	assert.Equal(t, 2, notFound.Loc().Line)
	assert.Equal(t, 7, err.(Error).Loc().Line)
	assert.Equal(t, AttributeNotFound, err.(Error).Code())
}

func TestInternalErrorUnwraps(t *testing.T) {
	cause := errors.New("boom")
	err := New(InternalError{Cause: cause, Constraint: "propagate x = y", At: at})
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, Internal, err.Code())
	assert.Contains(t, err.Error(), "Internal error at propagate x = y")
}

func TestErrors(t *testing.T) {
	var errs *Errors
	assert.False(t, errs.HasError())
	assert.Nil(t, errs.First())
	assert.Empty(t, errs.Errors())

	first := Typingf(at, "first")
	second := Typingf(at, "second")
	errs = errs.With(first)
	errs = errs.Merge((*Errors)(nil).With(second))
	require.True(t, errs.HasError())
	assert.Len(t, errs.Errors(), 2)
	assert.Equal(t, first, errs.First())
	assert.Same(t, errs, errs.Merge(nil))
}

func TestIsTyping(t *testing.T) {
	assert.True(t, IsTyping(Typingf(at, "x")))
	assert.False(t, IsTyping(New(UnsupportedError{What: "op-code", Node: &ir.Jump{Target: 1}, At: at})))
}
