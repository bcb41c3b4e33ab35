package typeinfer

import (
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/cottand/typeinfer/tierr"
	"github.com/pkg/errors"
)

// ConstraintNetwork holds the constraints of a function in the order they were built
type ConstraintNetwork struct {
	constraints []Constraint
	logger      *slog.Logger
}

func newConstraintNetwork(logger *slog.Logger) *ConstraintNetwork {
	return &ConstraintNetwork{logger: logger.With("section", "typeinfer-constraint")}
}

func (n *ConstraintNetwork) Append(c Constraint) {
	n.constraints = append(n.constraints, c)
}

func (n *ConstraintNetwork) Len() int { return len(n.constraints) }

// Propagate applies every constraint once, in order, and returns the errors they raised.
// A failing constraint does not stop the others from being applied
func (n *ConstraintNetwork) Propagate(ti *TypeInferer) []tierr.Error {
	var errs []tierr.Error
	for _, c := range n.constraints {
		if err := n.apply(ti, c); err != nil {
			n.logger.Debug("captured error", "constraint", c.String(), "err", tierr.FormatWithCode(err))
			errs = append(errs, err)
		}
	}
	return errs
}

func (n *ConstraintNetwork) apply(ti *TypeInferer, c Constraint) (captured tierr.Error) {
	defer func() {
		if r := recover(); r != nil {
			captured = tierr.New(tierr.InternalError{
				Cause:      errors.Errorf("panic: %v", r),
				Constraint: c.String(),
				Trace:      string(debug.Stack()),
				At:         c.Loc(),
			})
		}
	}()
	err := c.Apply(ti)
	if err == nil {
		return nil
	}
	var typingErr tierr.Error
	if errors.As(err, &typingErr) {
		return tierr.New(tierr.InConstraint{Cause: typingErr, At: c.Loc()})
	}
	return tierr.New(tierr.InternalError{
		Cause:      err,
		Constraint: c.String(),
		Trace:      fmt.Sprintf("%+v", err),
		At:         c.Loc(),
	})
}
