package symbolic

import "errors"

var (
	// ErrParse is wrapped by every *ParseError.
	ErrParse = errors.New("parse error")
	// ErrUndefined reports a zero denominator or another undefined form.
	ErrUndefined = errors.New("undefined expression")
	// ErrNoClosedForm reports an integral outside the rule set.
	ErrNoClosedForm = errors.New("no closed-form antiderivative")
	// ErrDivisionByZero is returned by Engine.Quo for a divisor that
	// simplifies to zero.
	ErrDivisionByZero = errors.New("division by zero")
)
