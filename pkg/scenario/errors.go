package scenario

import "errors"

// Validation and evaluation errors. Parse wraps these with the offending
// name so callers can both match with errors.Is and print a useful message.
var (
	// ErrDuplicateName indicates two declarations share a name.
	ErrDuplicateName = errors.New("duplicate name")

	// ErrUnknownName indicates a reference to a name that is not declared
	// earlier in the file.
	ErrUnknownName = errors.New("unknown name")

	// ErrUnknownOp indicates a node declared with an unsupported operation.
	ErrUnknownOp = errors.New("unknown op")

	// ErrArity indicates an operation given the wrong number or kind of
	// inputs.
	ErrArity = errors.New("bad inputs for op")

	// ErrDivideByZero is returned by evaluation when a div node's divisor
	// is zero.
	ErrDivideByZero = errors.New("divide by zero")

	// ErrSelectOutOfRange is returned by evaluation when a select node's
	// selector does not index one of its branches.
	ErrSelectOutOfRange = errors.New("selector out of range")
)
