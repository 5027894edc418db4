package errs

// ErrorKind identifies a kind of internal error.
// fully support for errors.Is and errors.As.
type ErrorKind string

const (
	// NotFound is returned when a requested item is not found.
	NotFound = ErrorKind("Not Found")

	// InvalidArgument is returned when a caller supplies a malformed or out of range value.
	InvalidArgument = ErrorKind("Invalid Argument")

	// Unauthorized is returned when the caller does not hold the role an operation requires.
	Unauthorized = ErrorKind("Unauthorized")

	// Unsupported is returned when an operation or option is not supported.
	Unsupported = ErrorKind("Unsupported")

	// ConflictSetting is returned when the current state does not allow the operation.
	ConflictSetting = ErrorKind("Conflict Setting")

	OverflowUint64  = ErrorKind("overflow uint64")
	OverflowUint256 = ErrorKind("overflow uint256")
)

// Error satisfies the error interface and prints human-readable errors.
func (e ErrorKind) Error() string {
	return string(e)
}
