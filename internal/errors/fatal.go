package errors

import (
	"fmt"
)

// fatalError is an error that should be printed to the user, then the program
// should exit with an error code.
type fatalError string

func (e fatalError) Error() string {
	return string(e)
}

// IsFatal returns false if it is unable to find a fatal error in the given
// error chain.
func IsFatal(err error) bool {
	var fatal fatalError
	return As(err, &fatal)
}

// Fatal returns an error that is marked fatal.
func Fatal(s string) error {
	return WithStack(fatalError(s))
}

// Fatalf returns an error that is marked fatal.
func Fatalf(s string, data ...interface{}) error {
	return WithStack(fatalError(fmt.Sprintf(s, data...)))
}
