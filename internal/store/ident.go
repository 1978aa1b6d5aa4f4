package store

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrInvalidRequest marks request validation failures, as opposed to
// database errors. Callers can present these to the model as tool errors.
var ErrInvalidRequest = errors.New("invalid request")

func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidRequest, fmt.Sprintf(format, args...))
}

var (
	identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

	// DDL allow-list: a column type or constraint may only contain safe
	// characters (checked against the upper-cased string).
	columnTypeRe = regexp.MustCompile(`^[A-Z0-9_(),\s]+$`)
)

// quoteIdent validates name against the identifier grammar and returns it
// double-quoted for interpolation into SQL.
func quoteIdent(name string) (string, error) {
	if !identRe.MatchString(name) {
		return "", invalidf("invalid identifier: %q", name)
	}
	return `"` + name + `"`, nil
}

// checkColumnType enforces the DDL allow-list on a column type/constraint.
func checkColumnType(typ string) error {
	if typ == "" || !columnTypeRe.MatchString(strings.ToUpper(typ)) {
		return invalidf("disallowed column type or constraint: %q", typ)
	}
	return nil
}
