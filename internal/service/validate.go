package service

import (
	"strings"

	"github.com/fitchallenge/fitchallenge-server/internal/validation"
)

// validate is the shared request validator.
var validate = validation.New()

// blank reports whether s is empty once surrounding whitespace is removed.
func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}
