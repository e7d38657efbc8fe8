// Package validation holds pure validators for external input. Each validator
// returns a tagged Result instead of an error so callers can branch without
// unwrapping, and the Sanitized value is the only form safe to persist or
// echo back. Sanitization is idempotent: re-validating a sanitized value
// yields the same output.
package validation

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/google/uuid"
)

// Result is the outcome of a single-field validation.
type Result struct {
	Valid     bool
	Sanitized string
	Error     string
}

func ok(sanitized string) Result { return Result{Valid: true, Sanitized: sanitized} }
func invalid(msg string) Result  { return Result{Error: msg} }

const (
	maxEmailLength    = 255
	minPasswordLength = 8
	maxPasswordLength = 128
	minNameLength     = 2
	maxNameLength     = 100
)

var emailPattern = regexp.MustCompile(`^[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,}$`)

// Email trims, lowercases and shape-checks an address. The allowed character
// set contains nothing that needs HTML escaping, so the sanitized value is
// safe to echo as-is.
func Email(raw string) Result {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		return invalid("Email is required")
	}
	if len(s) > maxEmailLength {
		return invalid("Email must be at most 255 characters")
	}
	if !emailPattern.MatchString(s) {
		return invalid("Email format is invalid")
	}
	return ok(s)
}

// Password checks length and character-class requirements. Passwords are
// never sanitized or transformed; the Sanitized field carries the input
// unchanged so callers have one code path.
func Password(raw string) Result {
	if len(raw) < minPasswordLength {
		return invalid("Password must be at least 8 characters")
	}
	if len(raw) > maxPasswordLength {
		return invalid("Password must be at most 128 characters")
	}
	var upper, lower, digit, symbol bool
	for _, r := range raw {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		default:
			symbol = true
		}
	}
	switch {
	case !upper:
		return invalid("Password must contain an uppercase letter")
	case !lower:
		return invalid("Password must contain a lowercase letter")
	case !digit:
		return invalid("Password must contain a digit")
	case !symbol:
		return invalid("Password must contain a symbol")
	}
	return ok(raw)
}

// Name trims and restricts a display name to letters, spaces, hyphens,
// apostrophes and periods. Runs of whitespace collapse to one space so
// sanitization converges after a single pass.
func Name(raw string) Result {
	s := strings.Join(strings.Fields(strings.TrimSpace(raw)), " ")
	if s == "" {
		return invalid("Name is required")
	}
	if len(s) < minNameLength {
		return invalid("Name must be at least 2 characters")
	}
	if len(s) > maxNameLength {
		return invalid("Name must be at most 100 characters")
	}
	for _, r := range s {
		if unicode.IsLetter(r) || r == ' ' || r == '-' || r == '\'' || r == '.' {
			continue
		}
		return invalid("Name may only contain letters, spaces, hyphens, apostrophes and periods")
	}
	return ok(s)
}

// Sri Lankan mobile numbers: local 0XXXXXXXXX or international +94XXXXXXXXX.
var phonePattern = regexp.MustCompile(`^(?:0\d{9}|\+94\d{9})$`)

// Phone validates a regional mobile number, ignoring separator characters.
func Phone(raw string) Result {
	s := strings.TrimSpace(raw)
	s = strings.NewReplacer(" ", "", "-", "", "(", "", ")", "").Replace(s)
	if s == "" {
		return invalid("Phone number is required")
	}
	if !phonePattern.MatchString(s) {
		return invalid("Phone number format is invalid")
	}
	return ok(s)
}

// Amount parses a monetary amount and enforces bounds and precision.
// Values with more than two decimal places are rejected rather than rounded.
func Amount(raw string, min, max float64) (float64, Result) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, invalid("Amount is required")
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, invalid("Amount must be a number")
	}
	if dot := strings.IndexByte(s, '.'); dot >= 0 && len(s)-dot-1 > 2 {
		return 0, invalid("Amount must have at most 2 decimal places")
	}
	if v < min {
		return 0, invalid(fmt.Sprintf("Amount must be at least %.2f", min))
	}
	if v > max {
		return 0, invalid(fmt.Sprintf("Amount must be at most %.2f", max))
	}
	return v, ok(s)
}

// ID checks that a string is a well-formed UUID. The sanitized form is the
// canonical lowercase rendering.
func ID(raw string) Result {
	u, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return invalid("Identifier must be a valid UUID")
	}
	return ok(u.String())
}
