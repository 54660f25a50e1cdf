// Package validate implements the credential shape rules enforced before any
// credential reaches hashing or storage. All checks are pure functions.
package validate

import "regexp"

const (
	usernameMinLen = 5
	usernameMaxLen = 16
	passwordMinLen = 8
	passwordMaxLen = 32
)

var (
	usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_]+$`)
	digitPattern    = regexp.MustCompile(`\d`)
	lowerPattern    = regexp.MustCompile(`[a-z]`)
	upperPattern    = regexp.MustCompile(`[A-Z]`)
	symbolPattern   = regexp.MustCompile(`[!@#$%^&*(),.?":{}|<>]`)
)

const complexityMessage = "Password must include a number, a lowercase letter, an uppercase letter and a special character"

// FieldError describes a single invalid input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Registration checks a registration request and returns one error per
// invalid field. An empty slice means the input is acceptable.
func Registration(username, password, confirmPassword string) []FieldError {
	var errs []FieldError

	if msg := usernameError(username); msg != "" {
		errs = append(errs, FieldError{Field: "username", Message: msg})
	}
	if msg := passwordError(password); msg != "" {
		errs = append(errs, FieldError{Field: "password", Message: msg})
	}

	switch {
	case confirmPassword == "":
		errs = append(errs, FieldError{Field: "confirmPassword", Message: "Required"})
	case confirmPassword != password:
		errs = append(errs, FieldError{Field: "confirmPassword", Message: "Passwords do not match"})
	}

	return errs
}

// Login checks that submitted credentials have the shape of credentials that
// could ever have been registered. Callers treat any failure as an
// authentication failure rather than reporting fields back.
func Login(username, password string) bool {
	return usernameError(username) == "" && passwordError(password) == ""
}

func usernameError(username string) string {
	if username == "" {
		return "Required"
	}
	if len(username) < usernameMinLen || len(username) > usernameMaxLen {
		return "Username must have 5-16 characters"
	}
	if !usernamePattern.MatchString(username) {
		return "Username may only contain letters, numbers and underscores"
	}
	return ""
}

func passwordError(password string) string {
	if password == "" {
		return "Required"
	}
	if len(password) < passwordMinLen || len(password) > passwordMaxLen {
		return "Password must have 8-32 characters"
	}
	if !digitPattern.MatchString(password) ||
		!lowerPattern.MatchString(password) ||
		!upperPattern.MatchString(password) ||
		!symbolPattern.MatchString(password) {
		return complexityMessage
	}
	return ""
}
