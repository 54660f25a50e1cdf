package validate

import "testing"

const goodPassword = "Abcdef1!"

func fieldMessage(errs []FieldError, field string) string {
	for _, e := range errs {
		if e.Field == field {
			return e.Message
		}
	}
	return ""
}

// TestRegistrationAcceptsValidInput verifies that a well-formed registration
// produces no field errors.
func TestRegistrationAcceptsValidInput(t *testing.T) {
	if errs := Registration("alice1", goodPassword, goodPassword); len(errs) != 0 {
		t.Errorf("expected no errors, got %v", errs)
	}
}

// TestRegistrationUsernameRules verifies the username shape rules: required,
// 5-16 characters, alphanumeric plus underscore.
func TestRegistrationUsernameRules(t *testing.T) {
	tests := []struct {
		name     string
		username string
	}{
		{"empty", ""},
		{"too short", "abcd"},
		{"too long", "a_very_long_username"},
		{"illegal character", "alice-1"},
		{"space", "alice 1"},
		{"unicode", "ålice1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := Registration(tt.username, goodPassword, goodPassword)
			if fieldMessage(errs, "username") == "" {
				t.Errorf("username %q: expected a username error, got %v", tt.username, errs)
			}
		})
	}
}

// TestRegistrationPasswordRules verifies length bounds and the four required
// character classes.
func TestRegistrationPasswordRules(t *testing.T) {
	tests := []struct {
		name     string
		password string
	}{
		{"empty", ""},
		{"too short", "Ab1!xyz"},
		{"too long", "Abcdefghij1!Abcdefghij1!Abcdefghij1!"},
		{"no digit", "Abcdefg!"},
		{"no lowercase", "ABCDEF1!"},
		{"no uppercase", "abcdef1!"},
		{"no symbol", "Abcdefg1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := Registration("alice1", tt.password, tt.password)
			if fieldMessage(errs, "password") == "" {
				t.Errorf("password %q: expected a password error, got %v", tt.password, errs)
			}
		})
	}
}

// TestRegistrationConfirmPassword verifies that confirmPassword is required
// and must match the password.
func TestRegistrationConfirmPassword(t *testing.T) {
	if errs := Registration("alice1", goodPassword, ""); fieldMessage(errs, "confirmPassword") != "Required" {
		t.Errorf("expected Required confirmPassword error, got %v", errs)
	}
	if errs := Registration("alice1", goodPassword, "Different1!"); fieldMessage(errs, "confirmPassword") != "Passwords do not match" {
		t.Errorf("expected mismatch error, got %v", errs)
	}
}

// TestRegistrationReportsAllInvalidFields verifies that every invalid field
// is reported, not just the first.
func TestRegistrationReportsAllInvalidFields(t *testing.T) {
	errs := Registration("", "", "")
	for _, field := range []string{"username", "password", "confirmPassword"} {
		if fieldMessage(errs, field) == "" {
			t.Errorf("expected an error for field %q, got %v", field, errs)
		}
	}
}

// TestLoginShape verifies the lighter login-time check: same shape rules,
// boolean result.
func TestLoginShape(t *testing.T) {
	tests := []struct {
		name     string
		username string
		password string
		want     bool
	}{
		{"valid", "alice1", goodPassword, true},
		{"empty username", "", goodPassword, false},
		{"short username", "al", goodPassword, false},
		{"empty password", "alice1", "", false},
		{"weak password", "alice1", "password", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Login(tt.username, tt.password); got != tt.want {
				t.Errorf("Login(%q, %q) = %v, want %v", tt.username, tt.password, got, tt.want)
			}
		})
	}
}
