package validation

import (
	"strings"
	"testing"
)

func TestValidateEmail(t *testing.T) {
	tests := []struct {
		name    string
		email   string
		wantErr bool
	}{
		{"valid email", "pat@example.com", false},
		{"valid with plus", "pat+meds@example.com", false},
		{"surrounding whitespace", "  pat@example.com  ", false},
		{"empty", "", true},
		{"missing domain", "pat@", true},
		{"missing at sign", "pat.example.com", true},
		{"missing tld", "pat@example", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateEmail(tt.email)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateEmail(%q) error = %v, wantErr %v", tt.email, err, tt.wantErr)
			}
		})
	}
}

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantErr  bool
	}{
		{"valid password", "supersecret", false},
		{"exactly eight characters", "12345678", false},
		{"empty", "", true},
		{"too short", "short", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePassword(tt.password)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePassword(%q) error = %v, wantErr %v", tt.password, err, tt.wantErr)
			}
		})
	}
}

func TestValidateName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid name", "Pat Smith", false},
		{"empty", "", true},
		{"whitespace only", "   ", true},
		{"single character", "P", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateName(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateName(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestNormalizeInviteCode(t *testing.T) {
	tests := []struct {
		name    string
		code    string
		want    string
		wantErr bool
	}{
		{"already normalized", "ABC123", "ABC123", false},
		{"lowercase is uppercased", "abc123", "ABC123", false},
		{"whitespace is trimmed", "  abc123  ", "ABC123", false},
		{"max length allowed", strings.Repeat("A", MaxInviteCodeLength), strings.Repeat("A", MaxInviteCodeLength), false},
		{"empty", "", "", true},
		{"whitespace only", "   ", "", true},
		{"too long", strings.Repeat("A", MaxInviteCodeLength+1), "", true},
		{"embedded space", "ABC 123", "", true},
		{"punctuation", "ABC-123", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeInviteCode(tt.code)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NormalizeInviteCode(%q) error = %v, wantErr %v", tt.code, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("NormalizeInviteCode(%q) = %q, want %q", tt.code, got, tt.want)
			}
		})
	}
}

func TestValidationErrorMessage(t *testing.T) {
	err := ValidationError{Field: "email", Message: "email is required"}
	if err.Error() != "email: email is required" {
		t.Errorf("Error() = %q", err.Error())
	}
}
