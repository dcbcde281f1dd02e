package security

import (
	"errors"
	"testing"
)

func TestDefaultPasswordValidator(t *testing.T) {
	validator := DefaultPasswordValidator()

	cases := []struct {
		name     string
		password string
		code     string
	}{
		{name: "too short", password: "Ab1", code: "min_length"},
		{name: "no digit", password: "NoDigitsHere!", code: "digit"},
		{name: "weak common password", password: "password1", code: "weak_password"},
		{name: "strong password", password: "X9#mKp2$vQwr", code: ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := validator.Validate(tc.password)
			if tc.code == "" {
				if err != nil {
					t.Fatalf("err = %v, want nil", err)
				}
				return
			}

			var violation *PasswordValidationError
			if !errors.As(err, &violation) {
				t.Fatalf("err = %v, want PasswordValidationError", err)
			}
			if violation.Code != tc.code {
				t.Fatalf("code = %s, want %s", violation.Code, tc.code)
			}
		})
	}
}

func TestValidatorPenalizesUserInputs(t *testing.T) {
	// A password built from the username scores lower with the username
	// supplied as context.
	withContext := DefaultPasswordValidator("budisantoso")
	if err := withContext.Validate("budisantoso1"); err == nil {
		t.Fatal("password derived from the username should be rejected")
	}
}
