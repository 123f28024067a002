package user_test

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/campusconnect/core/user"
	"github.com/trezcool/campusconnect/tests"
)

func TestResetUserPassword_Validate(t *testing.T) {
	validate, translator := testutil.NewValidator()

	tests := []struct {
		name    string
		pwd     string
		confirm string
		wantMsg string
	}{
		{name: "too short", pwd: "ab1", wantMsg: "password must contain at least 8 characters"},
		{name: "whitespace", pwd: "abc 12345", wantMsg: "password must not contain whitespace"},
		{name: "numeric", pwd: "12345678", wantMsg: "password cannot be entirely numeric"},
		{name: "no digit", pwd: "abcdefgh", wantMsg: "password must contain at least 1 letter and 1 digit"},
		{name: "confirm mismatch", pwd: "pwd12345", confirm: "pwd12346"},
		{name: "valid", pwd: "pwd12345"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			confirm := tt.confirm
			if confirm == "" {
				confirm = tt.pwd
			}
			err := user.ResetUserPassword{Token: "t", UID: "u", Password: tt.pwd, PasswordConfirm: confirm}.Validate(validate)
			if tt.name == "valid" {
				assert.NoError(t, err)
				return
			}
			vErrs, ok := err.(validator.ValidationErrors)
			require.True(t, ok, "got %v", err)
			if tt.wantMsg != "" {
				assert.Equal(t, tt.wantMsg, vErrs[0].Translate(translator))
			}
		})
	}
}

func TestNewUser_Validate(t *testing.T) {
	validate, translator := testutil.NewValidator()
	svc := user.NewService(nil, nil, nil)

	t.Run("similar to attributes", func(t *testing.T) {
		nu := user.NewUser{Name: "Alice", Email: "alice@test.cd", Password: "alice123", Role: "student"}
		err := nu.Validate(validate, svc)
		vErrs, ok := err.(validator.ValidationErrors)
		require.True(t, ok, "got %v", err)
		assert.Equal(t, "password cannot be similar to user attributes", vErrs[0].Translate(translator))
	})

	t.Run("invalid role", func(t *testing.T) {
		nu := user.NewUser{Name: "Bob", Email: "bob@test.cd", Password: "xk9!plmq2", Role: "admin"}
		err := nu.Validate(validate, svc)
		vErrs, ok := err.(validator.ValidationErrors)
		require.True(t, ok, "got %v", err)
		assert.Equal(t, "role", vErrs[0].Field())
		assert.Equal(t, "must be one of: student, clubowner", vErrs[0].Translate(translator))
	})

	t.Run("cleaned", func(t *testing.T) {
		nu := user.NewUser{Name: "  ", Email: " BOB@Test.cd ", Password: "xk9!plmq2", Role: " Student "}
		err := nu.Validate(validate, svc)
		vErrs, ok := err.(validator.ValidationErrors)
		require.True(t, ok, "got %v", err)
		require.Len(t, vErrs, 1)
		assert.Equal(t, "name", vErrs[0].Field())
		assert.Equal(t, "bob@test.cd", nu.Email)
		assert.Equal(t, "student", nu.Role)
	})
}
