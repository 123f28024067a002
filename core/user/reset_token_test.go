package user

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/campusconnect/core"
)

func TestResetTokens(t *testing.T) {
	conf := &core.Config{
		SecretKey:                 "secret",
		PasswordResetTimeoutDelta: 3 * 24 * time.Hour,
	}
	tokens := newResetTokens(conf)

	now := time.Now()
	usr := User{
		ID:        "3f0c4a8e-6a0b-4a43-9a57-3b3c1c0b9d11",
		Name:      "T",
		Email:     "t@test.test",
		CreatedAt: now,
		UpdatedAt: now,
		LastLogin: now,
	}
	usr.SetActive(true)
	require.NoError(t, usr.SetPassword("pwd12345"))

	link := tokens.Link(usr)

	// a link issued past the timeout
	NowFunc = func() time.Time { return time.Now().Add(-conf.PasswordResetTimeoutDelta - time.Minute) }
	expired := tokens.Link(usr)
	NowFunc = time.Now // reset

	loggedIn := usr
	loggedIn.LastLogin = now.Add(time.Hour)

	newPwd := usr
	require.NoError(t, newPwd.SetPassword("pwd67890"))

	otherKey := newResetTokens(&core.Config{SecretKey: "other", PasswordResetTimeoutDelta: time.Hour}).Link(usr)

	tests := []struct {
		name    string
		usr     User
		token   string
		wantErr error
	}{
		{name: "no token", usr: usr, wantErr: errInvalidToken},
		{name: "no separator", usr: usr, token: "lmaooolol", wantErr: errInvalidToken},
		{name: "too many parts", usr: usr, token: "abc.def.ghi", wantErr: errInvalidToken},
		{name: "invalid expiry", usr: usr, token: "!!.c2ln", wantErr: errInvalidToken},
		{name: "invalid signature encoding", usr: usr, token: "zzzzzz.%%%", wantErr: errInvalidToken},
		{name: "forged signature", usr: usr, token: "zzzzzz.c2ln", wantErr: errInvalidToken},
		{name: "other secret key", usr: usr, token: otherKey.Token, wantErr: errInvalidToken},
		{name: "expired", usr: usr, token: expired.Token, wantErr: errTokenExpired},
		{name: "logged in since", usr: loggedIn, token: link.Token, wantErr: errInvalidToken},
		{name: "password changed since", usr: newPwd, token: link.Token, wantErr: errInvalidToken},
		{name: "valid", usr: usr, token: link.Token},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantErr, tokens.Check(tt.usr, tt.token))
		})
	}
}

func TestParseUID(t *testing.T) {
	link := newResetTokens(&core.Config{SecretKey: "secret"}).Link(User{ID: "3f0c4a8e-6a0b-4a43-9a57-3b3c1c0b9d11"})

	id, err := parseUID(link.UID)
	require.NoError(t, err)
	assert.Equal(t, "3f0c4a8e-6a0b-4a43-9a57-3b3c1c0b9d11", id)

	for _, uid := range []string{"", "%%%"} {
		_, err = parseUID(uid)
		assert.Equal(t, errInvalidToken, err, uid)
	}
}
