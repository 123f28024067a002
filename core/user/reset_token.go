package user

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/trezcool/campusconnect/core"
)

const resetSalt = "campusconnect.core.user.reset_token"

var (
	NowFunc = time.Now // mockable

	// errors
	errInvalidToken = errors.New("invalid token")
	errTokenExpired = errors.New("token expired")
)

// ResetLink holds the query parameters of a password reset link.
type ResetLink struct {
	UID   string
	Token string
}

// resetTokens signs password reset links with the app's secret key.
//
// A token reads "{expiry}.{signature}", expiry being a base36 unix time. The signature covers
// the user's ID, password hash and last login, so changing the password or logging in
// voids every link sent before.
type resetTokens struct {
	key     [sha256.Size]byte
	timeout time.Duration
}

func newResetTokens(conf *core.Config) resetTokens {
	return resetTokens{
		key:     sha256.Sum256(append([]byte(resetSalt), conf.SecretKey...)),
		timeout: conf.PasswordResetTimeoutDelta,
	}
}

// Link returns a reset link for usr, valid until the reset timeout elapses.
func (rt resetTokens) Link(usr User) ResetLink {
	exp := strconv.FormatInt(NowFunc().Add(rt.timeout).Unix(), 36)
	return ResetLink{
		UID:   base64.RawURLEncoding.EncodeToString([]byte(usr.ID)),
		Token: exp + "." + base64.RawURLEncoding.EncodeToString(rt.sign(usr, exp)),
	}
}

// Check verifies that token was issued for usr and has not expired.
func (rt resetTokens) Check(usr User, token string) error {
	parts := strings.Split(token, ".")
	if len(parts) != 2 {
		return errInvalidToken
	}
	expiry, err := strconv.ParseInt(parts[0], 36, 64)
	if err != nil {
		return errInvalidToken
	}
	sig, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil || !hmac.Equal(sig, rt.sign(usr, parts[0])) {
		return errInvalidToken
	}
	if NowFunc().Unix() > expiry {
		return errTokenExpired
	}
	return nil
}

func (rt resetTokens) sign(usr User, exp string) []byte {
	h := hmac.New(sha256.New, rt.key[:])
	for _, part := range [][]byte{
		[]byte(usr.ID),
		usr.PasswordHash,
		[]byte(lastLoginStamp(usr)),
		[]byte(exp),
	} {
		_, _ = h.Write(part)
		_, _ = h.Write([]byte{0})
	}
	return h.Sum(nil)
}

func lastLoginStamp(usr User) string {
	if usr.LastLogin.IsZero() {
		return ""
	}
	return usr.LastLogin.UTC().Format(time.RFC3339)
}

// parseUID returns the user ID encoded in a reset link.
func parseUID(uid string) (string, error) {
	id, err := base64.RawURLEncoding.DecodeString(uid)
	if err != nil || len(id) == 0 {
		return "", errInvalidToken
	}
	return string(id), nil
}
