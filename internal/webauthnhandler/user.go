package webauthnhandler

import (
	"crypto/rand"
	"fmt"

	"github.com/go-webauthn/webauthn/webauthn"
)

type sessionKey string

const (
	webAuthnSessionKey sessionKey = "webauthn_session"
	userIDSessionKey   sessionKey = "webauthn_user_id"
)

// webAuthnIDLength follows the recommendation of 64 random bytes for the user handle.
const webAuthnIDLength = 64

// user implements webauthn.User.
type user struct {
	id          []byte
	displayName string
	credentials []webauthn.Credential
}

func (u *user) WebAuthnID() []byte {
	return u.id
}

func (u *user) WebAuthnName() string {
	return u.displayName
}

func (u *user) WebAuthnDisplayName() string {
	return u.displayName
}

func (u *user) WebAuthnCredentials() []webauthn.Credential {
	return u.credentials
}

// newRandomUser creates an anonymous user. Passkeys are discoverable so no username is needed.
func newRandomUser() (*user, error) {
	id := make([]byte, webAuthnIDLength)
	if _, err := rand.Read(id); err != nil {
		return nil, fmt.Errorf("read random user id: %w", err)
	}
	return &user{
		id:          id,
		displayName: "GymPal athlete " + rand.Text()[:6],
		credentials: nil,
	}, nil
}
