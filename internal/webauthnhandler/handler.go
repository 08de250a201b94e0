// Package webauthnhandler signs users in with discoverable passkeys. The signed-in user is kept in the scs session
// and exposed to handlers through contexthelpers.
package webauthnhandler

import (
	"context"
	"encoding/gob"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/go-webauthn/webauthn/protocol"
	"github.com/go-webauthn/webauthn/webauthn"
	"github.com/myrjola/gympal/internal/errors"
	"github.com/myrjola/gympal/internal/sqlite"
)

const ceremonyTimeout = 5 * time.Minute

var errNotSignedIn = errors.NewSentinel("no signed-in user")

//nolint:gochecknoglobals // scs stores session values with gob, which needs the type registered once.
var registerSessionData sync.Once

type WebAuthnHandler struct {
	logger         *slog.Logger
	webAuthn       *webauthn.WebAuthn
	sessionManager *scs.SessionManager
	database       *sqlite.Database
}

// New configures the relying party for fqdn. On localhost the origin is the plain HTTP listen address.
func New(
	addr string,
	fqdn string,
	logger *slog.Logger,
	sessionManager *scs.SessionManager,
	db *sqlite.Database,
) (*WebAuthnHandler, error) {
	registerSessionData.Do(func() {
		gob.Register(webauthn.SessionData{}) //nolint:exhaustruct // only the type matters.
	})

	webAuthn, err := webauthn.New(relyingPartyConfig(addr, fqdn))
	if err != nil {
		return nil, errors.Wrap(err, "new webauthn", slog.String("fqdn", fqdn))
	}
	return &WebAuthnHandler{
		logger:         logger,
		webAuthn:       webAuthn,
		sessionManager: sessionManager,
		database:       db,
	}, nil
}

func relyingPartyConfig(addr string, fqdn string) *webauthn.Config {
	origin := "https://" + fqdn
	if fqdn == "localhost" {
		origin = "http://" + addr
	}
	enforced := webauthn.TimeoutConfig{Enforce: true, Timeout: ceremonyTimeout, TimeoutUVD: ceremonyTimeout}
	return &webauthn.Config{
		RPID:                        fqdn,
		RPDisplayName:               "GymPal",
		RPOrigins:                   []string{origin},
		RPTopOrigins:                nil,
		RPTopOriginVerificationMode: protocol.TopOriginIgnoreVerificationMode,
		AttestationPreference:       protocol.PreferNoAttestation,
		AuthenticatorSelection: protocol.AuthenticatorSelection{
			AuthenticatorAttachment: protocol.Platform,
			RequireResidentKey:      new(true),
			ResidentKey:             protocol.ResidentKeyRequirementRequired,
			UserVerification:        protocol.VerificationDiscouraged,
		},
		Debug:                false,
		EncodeUserIDAsString: false,
		Timeouts:             webauthn.TimeoutsConfig{Login: enforced, Registration: enforced},
		MDS:                  nil,
	}
}

// BeginRegistration creates an anonymous user and returns the JSON credential creation options for the browser.
func (h *WebAuthnHandler) BeginRegistration(ctx context.Context) ([]byte, error) {
	u, err := newRandomUser()
	if err != nil {
		return nil, err
	}

	opts, session, err := h.webAuthn.BeginRegistration(u,
		webauthn.WithAuthenticatorSelection(protocol.AuthenticatorSelection{
			AuthenticatorAttachment: protocol.Platform,
			RequireResidentKey:      protocol.ResidentKeyNotRequired(),
			ResidentKey:             protocol.ResidentKeyRequirementRequired,
			UserVerification:        protocol.VerificationDiscouraged,
		}),
		webauthn.WithResidentKeyRequirement(protocol.ResidentKeyRequirementRequired))
	if err != nil {
		return nil, fmt.Errorf("begin registration: %w", err)
	}
	h.sessionManager.Put(ctx, string(webAuthnSessionKey), *session)
	if err = h.upsertUser(ctx, u); err != nil {
		return nil, err
	}
	return marshalOptions(opts)
}

// FinishRegistration stores the new passkey and signs the user in.
func (h *WebAuthnHandler) FinishRegistration(r *http.Request) error {
	ctx := r.Context()
	session, err := h.ceremonySession(ctx)
	if err != nil {
		return err
	}
	u, err := h.getUser(ctx, session.UserID)
	if err != nil {
		return err
	}
	credential, err := h.webAuthn.FinishRegistration(u, session, r)
	if err != nil {
		return fmt.Errorf("finish webauthn registration: %w", err)
	}
	return h.signIn(ctx, u.WebAuthnID(), credential)
}

// BeginLogin returns the JSON assertion options for a discoverable passkey login.
func (h *WebAuthnHandler) BeginLogin(ctx context.Context) ([]byte, error) {
	opts, session, err := h.webAuthn.BeginDiscoverableLogin()
	if err != nil {
		return nil, fmt.Errorf("begin discoverable login: %w", err)
	}
	h.sessionManager.Put(ctx, string(webAuthnSessionKey), *session)
	return marshalOptions(opts)
}

// FinishLogin validates the passkey assertion and signs its owner in.
func (h *WebAuthnHandler) FinishLogin(r *http.Request) error {
	ctx := r.Context()
	session, err := h.ceremonySession(ctx)
	if err != nil {
		return err
	}
	parsed, err := protocol.ParseCredentialRequestResponse(r)
	if err != nil {
		return fmt.Errorf("parse credential request response: %w", err)
	}
	findUser := func(_, userHandle []byte) (webauthn.User, error) {
		return h.getUser(ctx, userHandle)
	}
	u, credential, err := h.webAuthn.ValidatePasskeyLogin(findUser, session, parsed)
	if err != nil {
		return fmt.Errorf("validate passkey login: %w", err)
	}
	return h.signIn(ctx, u.WebAuthnID(), credential)
}

// signIn saves the credential, which carries an updated sign count after a login, and binds the user to a fresh
// session token.
func (h *WebAuthnHandler) signIn(ctx context.Context, webAuthnID []byte, credential *webauthn.Credential) error {
	if err := h.upsertCredential(ctx, webAuthnID, credential); err != nil {
		return err
	}
	if err := h.sessionManager.RenewToken(ctx); err != nil {
		return fmt.Errorf("renew session token: %w", err)
	}
	h.sessionManager.Remove(ctx, string(webAuthnSessionKey))
	h.sessionManager.Put(ctx, string(userIDSessionKey), webAuthnID)
	return nil
}

func (h *WebAuthnHandler) ceremonySession(ctx context.Context) (webauthn.SessionData, error) {
	stored := h.sessionManager.Get(ctx, string(webAuthnSessionKey))
	session, ok := stored.(webauthn.SessionData)
	if !ok {
		return webauthn.SessionData{}, fmt.Errorf("no webauthn ceremony in session (found %T)", stored) //nolint:exhaustruct // zero value.
	}
	return session, nil
}

func marshalOptions(opts any) ([]byte, error) {
	out, err := json.Marshal(opts)
	if err != nil {
		return nil, fmt.Errorf("marshal webauthn options: %w", err)
	}
	return out, nil
}

// DeleteUser removes the signed-in user together with their passkeys, training document and coach history, then
// ends the session.
func (h *WebAuthnHandler) DeleteUser(ctx context.Context) error {
	webAuthnID := h.sessionManager.GetBytes(ctx, string(userIDSessionKey))
	if webAuthnID == nil {
		return errNotSignedIn
	}
	if err := h.deleteUser(ctx, webAuthnID); err != nil {
		return err
	}
	h.logger.LogAttrs(ctx, slog.LevelInfo, "deleted user")
	return h.Logout(ctx)
}

// Logout ends the authenticated session.
func (h *WebAuthnHandler) Logout(ctx context.Context) error {
	if err := h.sessionManager.RenewToken(ctx); err != nil {
		return fmt.Errorf("renew session token: %w", err)
	}
	h.sessionManager.Remove(ctx, string(userIDSessionKey))
	return nil
}
