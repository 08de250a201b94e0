package webauthnhandler

import (
	"context"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/go-webauthn/webauthn/webauthn"
	"github.com/myrjola/gympal/internal/errors"
)

func (h *WebAuthnHandler) upsertUser(ctx context.Context, u webauthn.User) error {
	const stmt = `INSERT INTO users (webauthn_id, display_name)
VALUES (:webauthn_id, :display_name)
ON CONFLICT (webauthn_id) DO UPDATE SET display_name = :display_name`
	if _, err := h.database.ReadWrite.ExecContext(ctx, stmt,
		sql.Named("webauthn_id", u.WebAuthnID()),
		sql.Named("display_name", u.WebAuthnDisplayName())); err != nil {
		return errors.Wrap(err, "upsert user", slog.String("webauthn_id", hex.EncodeToString(u.WebAuthnID())))
	}
	return nil
}

// getUser loads the user with their passkeys.
func (h *WebAuthnHandler) getUser(ctx context.Context, webAuthnID []byte) (_ *user, err error) {
	u := &user{id: nil, displayName: "", credentials: nil}
	if err = h.database.ReadOnly.QueryRowContext(ctx,
		`SELECT webauthn_id, display_name FROM users WHERE webauthn_id = ?`, webAuthnID).
		Scan(&u.id, &u.displayName); err != nil {
		return nil, errors.Wrap(err, "read user", slog.String("webauthn_id", hex.EncodeToString(webAuthnID)))
	}

	rows, err := h.database.ReadOnly.QueryContext(ctx, `SELECT id, public_key, attestation_type, transport,
       flag_user_present, flag_user_verified, flag_backup_eligible, flag_backup_state,
       authenticator_aaguid, authenticator_sign_count, authenticator_clone_warning, authenticator_attachment
FROM credentials
WHERE user_id = (SELECT id FROM users WHERE webauthn_id = ?)
ORDER BY created`, webAuthnID)
	if err != nil {
		return nil, fmt.Errorf("query credentials: %w", err)
	}
	defer func() { err = errors.Join(err, rows.Close()) }()

	for rows.Next() {
		var (
			c         webauthn.Credential
			transport []byte
		)
		if err = rows.Scan(&c.ID, &c.PublicKey, &c.AttestationType, &transport,
			&c.Flags.UserPresent, &c.Flags.UserVerified, &c.Flags.BackupEligible, &c.Flags.BackupState,
			&c.Authenticator.AAGUID, &c.Authenticator.SignCount, &c.Authenticator.CloneWarning,
			&c.Authenticator.Attachment); err != nil {
			return nil, fmt.Errorf("scan credential: %w", err)
		}
		if err = json.Unmarshal(transport, &c.Transport); err != nil {
			return nil, fmt.Errorf("decode transport: %w", err)
		}
		u.credentials = append(u.credentials, c)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate credentials: %w", err)
	}
	return u, nil
}

// upsertCredential stores a new passkey or refreshes the flags and sign count of a known one.
func (h *WebAuthnHandler) upsertCredential(ctx context.Context, webAuthnID []byte, c *webauthn.Credential) error {
	const stmt = `INSERT INTO credentials (id, user_id, public_key, attestation_type, transport,
                         flag_user_present, flag_user_verified, flag_backup_eligible, flag_backup_state,
                         authenticator_aaguid, authenticator_sign_count, authenticator_clone_warning,
                         authenticator_attachment)
VALUES (?, (SELECT id FROM users WHERE webauthn_id = ?), ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (id) DO UPDATE SET attestation_type            = excluded.attestation_type,
                               transport                   = excluded.transport,
                               flag_user_present           = excluded.flag_user_present,
                               flag_user_verified          = excluded.flag_user_verified,
                               flag_backup_eligible        = excluded.flag_backup_eligible,
                               flag_backup_state           = excluded.flag_backup_state,
                               authenticator_aaguid        = excluded.authenticator_aaguid,
                               authenticator_sign_count    = excluded.authenticator_sign_count,
                               authenticator_clone_warning = excluded.authenticator_clone_warning,
                               authenticator_attachment    = excluded.authenticator_attachment`
	transport, err := json.Marshal(c.Transport)
	if err != nil {
		return fmt.Errorf("encode transport: %w", err)
	}
	if _, err = h.database.ReadWrite.ExecContext(ctx, stmt,
		c.ID, webAuthnID, c.PublicKey, c.AttestationType, string(transport),
		c.Flags.UserPresent, c.Flags.UserVerified, c.Flags.BackupEligible, c.Flags.BackupState,
		c.Authenticator.AAGUID, c.Authenticator.SignCount, c.Authenticator.CloneWarning,
		c.Authenticator.Attachment,
	); err != nil {
		return errors.Wrap(err, "upsert credential",
			slog.String("webauthn_id", hex.EncodeToString(webAuthnID)),
			slog.String("credential_id", hex.EncodeToString(c.ID)))
	}
	return nil
}

// lookupUserID returns the row id of the user, or an error wrapping sql.ErrNoRows when the user is gone.
func (h *WebAuthnHandler) lookupUserID(ctx context.Context, webAuthnID []byte) (int, error) {
	var id int
	if err := h.database.ReadOnly.QueryRowContext(ctx,
		`SELECT id FROM users WHERE webauthn_id = ?`, webAuthnID).Scan(&id); err != nil {
		return 0, fmt.Errorf("query user id: %w", err)
	}
	return id, nil
}

// deleteUser removes the user. Credentials, the training document and coach history follow through ON DELETE
// CASCADE.
func (h *WebAuthnHandler) deleteUser(ctx context.Context, webAuthnID []byte) error {
	res, err := h.database.ReadWrite.ExecContext(ctx, `DELETE FROM users WHERE webauthn_id = ?`, webAuthnID)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errors.Wrap(sql.ErrNoRows, "delete user", slog.String("webauthn_id", hex.EncodeToString(webAuthnID)))
	}
	return nil
}
