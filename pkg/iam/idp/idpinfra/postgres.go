package idpinfra

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/Abraxas-365/flavormind/pkg/iam/idp"
	"github.com/Abraxas-365/flavormind/pkg/kernel"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// PostgresIdentityStore keeps identities in the identities table.
type PostgresIdentityStore struct {
	db *sqlx.DB
}

func NewPostgresIdentityStore(db *sqlx.DB) *PostgresIdentityStore {
	return &PostgresIdentityStore{db: db}
}

const identityColumns = `uid, email, phone_number, password_hash, display_name, photo_url, email_verified, created_at`

func (s *PostgresIdentityStore) Insert(ctx context.Context, identity *Identity) error {
	query := `
		INSERT INTO identities (` + identityColumns + `)
		VALUES (:uid, :email, :phone_number, :password_hash, :display_name, :photo_url, :email_verified, :created_at)`

	_, err := s.db.NamedExecContext(ctx, query, toIdentityRow(identity))
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" { // unique_violation
			if strings.Contains(pqErr.Constraint, "phone") {
				return idp.Fail(idp.CodePhoneExists, "insert", err)
			}
			return idp.Fail(idp.CodeEmailExists, "insert", err)
		}
		return idp.Fail(idp.CodeInternal, "insert", err)
	}
	return nil
}

func (s *PostgresIdentityStore) FindByID(ctx context.Context, uid kernel.AccountID) (*Identity, error) {
	return s.findOne(ctx, "find_by_id", `SELECT `+identityColumns+` FROM identities WHERE uid = $1`, uid.String())
}

func (s *PostgresIdentityStore) FindByEmail(ctx context.Context, email string) (*Identity, error) {
	return s.findOne(ctx, "find_by_email", `SELECT `+identityColumns+` FROM identities WHERE email = $1`, strings.ToLower(email))
}

func (s *PostgresIdentityStore) FindByPhone(ctx context.Context, phone kernel.PhoneNumber) (*Identity, error) {
	return s.findOne(ctx, "find_by_phone", `SELECT `+identityColumns+` FROM identities WHERE phone_number = $1`, phone.String())
}

func (s *PostgresIdentityStore) Delete(ctx context.Context, uid kernel.AccountID) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM identities WHERE uid = $1`, uid.String()); err != nil {
		return idp.Fail(idp.CodeInternal, "delete", err)
	}
	return nil
}

func (s *PostgresIdentityStore) findOne(ctx context.Context, op, query string, arg interface{}) (*Identity, error) {
	var row identityRow
	if err := s.db.GetContext(ctx, &row, query, arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, idp.Fail(idp.CodeUserNotFound, op, nil)
		}
		return nil, idp.Fail(idp.CodeInternal, op, err)
	}
	return row.toDomain(), nil
}

type identityRow struct {
	UID           string         `db:"uid"`
	Email         sql.NullString `db:"email"`
	PhoneNumber   sql.NullString `db:"phone_number"`
	PasswordHash  sql.NullString `db:"password_hash"`
	DisplayName   sql.NullString `db:"display_name"`
	PhotoURL      sql.NullString `db:"photo_url"`
	EmailVerified bool           `db:"email_verified"`
	CreatedAt     time.Time      `db:"created_at"`
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func toIdentityRow(i *Identity) identityRow {
	return identityRow{
		UID:           i.UID.String(),
		Email:         nullable(i.Email),
		PhoneNumber:   nullable(i.PhoneNumber),
		PasswordHash:  nullable(i.PasswordHash),
		DisplayName:   nullable(i.DisplayName),
		PhotoURL:      nullable(i.PhotoURL),
		EmailVerified: i.EmailVerified,
		CreatedAt:     i.CreatedAt,
	}
}

func (r identityRow) toDomain() *Identity {
	return &Identity{
		User: idp.User{
			UID:           kernel.NewAccountID(r.UID),
			Email:         r.Email.String,
			PhoneNumber:   r.PhoneNumber.String,
			DisplayName:   r.DisplayName.String,
			PhotoURL:      r.PhotoURL.String,
			EmailVerified: r.EmailVerified,
			CreatedAt:     r.CreatedAt,
		},
		PasswordHash: r.PasswordHash.String,
	}
}
