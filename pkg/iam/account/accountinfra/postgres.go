package accountinfra

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/Abraxas-365/flavormind/pkg/iam"
	"github.com/Abraxas-365/flavormind/pkg/iam/account"
	"github.com/Abraxas-365/flavormind/pkg/kernel"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"
	"github.com/lib/pq"
)

// PostgresAccountRepository stores accounts in the accounts table. Unique
// indexes on email and phone_number back the one-account-per-contact rule.
type PostgresAccountRepository struct {
	db *sqlx.DB
}

func NewPostgresAccountRepository(db *sqlx.DB) *PostgresAccountRepository {
	return &PostgresAccountRepository{db: db}
}

const accountColumns = `id, email, phone_number, name, photo_url, provider, profile_complete, role,
	preferences, saved_recipes, cooking_history, created_at, updated_at, last_login`

func (r *PostgresAccountRepository) FindByID(ctx context.Context, id kernel.AccountID) (*account.Account, error) {
	return r.findOne(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id.String())
}

func (r *PostgresAccountRepository) FindByPhone(ctx context.Context, phone kernel.PhoneNumber) (*account.Account, error) {
	return r.findOne(ctx, `SELECT `+accountColumns+` FROM accounts WHERE phone_number = $1`, phone.String())
}

func (r *PostgresAccountRepository) FindByEmail(ctx context.Context, email string) (*account.Account, error) {
	return r.findOne(ctx, `SELECT `+accountColumns+` FROM accounts WHERE email = $1`, strings.ToLower(email))
}

func (r *PostgresAccountRepository) findOne(ctx context.Context, query string, arg interface{}) (*account.Account, error) {
	var row accountRow
	if err := r.db.GetContext(ctx, &row, query, arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, account.ErrAccountNotFound()
		}
		return nil, account.ErrStoreUnavailable(err)
	}
	return row.toDomain()
}

// CreateIfAbsent relies on ON CONFLICT DO NOTHING so two first logins racing
// on the same identity produce one row.
func (r *PostgresAccountRepository) CreateIfAbsent(ctx context.Context, a *account.Account) (bool, error) {
	if err := a.Validate(); err != nil {
		return false, err
	}

	row, err := toRow(a)
	if err != nil {
		return false, err
	}

	query := `
		INSERT INTO accounts (
			id, email, phone_number, name, photo_url, provider, profile_complete, role,
			preferences, saved_recipes, cooking_history, created_at, updated_at, last_login
		) VALUES (
			:id, :email, :phone_number, :name, :photo_url, :provider, :profile_complete, :role,
			:preferences, :saved_recipes, :cooking_history, :created_at, :updated_at, :last_login
		)
		ON CONFLICT DO NOTHING`

	result, err := r.db.NamedExecContext(ctx, query, row)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" { // unique_violation
			return false, nil
		}
		return false, account.ErrStoreUnavailable(err).WithDetail("account_id", a.ID)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, account.ErrStoreUnavailable(err)
	}
	return rowsAffected == 1, nil
}

func (r *PostgresAccountRepository) TouchLastLogin(ctx context.Context, id kernel.AccountID, at time.Time) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE accounts SET last_login = $2, updated_at = $2 WHERE id = $1`, id.String(), at)
	if err != nil {
		return account.ErrStoreUnavailable(err).WithDetail("account_id", id)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return account.ErrStoreUnavailable(err)
	}
	if rowsAffected == 0 {
		return account.ErrAccountNotFound()
	}
	return nil
}

// accountRow maps DB-specific types.
type accountRow struct {
	ID              string         `db:"id"`
	Email           sql.NullString `db:"email"`
	PhoneNumber     sql.NullString `db:"phone_number"`
	Name            string         `db:"name"`
	PhotoURL        sql.NullString `db:"photo_url"`
	Provider        string         `db:"provider"`
	ProfileComplete bool           `db:"profile_complete"`
	Role            string         `db:"role"`
	Preferences     types.JSONText `db:"preferences"`
	SavedRecipes    pq.StringArray `db:"saved_recipes"`
	CookingHistory  types.JSONText `db:"cooking_history"`
	CreatedAt       time.Time      `db:"created_at"`
	UpdatedAt       time.Time      `db:"updated_at"`
	LastLogin       *time.Time     `db:"last_login"`
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func toRow(a *account.Account) (accountRow, error) {
	prefs, err := json.Marshal(a.Preferences)
	if err != nil {
		return accountRow{}, account.ErrInvalidAccount().WithCause(err)
	}
	history, err := json.Marshal(a.CookingHistory)
	if err != nil {
		return accountRow{}, account.ErrInvalidAccount().WithCause(err)
	}

	return accountRow{
		ID:              a.ID.String(),
		Email:           nullable(a.Email),
		PhoneNumber:     nullable(a.PhoneNumber),
		Name:            a.Name,
		PhotoURL:        nullable(a.PhotoURL),
		Provider:        string(a.Provider),
		ProfileComplete: a.ProfileComplete,
		Role:            string(a.Role),
		Preferences:     types.JSONText(prefs),
		SavedRecipes:    pq.StringArray(a.SavedRecipes),
		CookingHistory:  types.JSONText(history),
		CreatedAt:       a.CreatedAt,
		UpdatedAt:       a.UpdatedAt,
		LastLogin:       a.LastLogin,
	}, nil
}

func (p accountRow) toDomain() (*account.Account, error) {
	a := &account.Account{
		ID:              kernel.NewAccountID(p.ID),
		Email:           p.Email.String,
		PhoneNumber:     p.PhoneNumber.String,
		Name:            p.Name,
		PhotoURL:        p.PhotoURL.String,
		Provider:        iam.Provider(p.Provider),
		ProfileComplete: p.ProfileComplete,
		Role:            iam.Role(p.Role),
		SavedRecipes:    []string(p.SavedRecipes),
		CreatedAt:       p.CreatedAt,
		UpdatedAt:       p.UpdatedAt,
		LastLogin:       p.LastLogin,
	}

	if err := p.Preferences.Unmarshal(&a.Preferences); err != nil {
		return nil, account.ErrStoreUnavailable(err).WithDetail("column", "preferences")
	}
	if err := p.CookingHistory.Unmarshal(&a.CookingHistory); err != nil {
		return nil, account.ErrStoreUnavailable(err).WithDetail("column", "cooking_history")
	}
	if a.Preferences == nil {
		a.Preferences = map[string]interface{}{}
	}
	if a.SavedRecipes == nil {
		a.SavedRecipes = []string{}
	}
	if a.CookingHistory == nil {
		a.CookingHistory = []map[string]interface{}{}
	}
	return a, nil
}
