package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"

	"github.com/bucketlistapp/bucketlist-server/internal/domain"
	domainerrors "github.com/bucketlistapp/bucketlist-server/internal/errors"
)

type profileRow struct {
	ID           string         `db:"id"`
	Email        string         `db:"email"`
	PasswordHash string         `db:"password_hash"`
	DisplayName  string         `db:"display_name"`
	CreatedAt    string         `db:"created_at"`
	UpdatedAt    string         `db:"updated_at"`
	LastLoginAt  sql.NullString `db:"last_login_at"`
}

func (r *profileRow) toDomain() *domain.Profile {
	p := &domain.Profile{
		ID:           r.ID,
		Email:        r.Email,
		PasswordHash: r.PasswordHash,
		DisplayName:  r.DisplayName,
	}
	p.CreatedAt, _ = parseTime(r.CreatedAt)
	p.UpdatedAt, _ = parseTime(r.UpdatedAt)
	if r.LastLoginAt.Valid {
		p.LastLoginAt, _ = parseTime(r.LastLoginAt.String)
	}
	return p
}

var profileColumns = []string{"id", "email", "password_hash", "display_name", "created_at", "updated_at", "last_login_at"}

// CreateProfile inserts a new profile. Emails are unique ignoring case.
func (s *Store) CreateProfile(ctx context.Context, profile *domain.Profile) error {
	const op = "create_profile"
	now := s.now()
	if profile.CreatedAt.IsZero() {
		profile.CreatedAt = now
	}
	if profile.UpdatedAt.IsZero() {
		profile.UpdatedAt = now
	}

	query, args, err := s.sq.Insert("profiles").
		Columns(profileColumns...).
		Values(profile.ID, normalizeEmail(profile.Email), profile.PasswordHash, profile.DisplayName,
			formatTime(profile.CreatedAt), formatTime(profile.UpdatedAt), nullTime(&profile.LastLoginAt)).
		ToSql()
	if err != nil {
		return err
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		err = translate(err, op)
		if isDBCode(err, domainerrors.DBCodeUnique) {
			return domainerrors.AlreadyExists("email_taken", "email already registered")
		}
		return err
	}
	return nil
}

// GetProfile loads a profile by id.
func (s *Store) GetProfile(ctx context.Context, profileID string) (*domain.Profile, error) {
	return s.getProfile(ctx, "get_profile", squirrel.Eq{"id": profileID}, profileID)
}

// GetProfileByEmail loads a profile by email, ignoring case.
func (s *Store) GetProfileByEmail(ctx context.Context, email string) (*domain.Profile, error) {
	email = normalizeEmail(email)
	return s.getProfile(ctx, "get_profile_by_email", squirrel.Eq{"email": email}, email)
}

func (s *Store) getProfile(ctx context.Context, op string, where squirrel.Eq, key string) (*domain.Profile, error) {
	query, args, err := s.sq.Select(profileColumns...).From("profiles").Where(where).ToSql()
	if err != nil {
		return nil, err
	}

	var row profileRow
	if err := s.db.GetContext(ctx, &row, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domainerrors.NotFound("profile", key)
		}
		return nil, translate(err, op)
	}
	return row.toDomain(), nil
}

// TouchLastLogin records a successful login.
func (s *Store) TouchLastLogin(ctx context.Context, profileID string, at time.Time) error {
	query, args, err := s.sq.Update("profiles").
		Set("last_login_at", formatTime(at)).
		Set("updated_at", formatTime(s.now())).
		Where(squirrel.Eq{"id": profileID}).
		ToSql()
	if err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return translate(err, "touch_last_login")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domainerrors.NotFound("profile", profileID)
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
