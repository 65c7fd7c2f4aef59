package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/Masterminds/squirrel"

	"github.com/bucketlistapp/bucketlist-server/internal/domain"
	domainerrors "github.com/bucketlistapp/bucketlist-server/internal/errors"
)

type sessionRow struct {
	ID               string         `db:"id"`
	ProfileID        string         `db:"profile_id"`
	RefreshTokenHash string         `db:"refresh_token_hash"`
	ExpiresAt        string         `db:"expires_at"`
	CreatedAt        string         `db:"created_at"`
	LastSeenAt       string         `db:"last_seen_at"`
	IPAddress        sql.NullString `db:"ip_address"`
	UserAgent        sql.NullString `db:"user_agent"`
}

func (r *sessionRow) toDomain() *domain.Session {
	s := &domain.Session{
		ID:               r.ID,
		ProfileID:        r.ProfileID,
		RefreshTokenHash: r.RefreshTokenHash,
		IPAddress:        r.IPAddress.String,
		UserAgent:        r.UserAgent.String,
	}
	s.ExpiresAt, _ = parseTime(r.ExpiresAt)
	s.CreatedAt, _ = parseTime(r.CreatedAt)
	s.LastSeenAt, _ = parseTime(r.LastSeenAt)
	return s
}

var sessionColumns = []string{"id", "profile_id", "refresh_token_hash", "expires_at", "created_at", "last_seen_at", "ip_address", "user_agent"}

// CreateSession stores a new session.
func (s *Store) CreateSession(ctx context.Context, session *domain.Session) error {
	query, args, err := s.sq.Insert("sessions").
		Columns(sessionColumns...).
		Values(session.ID, session.ProfileID, session.RefreshTokenHash, formatTime(session.ExpiresAt),
			formatTime(session.CreatedAt), formatTime(session.LastSeenAt),
			nullString(&session.IPAddress), nullString(&session.UserAgent)).
		ToSql()
	if err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		err = translate(err, "create_session")
		if isDBCode(err, domainerrors.DBCodeUnique) {
			return domainerrors.AlreadyExists("session_exists", "session already exists")
		}
		return err
	}
	return nil
}

// GetSessionByRefreshToken finds the session holding tokenHash.
// Expiry is left to the caller.
func (s *Store) GetSessionByRefreshToken(ctx context.Context, tokenHash string) (*domain.Session, error) {
	query, args, err := s.sq.Select(sessionColumns...).
		From("sessions").
		Where(squirrel.Eq{"refresh_token_hash": tokenHash}).
		ToSql()
	if err != nil {
		return nil, err
	}

	var row sessionRow
	if err := s.db.GetContext(ctx, &row, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domainerrors.NotFound("session", "refresh token")
		}
		return nil, translate(err, "get_session_by_token")
	}
	return row.toDomain(), nil
}

// UpdateSession rewrites the mutable fields of a session, used on token rotation.
func (s *Store) UpdateSession(ctx context.Context, session *domain.Session) error {
	query, args, err := s.sq.Update("sessions").
		Set("refresh_token_hash", session.RefreshTokenHash).
		Set("expires_at", formatTime(session.ExpiresAt)).
		Set("last_seen_at", formatTime(session.LastSeenAt)).
		Where(squirrel.Eq{"id": session.ID}).
		ToSql()
	if err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return translate(err, "update_session")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domainerrors.NotFound("session", session.ID)
	}
	return nil
}

// DeleteSession removes a session. Missing sessions are not an error.
func (s *Store) DeleteSession(ctx context.Context, sessionID string) error {
	query, args, err := s.sq.Delete("sessions").Where(squirrel.Eq{"id": sessionID}).ToSql()
	if err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return translate(err, "delete_session")
	}
	return nil
}

// DeleteExpiredSessions removes sessions that expired before now.
func (s *Store) DeleteExpiredSessions(ctx context.Context, now time.Time) (int, error) {
	query, args, err := s.sq.Delete("sessions").Where(squirrel.Lt{"expires_at": formatTime(now)}).ToSql()
	if err != nil {
		return 0, err
	}
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, translate(err, "delete_expired_sessions")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, translate(err, "delete_expired_sessions")
	}
	return int(n), nil
}
