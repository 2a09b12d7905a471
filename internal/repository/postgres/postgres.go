package postgres

import (
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nicunursekatie/sandwichsync-sub003/internal/repository"
)

// Repository implements persistence interfaces on PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// New constructs a Repository.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ensure Repository satisfies interfaces.
var (
	_ repository.UserRepository         = (*Repository)(nil)
	_ repository.ConversationRepository = (*Repository)(nil)
	_ repository.MessageRepository      = (*Repository)(nil)
	_ repository.ProjectRepository      = (*Repository)(nil)
	_ repository.MeetingRepository      = (*Repository)(nil)
	_ repository.AnnouncementRepository = (*Repository)(nil)
	_ repository.HostRepository         = (*Repository)(nil)
	_ repository.RecipientRepository    = (*Repository)(nil)
	_ repository.CollectionRepository   = (*Repository)(nil)
)

// mapPgError translates Postgres error codes into repository sentinels.
func mapPgError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23503":
			return repository.ErrNotFound
		case "23505":
			return repository.ErrConflict
		case "23514", "22P02":
			return repository.ErrInvalidArgument
		}
	}
	return err
}

func emptyToNil(value string) any {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return value
}

func stringPtrToNil(v *string) any {
	if v == nil {
		return nil
	}
	if strings.TrimSpace(*v) == "" {
		return nil
	}
	return *v
}

func timePtrToNil(t *time.Time) any {
	if t == nil || t.IsZero() {
		return nil
	}
	return t.UTC()
}
