package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/uptrace/bun"

	"quiz-feed-service/internal/domain"
)

// UserStore persists accounts with bun.
type UserStore struct {
	db *bun.DB
}

func NewUserStore(db *bun.DB) *UserStore {
	return &UserStore{db: db}
}

func (s *UserStore) CreateUser(ctx context.Context, user domain.User) error {
	_, err := s.db.NewInsert().Model(userFromDomain(user)).Exec(ctx)
	if err := mapUserConflict(err); err != nil {
		return err
	}
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (s *UserStore) UpdateUser(ctx context.Context, user domain.User) error {
	res, err := s.db.NewUpdate().
		Model(userFromDomain(user)).
		Column("username", "name", "avatar", "password_hash", "is_creator").
		WherePK().
		Exec(ctx)
	if err := mapUserConflict(err); err != nil {
		return err
	}
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	return affected(res, domain.ErrUserNotFound)
}

func (s *UserStore) GetUserByID(ctx context.Context, id string) (domain.User, error) {
	return s.one(ctx, "id = ?", id)
}

func (s *UserStore) GetUserByEmail(ctx context.Context, email string) (domain.User, error) {
	return s.one(ctx, "email = ?", email)
}

func (s *UserStore) GetUserByUsername(ctx context.Context, username string) (domain.User, error) {
	return s.one(ctx, "username = ?", username)
}

func (s *UserStore) GetUsersByIDs(ctx context.Context, ids []string) (map[string]domain.User, error) {
	out := make(map[string]domain.User, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []userRow
	if err := s.db.NewSelect().Model(&rows).Where("id IN (?)", bun.In(ids)).Scan(ctx); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	for _, r := range rows {
		out[r.ID] = r.toDomain()
	}
	return out, nil
}

func (s *UserStore) one(ctx context.Context, where string, arg string) (domain.User, error) {
	var row userRow
	if err := s.db.NewSelect().Model(&row).Where(where, arg).Scan(ctx); err != nil {
		return domain.User{}, notFound(err, domain.ErrUserNotFound)
	}
	return row.toDomain(), nil
}

func mapUserConflict(err error) error {
	constraint, dup := uniqueViolation(err)
	if !dup {
		return nil
	}
	if strings.Contains(constraint, "username") {
		return domain.ErrUsernameTaken
	}
	return domain.ErrUserExists
}
