package app

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"quiz-feed-service/internal/domain"
)

// RegisterInput is a password sign-up request.
type RegisterInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Username string `json:"username" validate:"required,alphanum,min=3,max=32"`
	Name     string `json:"name"`
}

// ProfileUpdate patches a user's profile. Empty fields are left unchanged.
type ProfileUpdate struct {
	Name   string `json:"name" validate:"omitempty,max=100"`
	Avatar string `json:"avatar" validate:"omitempty,url"`
}

// UserService owns creator and viewer accounts.
type UserService struct {
	users  UserStore
	tokens TokenIssuer
	now    func() time.Time
}

func NewUserService(users UserStore, tokens TokenIssuer) *UserService {
	return &UserService{users: users, tokens: tokens, now: time.Now}
}

// Register creates a password account and signs the user in.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (domain.User, string, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Username = strings.TrimSpace(in.Username)
	if err := domain.Validate(in); err != nil {
		return domain.User{}, "", err
	}
	if err := s.ensureFree(ctx, in.Email, in.Username); err != nil {
		return domain.User{}, "", err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return domain.User{}, "", err
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		name = in.Username
	}
	user := domain.User{
		ID:           uuid.NewString(),
		Email:        in.Email,
		Username:     in.Username,
		Name:         name,
		PasswordHash: string(hash),
		IsCreator:    true,
		CreatedAt:    s.now().UTC(),
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		return domain.User{}, "", err
	}
	token, err := s.tokens.Issue(user)
	if err != nil {
		return domain.User{}, "", err
	}
	return user, token, nil
}

// Login checks a password and returns a fresh token.
func (s *UserService) Login(ctx context.Context, email, password string) (domain.User, string, error) {
	user, err := s.users.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if errors.Is(err, domain.ErrUserNotFound) {
		return domain.User{}, "", domain.ErrInvalidCredentials
	}
	if err != nil {
		return domain.User{}, "", err
	}
	if user.PasswordHash == "" || bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return domain.User{}, "", domain.ErrInvalidCredentials
	}
	token, err := s.tokens.Issue(user)
	if err != nil {
		return domain.User{}, "", err
	}
	return user, token, nil
}

// Sync upserts a user handed over by an external identity provider, keyed by email.
// New users get the email local part as username unless one is provided.
func (s *UserService) Sync(ctx context.Context, identity domain.ExternalIdentity) (domain.User, string, error) {
	if err := domain.Validate(identity); err != nil {
		return domain.User{}, "", err
	}
	email := strings.ToLower(strings.TrimSpace(identity.Email))

	user, err := s.users.GetUserByEmail(ctx, email)
	switch {
	case err == nil:
		if identity.Name != "" {
			user.Name = identity.Name
		}
		if identity.ImageURL != "" {
			user.Avatar = identity.ImageURL
		}
		if identity.Username != "" && identity.Username != user.Username {
			if err := s.ensureUsernameFree(ctx, identity.Username); err != nil {
				return domain.User{}, "", err
			}
			user.Username = identity.Username
		}
		if err := s.users.UpdateUser(ctx, user); err != nil {
			return domain.User{}, "", err
		}
	case errors.Is(err, domain.ErrUserNotFound):
		username := identity.Username
		if username == "" {
			username, _, _ = strings.Cut(email, "@")
		}
		if err := s.ensureUsernameFree(ctx, username); err != nil {
			return domain.User{}, "", err
		}
		name := identity.Name
		if name == "" {
			name = username
		}
		user = domain.User{
			ID:        uuid.NewString(),
			Email:     email,
			Username:  username,
			Name:      name,
			Avatar:    identity.ImageURL,
			IsCreator: true,
			CreatedAt: s.now().UTC(),
		}
		if err := s.users.CreateUser(ctx, user); err != nil {
			return domain.User{}, "", err
		}
	default:
		return domain.User{}, "", err
	}

	token, err := s.tokens.Issue(user)
	if err != nil {
		return domain.User{}, "", err
	}
	return user, token, nil
}

// UpdateProfile changes the display name and avatar of a user.
func (s *UserService) UpdateProfile(ctx context.Context, userID string, in ProfileUpdate) (domain.User, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Avatar = strings.TrimSpace(in.Avatar)
	if err := domain.Validate(in); err != nil {
		return domain.User{}, err
	}
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return domain.User{}, err
	}
	if in.Name != "" {
		user.Name = in.Name
	}
	if in.Avatar != "" {
		user.Avatar = in.Avatar
	}
	if err := s.users.UpdateUser(ctx, user); err != nil {
		return domain.User{}, err
	}
	return user, nil
}

// Get returns a user by ID.
func (s *UserService) Get(ctx context.Context, id string) (domain.User, error) {
	return s.users.GetUserByID(ctx, id)
}

func (s *UserService) ensureFree(ctx context.Context, email, username string) error {
	_, err := s.users.GetUserByEmail(ctx, email)
	if err == nil {
		return domain.ErrUserExists
	}
	if !errors.Is(err, domain.ErrUserNotFound) {
		return err
	}
	return s.ensureUsernameFree(ctx, username)
}

func (s *UserService) ensureUsernameFree(ctx context.Context, username string) error {
	_, err := s.users.GetUserByUsername(ctx, username)
	if err == nil {
		return domain.ErrUsernameTaken
	}
	if errors.Is(err, domain.ErrUserNotFound) {
		return nil
	}
	return err
}
