package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/joshdemeester-svg/acme-motors-api-sub001/internal/auth"
	"github.com/joshdemeester-svg/acme-motors-api-sub001/internal/store"
	"github.com/joshdemeester-svg/acme-motors-api-sub001/internal/validation"
	"golang.org/x/crypto/bcrypt"
)

// UserView is a user without the password hash
type UserView struct {
	UserID    int64     `json:"user_id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func viewUser(u *store.User) *UserView {
	return &UserView{
		UserID:    u.UserID,
		Email:     u.Email,
		Name:      u.Name,
		Role:      u.Role,
		Active:    u.Active,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

var (
	dummyHashOnce sync.Once
	dummyHash     string
)

// compared against when the email is unknown so both failures take as long
func unknownUserHash() string {
	dummyHashOnce.Do(func() {
		dummyHash, _ = auth.HashPassword("acme-unknown-user-password")
	})
	return dummyHash
}

func hashPassword(password string) (string, error) {
	hash, err := auth.HashPassword(password)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return "", validation.FieldError("password", "must be at most 72 bytes")
	}
	return hash, err
}

// Login checks the password and opens an admin session
func (s *Service) Login(ctx context.Context, req LoginRequest) (string, *UserView, error) {
	u, err := s.store.GetUserByEmail(ctx, strings.TrimSpace(req.Email))
	if errors.Is(err, store.ErrNotFound) {
		_ = auth.CheckPassword(unknownUserHash(), req.Password)
		return "", nil, auth.ErrInvalidCredentials
	}
	if err != nil {
		return "", nil, err
	}

	if err := auth.CheckPassword(u.PasswordHash, req.Password); err != nil {
		return "", nil, err
	}
	if !u.Active {
		return "", nil, auth.ErrInvalidCredentials
	}

	token, err := s.sessions.Create(ctx, &auth.Session{
		Kind:      auth.KindAdmin,
		UserID:    u.UserID,
		Role:      u.Role,
		CreatedAt: s.now().UTC(),
	})
	if err != nil {
		return "", nil, err
	}

	s.log.WithField("user_id", u.UserID).Info("admin signed in")
	return token, viewUser(u), nil
}

func (s *Service) Logout(ctx context.Context, token string) error {
	return s.sessions.Destroy(ctx, token)
}

// Me is the signed-in user; a user deactivated mid-session no longer counts as signed in
func (s *Service) Me(ctx context.Context, userID int64) (*UserView, error) {
	u, err := s.store.GetUserByID(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, auth.ErrNoSession
	}
	if err != nil {
		return nil, err
	}
	if !u.Active {
		return nil, auth.ErrNoSession
	}
	return viewUser(u), nil
}

func (s *Service) ListUsers(ctx context.Context) ([]*UserView, error) {
	users, err := s.store.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*UserView, 0, len(users))
	for i := range users {
		out = append(out, viewUser(&users[i]))
	}
	return out, nil
}

func (s *Service) CreateUser(ctx context.Context, req UserRequest) (*UserView, error) {
	hash, err := hashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	u := &store.User{
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		Name:         strings.TrimSpace(req.Name),
		PasswordHash: hash,
		Role:         req.Role,
		Active:       true,
	}
	if err := s.store.CreateUser(ctx, u); err != nil {
		return nil, err
	}
	return viewUser(u), nil
}

// UpdateUser changes role, status or password. Deactivating someone ends their sessions;
// nobody can demote or deactivate themselves.
func (s *Service) UpdateUser(ctx context.Context, id int64, req UserUpdate, actor int64) (*UserView, error) {
	u, err := s.store.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if id == actor {
		if (req.Active != nil && !*req.Active) || (req.Role != nil && *req.Role != u.Role) {
			return nil, ErrForbidden
		}
	}

	if req.Name != nil {
		u.Name = strings.TrimSpace(*req.Name)
	}
	roleChanged := req.Role != nil && *req.Role != u.Role
	if req.Role != nil {
		u.Role = *req.Role
	}
	if req.Password != nil {
		if u.PasswordHash, err = hashPassword(*req.Password); err != nil {
			return nil, err
		}
	}
	deactivated := req.Active != nil && !*req.Active && u.Active
	if req.Active != nil {
		u.Active = *req.Active
	}

	if err := s.store.UpdateUser(ctx, u); err != nil {
		return nil, err
	}

	if deactivated || roleChanged || req.Password != nil {
		if err := s.sessions.DestroyUser(ctx, id); err != nil {
			s.log.WithError(err).WithField("user_id", id).Warn("end user sessions")
		}
	}
	return viewUser(u), nil
}
