package store

import (
	"context"
	"strings"
)

func (s *store) CreateUser(ctx context.Context, u *User) error {
	u.Email = strings.ToLower(u.Email)
	return mapErr(s.store.Insert(ctx, u))
}

func (s *store) GetUserByID(ctx context.Context, id int64) (*User, error) {
	u := &User{
		UserID: id,
	}
	return u, s.store.Select(ctx, u, UsersGetByID)
}

func (s *store) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	u := &User{
		Email: strings.ToLower(email),
	}
	return u, s.store.Select(ctx, u, UsersGetByEmail)
}

func (s *store) ListUsers(ctx context.Context) ([]User, error) {
	users := []User{}
	err := s.store.SelectAll(ctx, &User{}, &users, UsersGetAll, all())
	return users, err
}

func (s *store) UpdateUser(ctx context.Context, u *User) error {
	u.Email = strings.ToLower(u.Email)

	old, err := s.GetUserByID(ctx, u.UserID)
	if err != nil {
		return err
	}
	if old.Email != u.Email {
		// the email key would otherwise keep pointing at the old row
		if err := s.store.DeleteKeys(ctx, old); err != nil {
			return err
		}
	}

	return mapErr(s.store.Update(ctx, u))
}
