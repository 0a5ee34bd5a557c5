package service

import (
	"context"
	"strings"
	"testing"

	"github.com/joshdemeester-svg/acme-motors-api-sub001/internal/auth"
	"github.com/joshdemeester-svg/acme-motors-api-sub001/internal/store"
	"github.com/joshdemeester-svg/acme-motors-api-sub001/internal/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testPassword = "correct horse battery"

func TestLogin(t *testing.T) {
	ts := newTestService(t)
	ctx := context.Background()

	u, err := ts.CreateUser(ctx, UserRequest{Email: "Admin@Example.com", Name: "Admin", Role: store.RoleAdmin, Password: testPassword})
	require.NoError(t, err)
	assert.Equal(t, "admin@example.com", u.Email)

	token, me, err := ts.Login(ctx, LoginRequest{Email: "admin@example.com", Password: testPassword})
	require.NoError(t, err)
	assert.Equal(t, u.UserID, me.UserID)

	sess, err := ts.sessions.Get(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, auth.KindAdmin, sess.Kind)
	assert.Equal(t, store.RoleAdmin, sess.Role)

	_, _, err = ts.Login(ctx, LoginRequest{Email: "admin@example.com", Password: "wrong password"})
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)

	_, _, err = ts.Login(ctx, LoginRequest{Email: "nobody@example.com", Password: testPassword})
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)

	require.NoError(t, ts.Logout(ctx, token))
	_, err = ts.sessions.Get(ctx, token)
	assert.ErrorIs(t, err, auth.ErrNoSession)
}

func TestDeactivatedUserIsSignedOut(t *testing.T) {
	ts := newTestService(t)
	ctx := context.Background()

	admin, err := ts.CreateUser(ctx, UserRequest{Email: "admin@example.com", Name: "Admin", Role: store.RoleAdmin, Password: testPassword})
	require.NoError(t, err)
	staff, err := ts.CreateUser(ctx, UserRequest{Email: "staff@example.com", Name: "Staff", Role: store.RoleStaff, Password: testPassword})
	require.NoError(t, err)

	token, _, err := ts.Login(ctx, LoginRequest{Email: "staff@example.com", Password: testPassword})
	require.NoError(t, err)

	off := false
	got, err := ts.UpdateUser(ctx, staff.UserID, UserUpdate{Active: &off}, admin.UserID)
	require.NoError(t, err)
	assert.False(t, got.Active)

	_, err = ts.sessions.Get(ctx, token)
	assert.ErrorIs(t, err, auth.ErrNoSession)

	_, _, err = ts.Login(ctx, LoginRequest{Email: "staff@example.com", Password: testPassword})
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)

	_, err = ts.Me(ctx, staff.UserID)
	assert.ErrorIs(t, err, auth.ErrNoSession)
}

func TestUsersCannotDemoteThemselves(t *testing.T) {
	ts := newTestService(t)
	ctx := context.Background()

	admin, err := ts.CreateUser(ctx, UserRequest{Email: "admin@example.com", Name: "Admin", Role: store.RoleAdmin, Password: testPassword})
	require.NoError(t, err)

	staff := store.RoleStaff
	_, err = ts.UpdateUser(ctx, admin.UserID, UserUpdate{Role: &staff}, admin.UserID)
	assert.ErrorIs(t, err, ErrForbidden)

	off := false
	_, err = ts.UpdateUser(ctx, admin.UserID, UserUpdate{Active: &off}, admin.UserID)
	assert.ErrorIs(t, err, ErrForbidden)

	name := "Head Admin"
	got, err := ts.UpdateUser(ctx, admin.UserID, UserUpdate{Name: &name}, admin.UserID)
	require.NoError(t, err)
	assert.Equal(t, "Head Admin", got.Name)
}

func TestCreateUserDuplicateEmail(t *testing.T) {
	ts := newTestService(t)
	ctx := context.Background()

	req := UserRequest{Email: "admin@example.com", Name: "Admin", Role: store.RoleAdmin, Password: testPassword}
	_, err := ts.CreateUser(ctx, req)
	require.NoError(t, err)
	_, err = ts.CreateUser(ctx, req)
	assert.ErrorIs(t, err, store.ErrConflict)
}

func TestPasswordLimitIsBytes(t *testing.T) {
	ts := newTestService(t)
	// 72 characters, 144 bytes
	req := UserRequest{Email: "ops@example.com", Name: "Ops", Role: store.RoleStaff, Password: strings.Repeat("é", 72)}

	var verr *validation.Error
	require.ErrorAs(t, validation.Struct(&req), &verr)
	assert.Equal(t, "must be at most 72 bytes", verr.Fields["password"])

	_, err := ts.CreateUser(context.Background(), req)
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "password")
	assert.Empty(t, ts.store.users)
}
