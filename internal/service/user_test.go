package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthenticate(t *testing.T) {
	store := newTestStore(t)
	svc := NewUserService(store)
	ctx := context.Background()

	created, err := svc.Create(ctx, "Admin", "pass", true)
	require.NoError(t, err)

	user, err := svc.Authenticate(ctx, "Admin", "pass")
	require.NoError(t, err)
	assert.Equal(t, created.ID, user.ID)
	assert.True(t, user.IsAdmin)
}

func TestAuthenticate_WrongPasswordAndUnknownUserLookAlike(t *testing.T) {
	store := newTestStore(t)
	svc := NewUserService(store)
	ctx := context.Background()

	_, err := svc.Create(ctx, "Admin", "pass", true)
	require.NoError(t, err)

	_, wrongPass := svc.Authenticate(ctx, "Admin", "wrong")
	_, unknownUser := svc.Authenticate(ctx, "Nobody", "pass")

	// Anti-enumeration: both failures are the same error.
	assert.ErrorIs(t, wrongPass, ErrInvalidCredentials)
	assert.ErrorIs(t, unknownUser, ErrInvalidCredentials)
}

func TestAuthenticate_EmptyCredentials(t *testing.T) {
	svc := NewUserService(newTestStore(t))
	ctx := context.Background()

	_, err := svc.Authenticate(ctx, "", "pass")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Authenticate(ctx, "Admin", "")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestChangePassword(t *testing.T) {
	store := newTestStore(t)
	svc := NewUserService(store)
	ctx := context.Background()

	user, err := svc.Create(ctx, "Admin", "old-pass", true)
	require.NoError(t, err)

	require.NoError(t, svc.ChangePassword(ctx, user, "old-pass", "new-pass", "new-pass"))

	// Old password no longer works, new one does.
	_, err = svc.Authenticate(ctx, "Admin", "old-pass")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Authenticate(ctx, "Admin", "new-pass")
	assert.NoError(t, err)
}

func TestChangePassword_Rules(t *testing.T) {
	store := newTestStore(t)
	svc := NewUserService(store)
	ctx := context.Background()

	user, err := svc.Create(ctx, "Admin", "old-pass", true)
	require.NoError(t, err)

	cases := []struct {
		name             string
		old, new, retype string
		want             error
	}{
		{"wrong old password", "nope", "new-pass", "new-pass", ErrOldPasswordIncorrect},
		{"same as old", "old-pass", "old-pass", "old-pass", ErrPasswordSameAsOld},
		{"retype mismatch", "old-pass", "new-pass", "other", ErrPasswordMismatch},
		{"empty new password", "old-pass", "", "", ErrMissingFields},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := svc.ChangePassword(ctx, user, tc.old, tc.new, tc.retype)
			assert.ErrorIs(t, err, tc.want)
		})
	}

	// None of the rejected attempts changed the stored hash.
	_, err = svc.Authenticate(ctx, "Admin", "old-pass")
	assert.NoError(t, err)
}

func TestCreate_Validation(t *testing.T) {
	svc := NewUserService(newTestStore(t))
	ctx := context.Background()

	_, err := svc.Create(ctx, "", "pass", false)
	assert.ErrorIs(t, err, ErrMissingFields)

	_, err = svc.Create(ctx, "Bob", "", false)
	assert.ErrorIs(t, err, ErrMissingFields)
}

func TestCreate_DuplicateName(t *testing.T) {
	svc := NewUserService(newTestStore(t))
	ctx := context.Background()

	_, err := svc.Create(ctx, "Admin", "pass", true)
	require.NoError(t, err)

	_, err = svc.Create(ctx, "Admin", "other", false)
	assert.ErrorIs(t, err, ErrNameExists)
}

func TestDelete_LastAdmin(t *testing.T) {
	store := newTestStore(t)
	svc := NewUserService(store)
	ctx := context.Background()

	admin, err := svc.Create(ctx, "Admin", "pass", true)
	require.NoError(t, err)
	bob, err := svc.Create(ctx, "Bob", "pass", false)
	require.NoError(t, err)

	assert.ErrorIs(t, svc.Delete(ctx, admin.ID), ErrLastAdmin)
	assert.NoError(t, svc.Delete(ctx, bob.ID))

	users, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "Admin", users[0].Name)
}
