package auth_test

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/dwella/rent-engine/auth"
)

func newTestService(allowSignUp bool) *auth.Service {
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	svc := auth.NewService(
		auth.NewMemoryUserStore(),
		auth.NewTokenIssuer("test-signing-key", time.Hour),
		allowSignUp,
		logger,
	)
	svc.Cost = bcrypt.MinCost
	return svc
}

func TestSignUp_ThenSignIn(t *testing.T) {
	// GIVEN: A landlord signs up
	svc := newTestService(true)
	ctx := context.Background()

	session, err := svc.SignUp(ctx, "  Owner@Example.com ", "secret1", "secret1")
	require.NoError(t, err)
	assert.NotEmpty(t, session.User.ID)
	assert.Equal(t, "owner@example.com", session.User.Email)
	assert.NotEmpty(t, session.Token)

	// WHEN: They sign in with a differently cased email
	again, err := svc.SignIn(ctx, "OWNER@example.com", "secret1")

	// THEN: Same account, and the token resolves back to it
	require.NoError(t, err)
	assert.Equal(t, session.User.ID, again.User.ID)

	me, err := svc.CurrentUser(ctx, again.Token)
	require.NoError(t, err)
	assert.Equal(t, session.User.ID, me.ID)
}

func TestSignUp_TypedFailures(t *testing.T) {
	ctx := context.Background()

	cases := []struct {
		name     string
		email    string
		password string
		confirm  string
		want     error
	}{
		{"invalid email", "not-an-email", "secret1", "secret1", auth.ErrInvalidEmail},
		{"mismatch", "a@example.com", "secret1", "secret2", auth.ErrPasswordMismatch},
		{"too short", "a@example.com", "abc", "abc", auth.ErrWeakPassword},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := newTestService(true).SignUp(ctx, tc.email, tc.password, tc.confirm)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestSignUp_EmailInUse(t *testing.T) {
	svc := newTestService(true)
	ctx := context.Background()

	_, err := svc.SignUp(ctx, "a@example.com", "secret1", "secret1")
	require.NoError(t, err)

	_, err = svc.SignUp(ctx, "A@example.com", "secret2", "secret2")
	assert.ErrorIs(t, err, auth.ErrEmailInUse)
	assert.Equal(t, "Email is already registered", auth.Message(err))
}

func TestSignUp_Disabled(t *testing.T) {
	_, err := newTestService(false).SignUp(context.Background(), "a@example.com", "secret1", "secret1")
	assert.ErrorIs(t, err, auth.ErrOperationNotAllowed)
	assert.Equal(t, "Email/password accounts are not enabled. Please contact support.", auth.Message(err))
}

func TestSignIn_UnknownEmailAndWrongPasswordLookAlike(t *testing.T) {
	svc := newTestService(true)
	ctx := context.Background()
	_, err := svc.SignUp(ctx, "a@example.com", "secret1", "secret1")
	require.NoError(t, err)

	_, errUnknown := svc.SignIn(ctx, "b@example.com", "secret1")
	_, errWrong := svc.SignIn(ctx, "a@example.com", "wrong-password")

	assert.ErrorIs(t, errUnknown, auth.ErrInvalidCredentials)
	assert.ErrorIs(t, errWrong, auth.ErrInvalidCredentials)
}

func TestCurrentUser_RejectsForeignAndExpiredTokens(t *testing.T) {
	svc := newTestService(true)
	ctx := context.Background()
	session, err := svc.SignUp(ctx, "a@example.com", "secret1", "secret1")
	require.NoError(t, err)

	// Signed with another key
	other := auth.NewTokenIssuer("another-key", time.Hour)
	forged, _, err := other.Issue(session.User)
	require.NoError(t, err)
	_, err = svc.CurrentUser(ctx, forged)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)

	// Already expired
	expired := auth.NewTokenIssuer("test-signing-key", -time.Minute)
	stale, _, err := expired.Issue(session.User)
	require.NoError(t, err)
	_, err = svc.CurrentUser(ctx, stale)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)

	_, err = svc.CurrentUser(ctx, "garbage")
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestMessage_FallsBackForUnknownErrors(t *testing.T) {
	assert.Equal(t, "Error creating account. Please try again.", auth.Message(errors.New("disk full")))
	assert.Equal(t, "Invalid email address", auth.Message(auth.ErrInvalidEmail))
}
