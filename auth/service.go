/*
Package auth authenticates landlords.

PURPOSE:
  Email and password accounts with bcrypt hashes, and stateless HS256
  session tokens whose subject is the landlord's owner id. The rest of the
  system only ever sees that owner id.

FAILURES:
  Every expected failure is one of the sentinels in errors.go. Message
  turns them into the text shown on the sign-up and sign-in forms.
*/
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

var validate = validator.New()

// Session is the result of a successful sign-up or sign-in.
type Session struct {
	User      User
	Token     string
	ExpiresAt time.Time
}

type Service struct {
	Users       UserStore
	Tokens      *TokenIssuer
	AllowSignUp bool
	Logger      logrus.FieldLogger

	// Cost is the bcrypt cost; zero means bcrypt.DefaultCost.
	Cost int

	Now func() time.Time
}

func NewService(users UserStore, tokens *TokenIssuer, allowSignUp bool, logger logrus.FieldLogger) *Service {
	return &Service{
		Users:       users,
		Tokens:      tokens,
		AllowSignUp: allowSignUp,
		Logger:      logger,
		Now:         time.Now,
	}
}

// SignUp creates an account and signs it in.
func (s *Service) SignUp(ctx context.Context, email, password, confirmPassword string) (Session, error) {
	if !s.AllowSignUp {
		return Session{}, ErrOperationNotAllowed
	}
	email = NormalizeEmail(email)
	if err := validate.Var(email, "required,email"); err != nil {
		return Session{}, ErrInvalidEmail
	}
	if password != confirmPassword {
		return Session{}, ErrPasswordMismatch
	}
	if len(password) < MinPasswordLength {
		return Session{}, ErrWeakPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost())
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return Session{}, ErrWeakPassword
		}
		return Session{}, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.Users.CreateUser(ctx, User{
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    s.Now(),
	})
	if err != nil {
		return Session{}, err
	}

	s.Logger.WithField("user_id", user.ID).Info("account created")
	return s.issue(user)
}

// SignIn verifies the credentials. An unknown email and a wrong password
// fail the same way.
func (s *Service) SignIn(ctx context.Context, email, password string) (Session, error) {
	user, err := s.Users.GetUserByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return Session{}, ErrInvalidCredentials
		}
		return Session{}, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return Session{}, ErrInvalidCredentials
		}
		return Session{}, fmt.Errorf("verify password: %w", err)
	}
	return s.issue(user)
}

// CurrentUser resolves a session token to its account.
func (s *Service) CurrentUser(ctx context.Context, token string) (User, error) {
	id, err := s.Tokens.Verify(token)
	if err != nil {
		return User{}, err
	}
	user, err := s.Users.GetUser(ctx, id)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return User{}, ErrInvalidToken
		}
		return User{}, err
	}
	return user, nil
}

func (s *Service) issue(user User) (Session, error) {
	token, expiresAt, err := s.Tokens.Issue(user)
	if err != nil {
		return Session{}, err
	}
	return Session{User: user, Token: token, ExpiresAt: expiresAt}, nil
}

func (s *Service) cost() int {
	if s.Cost == 0 {
		return bcrypt.DefaultCost
	}
	return s.Cost
}
