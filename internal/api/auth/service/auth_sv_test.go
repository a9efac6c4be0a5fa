package authService

import (
	"io"
	"testing"

	"ekyc-backend/internal/api/auth"
	authRepository "ekyc-backend/internal/api/auth/repository"
	"ekyc-backend/internal/entity"
	"ekyc-backend/pkg/bcrypt"
	"ekyc-backend/pkg/utils"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/context"
)

type stubUsers struct {
	byEmail map[string]entity.User
	created []entity.User
}

func (s *stubUsers) CreateUser(ctx context.Context, user entity.User) error {
	if s.byEmail == nil {
		s.byEmail = map[string]entity.User{}
	}
	if _, exists := s.byEmail[user.Email]; exists {
		return auth.ErrEmailAlreadyExists
	}
	s.byEmail[user.Email] = user
	s.created = append(s.created, user)
	return nil
}

func (s *stubUsers) GetByID(ctx context.Context, id string) (entity.User, error) {
	for _, user := range s.byEmail {
		if user.ID == id {
			return user, nil
		}
	}
	return entity.User{}, auth.ErrUserNotFound
}

func (s *stubUsers) GetByEmail(ctx context.Context, email string) (entity.User, error) {
	user, ok := s.byEmail[email]
	if !ok {
		return entity.User{}, auth.ErrUserNotFound
	}
	return user, nil
}

type stubAuthRepo struct {
	users *stubUsers
}

func (s *stubAuthRepo) NewClient(tx bool) (authRepository.Client, error) {
	return authRepository.Client{
		Users:    s.users,
		Commit:   func() error { return nil },
		Rollback: func() error { return nil },
	}, nil
}

func newTestAuthService(users *stubUsers) AuthService {
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	return New(logger, &stubAuthRepo{users: users}, bcrypt.New(), utils.New())
}

func TestRegisterOperator(t *testing.T) {
	users := &stubUsers{}
	svc := newTestAuthService(users)

	err := svc.RegisterOperator(context.Background(), auth.RegisterOperatorRequest{
		Email:    "operator@example.com",
		Name:     "Operator One",
		Password: "s3cret-pass",
	})
	require.NoError(t, err)

	require.Len(t, users.created, 1)
	created := users.created[0]
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "operator@example.com", created.Email)
	assert.NotEqual(t, "s3cret-pass", created.Password, "password must be stored hashed")
}

func TestRegisterOperatorDuplicateEmail(t *testing.T) {
	users := &stubUsers{}
	svc := newTestAuthService(users)

	req := auth.RegisterOperatorRequest{
		Email:    "operator@example.com",
		Name:     "Operator One",
		Password: "s3cret-pass",
	}

	require.NoError(t, svc.RegisterOperator(context.Background(), req))

	err := svc.RegisterOperator(context.Background(), req)
	assert.ErrorIs(t, err, auth.ErrEmailAlreadyExists)
	assert.Len(t, users.created, 1)
}

func TestLogin(t *testing.T) {
	t.Setenv("JWT_ACCESS_TOKEN_SECRET", "test-secret")

	users := &stubUsers{}
	svc := newTestAuthService(users)

	require.NoError(t, svc.RegisterOperator(context.Background(), auth.RegisterOperatorRequest{
		Email:    "operator@example.com",
		Name:     "Operator One",
		Password: "s3cret-pass",
	}))

	res, err := svc.Login(context.Background(), auth.LoginRequest{
		Email:    "operator@example.com",
		Password: "s3cret-pass",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, res.AccessToken)
	assert.Greater(t, res.ExpiresInMinutes, 0.0)
}

func TestLoginWrongPassword(t *testing.T) {
	t.Setenv("JWT_ACCESS_TOKEN_SECRET", "test-secret")

	users := &stubUsers{}
	svc := newTestAuthService(users)

	require.NoError(t, svc.RegisterOperator(context.Background(), auth.RegisterOperatorRequest{
		Email:    "operator@example.com",
		Name:     "Operator One",
		Password: "s3cret-pass",
	}))

	_, err := svc.Login(context.Background(), auth.LoginRequest{
		Email:    "operator@example.com",
		Password: "wrong-pass",
	})
	assert.ErrorIs(t, err, auth.ErrInvalidEmailOrPassword)
}

func TestLoginUnknownEmail(t *testing.T) {
	svc := newTestAuthService(&stubUsers{})

	_, err := svc.Login(context.Background(), auth.LoginRequest{
		Email:    "nobody@example.com",
		Password: "whatever",
	})
	assert.ErrorIs(t, err, auth.ErrInvalidEmailOrPassword,
		"unknown email and wrong password must be indistinguishable")
}
