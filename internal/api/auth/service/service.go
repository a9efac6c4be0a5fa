package authService

import (
	"ekyc-backend/internal/api/auth"
	authRepository "ekyc-backend/internal/api/auth/repository"
	"ekyc-backend/pkg/bcrypt"
	"ekyc-backend/pkg/utils"

	"github.com/sirupsen/logrus"
	"golang.org/x/net/context"
)

type AuthService interface {
	RegisterOperator(c context.Context, req auth.RegisterOperatorRequest) error
	Login(c context.Context, req auth.LoginRequest) (auth.LoginResponse, error)
	GetProfile(c context.Context, userID string) (auth.ProfileResponse, error)
}

type authService struct {
	log         *logrus.Logger
	repo        authRepository.Repository
	bcryptUtils bcrypt.IBcrypt
	utils       utils.IUtils
}

func New(
	log *logrus.Logger,
	authRepo authRepository.Repository,
	bcryptUtils bcrypt.IBcrypt,
	utils utils.IUtils,
) AuthService {
	return &authService{
		log:         log,
		repo:        authRepo,
		bcryptUtils: bcryptUtils,
		utils:       utils,
	}
}
