package services

import (
	"errors"
	"strings"
	"time"

	"github.com/Amm-ar/delivero-backend/entity"
	"github.com/Amm-ar/delivero-backend/pkg/apperr"
	"github.com/Amm-ar/delivero-backend/repository"
	"github.com/Amm-ar/delivero-backend/utils"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// AuthService handles login/registration. Roles issued here feed the
// authorization gates on every order operation.
type AuthService struct {
	userRepo   *repository.UserRepository
	driverRepo *repository.DriverRepository
	jwtSecret  string
	jwtTTL     time.Duration
}

func NewAuthService(userRepo *repository.UserRepository, driverRepo *repository.DriverRepository, secret string, ttl time.Duration) *AuthService {
	return &AuthService{
		userRepo:   userRepo,
		driverRepo: driverRepo,
		jwtSecret:  secret,
		jwtTTL:     ttl,
	}
}

type RegisterInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
	Phone     string
	Role      string
}

// Register creates a user. Driver registrations also get an empty
// driver profile so dispatch can find them; admin is seed-only.
func (s *AuthService) Register(in RegisterInput) (*entity.User, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if email == "" || in.Password == "" {
		return nil, apperr.New(apperr.KindValidation, "email and password are required")
	}

	role := in.Role
	if role == "" {
		role = entity.RoleCustomer
	}
	switch role {
	case entity.RoleCustomer, entity.RoleDriver, entity.RoleOwner:
	default:
		return nil, apperr.Newf(apperr.KindValidation, "role %q cannot be self-registered", role)
	}

	count, err := s.userRepo.CountByEmail(email)
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, apperr.New(apperr.KindConflict, "email already registered")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &entity.User{
		Email:       email,
		Password:    string(hashed),
		FirstName:   strings.TrimSpace(in.FirstName),
		LastName:    strings.TrimSpace(in.LastName),
		PhoneNumber: strings.TrimSpace(in.Phone),
		Role:        role,
	}
	if err := s.userRepo.Create(user); err != nil {
		return nil, err
	}

	if role == entity.RoleDriver {
		if err := s.driverRepo.Create(&entity.Driver{UserID: user.ID}); err != nil {
			return nil, err
		}
	}
	return user, nil
}

// Login verifies credentials and issues a JWT carrying user id + role.
func (s *AuthService) Login(email, password string) (string, *entity.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	user, err := s.userRepo.FindByEmail(email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil, apperr.New(apperr.KindForbidden, "invalid credentials")
		}
		return "", nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return "", nil, apperr.New(apperr.KindForbidden, "invalid credentials")
	}

	token, err := utils.GenerateToken(user.ID, user.Role, s.jwtSecret, s.jwtTTL)
	if err != nil {
		return "", nil, err
	}
	return token, user, nil
}

func (s *AuthService) GetProfile(userID uint) (*entity.User, error) {
	u, err := s.userRepo.FindByID(userID)
	if err != nil {
		return nil, notFoundOr(err, "user not found")
	}
	return u, nil
}

// RegisterDevice stores the push-notification target for the account.
func (s *AuthService) RegisterDevice(userID uint, deviceToken string) error {
	if deviceToken == "" {
		return apperr.New(apperr.KindValidation, "device token is required")
	}
	return s.userRepo.UpdateDeviceToken(userID, deviceToken)
}
