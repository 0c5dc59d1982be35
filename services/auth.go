package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/clinova/clinic-booking/models"
	"github.com/clinova/clinic-booking/repositories"
	"github.com/clinova/clinic-booking/store"
	"github.com/clinova/clinic-booking/utils"
	"github.com/golang-jwt/jwt/v4"
	"golang.org/x/crypto/bcrypt"
)

const resetCodeTTL = 10 * time.Minute

// TokenPair is the access/refresh token pair issued after login.
type TokenPair struct {
	AccessToken  string `json:"token"`
	RefreshToken string `json:"refreshToken"`
}

// AuthService wraps login, refresh and password reset around the lockout
// policy and the JWT issuer. Every login attempt passes through
// LockoutService before any token is issued.
type AuthService struct {
	users   repositories.UserRepository
	lockout *LockoutService
	resets  store.ResetCodeStore
	now     func() time.Time
}

func NewAuthService(users repositories.UserRepository, lockout *LockoutService, resets store.ResetCodeStore) *AuthService {
	return &AuthService{users: users, lockout: lockout, resets: resets, now: time.Now}
}

func jwtSecret() []byte {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		secret = "solid_secret_key" // Replace with secure key in production
	}
	return []byte(secret)
}

// Login authenticates the user. Failed password checks feed the lockout
// counter; a success resets it.
func (s *AuthService) Login(email, password string) (*models.User, *TokenPair, error) {
	user, err := s.users.GetByEmail(email)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, nil, ErrInvalidCredentials
		}
		return nil, nil, storageErr("load user", err)
	}

	if err := s.lockout.CheckLoginAllowed(user); err != nil {
		return nil, nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		if err := s.lockout.RecordFailure(user); err != nil {
			return nil, nil, err
		}
		return nil, nil, ErrInvalidCredentials
	}

	if err := s.lockout.RecordSuccess(user); err != nil {
		return nil, nil, err
	}

	pair, err := s.issueTokens(user)
	if err != nil {
		return nil, nil, err
	}
	return user, pair, nil
}

func (s *AuthService) issueTokens(user *models.User) (*TokenPair, error) {
	claims := jwt.MapClaims{
		"id":      user.ID,
		"email":   user.Email,
		"exp":     s.now().Add(time.Hour * 24).Unix(),
		"role":    user.Role.Name,
		"role_id": user.RoleID,
	}
	accessToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(jwtSecret())
	if err != nil {
		return nil, err
	}

	refreshClaims := jwt.MapClaims{
		"id":    user.ID,
		"email": user.Email,
		"exp":   s.now().Add(time.Hour * 24 * 7).Unix(),
	}
	refreshToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, refreshClaims).SignedString(jwtSecret())
	if err != nil {
		return nil, err
	}

	return &TokenPair{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

// Refresh validates a refresh token and issues a new access token.
func (s *AuthService) Refresh(refreshToken string) (string, error) {
	token, err := jwt.Parse(refreshToken, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return jwtSecret(), nil
	})
	if err != nil || !token.Valid {
		return "", ErrInvalidCredentials
	}

	claims := token.Claims.(jwt.MapClaims)
	newClaims := jwt.MapClaims{
		"id":    claims["id"],
		"email": claims["email"],
		"exp":   s.now().Add(time.Hour * 24).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, newClaims).SignedString(jwtSecret())
}

// CreatePasswordReset stores a one-time code for the account and returns it
// for delivery. Unknown emails fail with ErrNotFound.
func (s *AuthService) CreatePasswordReset(ctx context.Context, email string) (string, error) {
	if _, err := s.users.GetByEmail(email); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return "", fmt.Errorf("%w: user %s", ErrNotFound, email)
		}
		return "", storageErr("load user", err)
	}
	code := utils.GenerateOTP()
	if err := s.resets.Set(ctx, email, code, resetCodeTTL); err != nil {
		return "", err
	}
	return code, nil
}

// ResetPassword consumes a valid code and replaces the credential hash.
func (s *AuthService) ResetPassword(ctx context.Context, email, code, newPassword string) error {
	if len(newPassword) < 8 {
		return fmt.Errorf("%w: password must be at least 8 characters", ErrValidation)
	}
	stored, err := s.resets.Get(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrCodeNotFound) {
			return ErrInvalidCredentials
		}
		return err
	}
	if stored != code {
		return ErrInvalidCredentials
	}

	user, err := s.users.GetByEmail(email)
	if err != nil {
		return err
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	user.Password = string(hashed)
	if err := s.users.Update(user); err != nil {
		return storageErr("update password", err)
	}
	return s.resets.Delete(ctx, email)
}
