package auth

import (
	"errors"
	"net/mail"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/mo-amir99/course-server-go/internal/features/user"
	"github.com/mo-amir99/course-server-go/internal/utils/jwt"
	"github.com/mo-amir99/course-server-go/pkg/types"
)

type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

type LoginInput struct {
	Email    string
	Password string
}

type AuthResponse struct {
	User        *user.User `json:"user"`
	AccessToken string     `json:"accessToken"`
	ExpiresAt   time.Time  `json:"expiresAt"`
}

type TokenConfig struct {
	JWTSecret         string
	AccessTokenExpiry time.Duration
}

// Register creates a student account with an empty wallet.
func Register(db *gorm.DB, input RegisterInput, cfg TokenConfig) (*AuthResponse, error) {
	if strings.TrimSpace(input.Name) == "" || input.Email == "" || input.Password == "" {
		return nil, ErrMissingFields
	}

	if _, err := mail.ParseAddress(input.Email); err != nil {
		return nil, ErrInvalidEmail
	}

	if len(input.Password) < 8 {
		return nil, ErrWeakPassword
	}

	newUser, err := user.Create(db, user.CreateInput{
		Name:     input.Name,
		Email:    input.Email,
		Password: input.Password,
		Role:     types.RoleStudent,
	})
	if err != nil {
		return nil, err
	}

	return issue(&newUser, cfg)
}

// Login authenticates a user and returns an access token.
func Login(db *gorm.DB, input LoginInput, cfg TokenConfig) (*AuthResponse, error) {
	if input.Email == "" || input.Password == "" {
		return nil, ErrMissingFields
	}

	usr, err := user.GetByEmail(db, input.Email)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if !usr.ComparePassword(input.Password) {
		return nil, ErrInvalidCredentials
	}

	return issue(&usr, cfg)
}

func issue(usr *user.User, cfg TokenConfig) (*AuthResponse, error) {
	token, err := jwt.GenerateAccessToken(usr.ID, cfg.JWTSecret, cfg.AccessTokenExpiry)
	if err != nil {
		return nil, err
	}

	return &AuthResponse{
		User:        usr,
		AccessToken: token,
		ExpiresAt:   time.Now().Add(cfg.AccessTokenExpiry),
	}, nil
}

