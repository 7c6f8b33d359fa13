package bootstrap

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/mo-amir99/course-server-go/internal/features/user"
	"github.com/mo-amir99/course-server-go/pkg/types"
)

const (
	DefaultAdminEmail    = "admin@example.com"
	DefaultAdminPassword = "12345678@Zz"
	DefaultAdminName     = "Admin"
)

// AdminAccount describes the account EnsureAdmin keeps in place.
type AdminAccount struct {
	Name     string
	Email    string
	Password string
}

// DefaultAdmin returns the built in admin account.
func DefaultAdmin() AdminAccount {
	return AdminAccount{Name: DefaultAdminName, Email: DefaultAdminEmail, Password: DefaultAdminPassword}
}

// EnsureAdmin creates or synchronizes an admin account.
func EnsureAdmin(db *gorm.DB, logger *slog.Logger, account AdminAccount) error {
	email := strings.ToLower(strings.TrimSpace(account.Email))

	var existing user.User
	err := db.Where("LOWER(email) = ?", email).First(&existing).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		_, createErr := user.Create(db, user.CreateInput{
			Name:     account.Name,
			Email:    email,
			Password: account.Password,
			Role:     types.RoleAdmin,
		})
		if createErr != nil {
			if isUndefinedTableError(createErr) {
				logger.Warn("admin seed skipped - users table missing", slog.String("email", email))
				return nil
			}
			return fmt.Errorf("create admin: %w", createErr)
		}

		logger.Info("admin created", slog.String("email", email))
		return nil

	case err != nil:
		if isUndefinedTableError(err) {
			logger.Warn("admin seed skipped - users table missing", slog.String("email", email))
			return nil
		}
		return fmt.Errorf("get admin: %w", err)
	}

	updates := map[string]interface{}{}

	if !existing.ComparePassword(account.Password) {
		hashed, hashErr := bcrypt.GenerateFromPassword([]byte(account.Password), bcrypt.DefaultCost)
		if hashErr != nil {
			return fmt.Errorf("hash admin password: %w", hashErr)
		}
		updates["password"] = string(hashed)
	}

	if existing.Role != types.RoleAdmin {
		updates["role"] = types.RoleAdmin
	}

	if account.Name != "" && existing.Name != account.Name {
		updates["name"] = account.Name
	}

	if len(updates) == 0 {
		logger.Info("admin already up to date", slog.String("email", email))
		return nil
	}

	if err := db.Model(&existing).Updates(updates).Error; err != nil {
		return fmt.Errorf("update admin: %w", err)
	}

	logger.Info("admin synchronized", slog.String("email", email))
	return nil
}

func isUndefinedTableError(err error) bool {
	if err == nil {
		return false
	}

	message := err.Error()
	return strings.Contains(message, "relation \"users\" does not exist") ||
		strings.Contains(message, "no such table: users")
}
