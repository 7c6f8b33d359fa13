package middleware

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/mo-amir99/course-server-go/internal/utils/jwt"
	pkgmiddleware "github.com/mo-amir99/course-server-go/pkg/middleware"
	"github.com/mo-amir99/course-server-go/pkg/response"
	"github.com/mo-amir99/course-server-go/pkg/types"
)

const userContextKey = "user"

// User is the authenticated user as seen by handlers.
type User struct {
	ID      uint        `gorm:"column:id;primaryKey"`
	Name    string      `gorm:"column:name"`
	Email   string      `gorm:"column:email"`
	Role    types.Role  `gorm:"column:role"`
	Credits types.Money `gorm:"column:credits"`
}

// TableName specifies the table name for the User model
func (User) TableName() string {
	return "users"
}

// IsAdmin reports whether the user has the admin role.
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == types.RoleAdmin
}

// Auth authenticates bearer tokens and authorizes roles.
type Auth struct {
	db        *gorm.DB
	jwtSecret string
	logger    *slog.Logger
}

// NewAuth creates the authentication middleware set.
func NewAuth(db *gorm.DB, jwtSecret string, logger *slog.Logger) *Auth {
	return &Auth{
		db:        db,
		jwtSecret: jwtSecret,
		logger:    logger,
	}
}

// Authenticate validates the bearer token and loads the user into context.
func (m *Auth) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := m.ensureAuthenticated(c); !ok {
			return
		}
		c.Next()
	}
}

// RequireRoles authenticates and then checks the user's role.
func (m *Auth) RequireRoles(roles ...types.Role) []gin.HandlerFunc {
	return []gin.HandlerFunc{m.Authenticate(), m.authorize(roles...)}
}

// AdminOnly is RequireRoles(types.RoleAdmin).
func (m *Auth) AdminOnly() []gin.HandlerFunc {
	return m.RequireRoles(types.RoleAdmin)
}

func (m *Auth) authorize(roles ...types.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		usr, ok := CurrentUser(c)
		if !ok {
			response.Error(c, http.StatusUnauthorized, "User not authenticated", nil)
			c.Abort()
			return
		}

		for _, role := range roles {
			if usr.Role == role {
				c.Next()
				return
			}
		}

		response.Error(c, http.StatusForbidden, "Access denied: Insufficient permissions.", errors.New("forbidden"))
		c.Abort()
	}
}

// VerifyToken resolves a raw token to its user. Used by the socket server.
func (m *Auth) VerifyToken(token string) (*User, error) {
	claims, err := jwt.VerifyToken(token, m.jwtSecret)
	if err != nil {
		return nil, err
	}

	var usr User
	if err := m.db.First(&usr, claims.UserID).Error; err != nil {
		return nil, err
	}
	return &usr, nil
}

// CurrentUser retrieves the authenticated user from the Gin context.
func CurrentUser(c *gin.Context) (*User, bool) {
	value, exists := c.Get(userContextKey)
	if !exists {
		return nil, false
	}
	usr, ok := value.(*User)
	return usr, ok && usr != nil
}

// SetUser stores usr as the authenticated user. Tests use it to bypass tokens.
func SetUser(c *gin.Context, usr *User) {
	c.Set(userContextKey, usr)
	c.Set(pkgmiddleware.UserIDKey, usr.ID)
}

func (m *Auth) ensureAuthenticated(c *gin.Context) (*User, bool) {
	if usr, ok := CurrentUser(c); ok {
		return usr, true
	}

	authHeader := c.GetHeader("Authorization")
	token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	if !strings.HasPrefix(authHeader, "Bearer ") || token == "" {
		response.Error(c, http.StatusUnauthorized, "No token provided", errors.New("missing token"))
		c.Abort()
		return nil, false
	}

	claims, err := jwt.VerifyToken(token, m.jwtSecret)
	if err != nil {
		message := "Invalid token"
		if errors.Is(err, jwt.ErrExpiredToken) {
			message = "Token expired"
		}
		response.Error(c, http.StatusUnauthorized, message, err)
		c.Abort()
		return nil, false
	}

	var usr User
	if err := m.db.WithContext(c.Request.Context()).First(&usr, claims.UserID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			response.Error(c, http.StatusUnauthorized, "User no longer exists", err)
		} else {
			response.ErrorWithLog(m.logger, c, http.StatusInternalServerError, "Internal Server Error", err)
		}
		c.Abort()
		return nil, false
	}

	SetUser(c, &usr)
	return &usr, true
}
