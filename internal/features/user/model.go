package user

import (
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/mo-amir99/course-server-go/pkg/database"
	"github.com/mo-amir99/course-server-go/pkg/pagination"
	"github.com/mo-amir99/course-server-go/pkg/types"
)

const bcryptCost = 10

// User represents an account holding a credit balance.
type User struct {
	types.BaseModel

	Name     string      `gorm:"type:varchar(255);not null" json:"name"`
	Email    string      `gorm:"type:varchar(255);not null;uniqueIndex" json:"email"`
	Password string      `gorm:"type:varchar(255);not null" json:"-"`
	Role     types.Role  `gorm:"type:varchar(20);not null;default:'student';index" json:"role"`
	Credits  types.Money `gorm:"type:numeric(12,2);not null;default:0" json:"credits"`
}

// TableName overrides the default table name.
func (User) TableName() string { return "users" }

// CreateInput carries data for creating a new user.
type CreateInput struct {
	Name     string
	Email    string
	Password string
	Role     types.Role
	Credits  types.Money
}

// List returns users ordered by id.
func List(db *gorm.DB, keyword string, params pagination.Params) ([]User, int64, error) {
	query := db.Model(&User{})
	if keyword != "" {
		like := "%" + strings.ToLower(keyword) + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(email) LIKE ?", like, like)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var users []User
	err := params.Apply(query.Order("id ASC")).Find(&users).Error
	return users, total, err
}

// Get retrieves a user by ID.
func Get(db *gorm.DB, id uint) (User, error) {
	var user User
	if err := db.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return user, ErrUserNotFound
		}
		return user, err
	}
	return user, nil
}

// GetByEmail retrieves a user by case-insensitive email.
func GetByEmail(db *gorm.DB, email string) (User, error) {
	var user User
	if err := db.First(&user, "LOWER(email) = ?", normalizeEmail(email)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return user, ErrUserNotFound
		}
		return user, err
	}
	return user, nil
}

// Create inserts a new user with a hashed password.
func Create(db *gorm.DB, input CreateInput) (User, error) {
	if strings.TrimSpace(input.Name) == "" {
		return User{}, ErrNameRequired
	}
	if len(input.Password) < 8 {
		return User{}, ErrInvalidPassword
	}
	if input.Credits.IsNegative() {
		return User{}, ErrInvalidAmount
	}

	role := input.Role
	if role == "" {
		role = types.RoleStudent
	}
	if !role.Valid() {
		return User{}, ErrInvalidRole
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcryptCost)
	if err != nil {
		return User{}, err
	}

	user := User{
		Name:     strings.TrimSpace(input.Name),
		Email:    normalizeEmail(input.Email),
		Password: string(hashed),
		Role:     role,
		Credits:  input.Credits,
	}

	if err := db.Create(&user).Error; err != nil {
		if database.IsUniqueViolation(err) {
			return user, ErrEmailTaken
		}
		return user, err
	}
	return user, nil
}

// GrantCredits adds amount to the user's balance and returns the updated user.
func GrantCredits(db *gorm.DB, id uint, amount types.Money) (User, error) {
	if !amount.GreaterThan(types.NewMoneyFromInt(0)) {
		return User{}, ErrInvalidAmount
	}

	result := db.Model(&User{}).
		Where("id = ?", id).
		Update("credits", gorm.Expr("credits + ?", amount))
	if result.Error != nil {
		return User{}, result.Error
	}
	if result.RowsAffected == 0 {
		return User{}, ErrUserNotFound
	}
	return Get(db, id)
}

// Debit subtracts amount from the balance only when it is covered.
// Run it inside the transaction that records what was paid for.
func Debit(tx *gorm.DB, id uint, amount types.Money) error {
	if amount.IsNegative() {
		return ErrInvalidAmount
	}
	if amount.IsZero() {
		return nil
	}

	result := tx.Model(&User{}).
		Where("id = ? AND credits >= ?", id, amount).
		Update("credits", gorm.Expr("credits - ?", amount))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrInsufficientCredits
	}
	return nil
}

// ComparePassword checks if the provided password matches the stored hash.
func (u *User) ComparePassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)) == nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
