package user

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mo-amir99/course-server-go/internal/testutil"
	"github.com/mo-amir99/course-server-go/pkg/types"
)

func TestCreateNormalizesAndRejectsDuplicates(t *testing.T) {
	db := testutil.NewDB(t, &User{})

	usr, err := Create(db, CreateInput{Name: " Ada ", Email: " Ada@Example.com ", Password: "password1"})
	require.NoError(t, err)
	assert.Equal(t, "Ada", usr.Name)
	assert.Equal(t, "ada@example.com", usr.Email)
	assert.Equal(t, types.RoleStudent, usr.Role)
	assert.True(t, usr.ComparePassword("password1"))
	assert.False(t, usr.ComparePassword("password2"))

	_, err = Create(db, CreateInput{Name: "Other", Email: "ada@example.com", Password: "password1"})
	assert.ErrorIs(t, err, ErrEmailTaken)

	_, err = Create(db, CreateInput{Name: "Short", Email: "s@example.com", Password: "short"})
	assert.ErrorIs(t, err, ErrInvalidPassword)
}

func TestDebitOnlyWhenCovered(t *testing.T) {
	db := testutil.NewDB(t, &User{})

	usr, err := Create(db, CreateInput{Name: "Bob", Email: "bob@example.com", Password: "password1", Credits: types.NewMoneyFromInt(50)})
	require.NoError(t, err)

	assert.ErrorIs(t, Debit(db, usr.ID, types.NewMoneyFromInt(60)), ErrInsufficientCredits)
	require.NoError(t, Debit(db, usr.ID, types.NewMoney(49.5)))

	reloaded, err := Get(db, usr.ID)
	require.NoError(t, err)
	assert.True(t, reloaded.Credits.Equal(types.NewMoney(0.5)), reloaded.Credits.String())

	require.NoError(t, Debit(db, usr.ID, types.NewMoneyFromInt(0)))
	assert.ErrorIs(t, Debit(db, usr.ID, types.NewMoneyFromInt(-1)), ErrInvalidAmount)
}

func TestGrantCredits(t *testing.T) {
	db := testutil.NewDB(t, &User{})

	usr, err := Create(db, CreateInput{Name: "Cy", Email: "cy@example.com", Password: "password1"})
	require.NoError(t, err)

	updated, err := GrantCredits(db, usr.ID, types.NewMoneyFromInt(25))
	require.NoError(t, err)
	assert.True(t, updated.Credits.Equal(types.NewMoneyFromInt(25)))

	_, err = GrantCredits(db, usr.ID, types.NewMoneyFromInt(0))
	assert.ErrorIs(t, err, ErrInvalidAmount)

	_, err = GrantCredits(db, 999, types.NewMoneyFromInt(5))
	assert.ErrorIs(t, err, ErrUserNotFound)
}
