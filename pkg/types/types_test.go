package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMoneyBetween(t *testing.T) {
	min := NewMoneyFromInt(0)
	max := NewMoneyFromInt(1000)

	cases := map[string]bool{
		"0":       true,
		"1000":    true,
		"999.99":  true,
		"1000.01": false,
		"-0.01":   false,
	}

	for raw, want := range cases {
		value, err := NewMoneyFromString(raw)
		require.NoError(t, err)
		assert.Equal(t, want, value.Between(min, max), raw)
	}
}

func TestMoneyArithmetic(t *testing.T) {
	balance := NewMoneyFromInt(50)
	price, err := NewMoneyFromString("12.50")
	require.NoError(t, err)

	left := balance.Sub(price)
	assert.Equal(t, "37.5", left.String())
	assert.True(t, left.Add(price).Equal(balance))
	assert.True(t, price.Sub(balance).IsNegative())
}

func TestMoneyJSON(t *testing.T) {
	price, err := NewMoneyFromString("19.99")
	require.NoError(t, err)

	data, err := json.Marshal(price)
	require.NoError(t, err)

	var decoded Money
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.True(t, decoded.Equal(price))
}

func TestRoleValid(t *testing.T) {
	assert.True(t, RoleAdmin.Valid())
	assert.True(t, RoleStudent.Valid())
	assert.False(t, Role("superadmin").Valid())
}
