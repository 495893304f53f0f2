package config

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPasswordConfig(t *testing.T) {
	t.Setenv("BCRYPT_COST", "")
	t.Setenv("PASSWORD_PEPPER", "")
	cfg, err := NewPasswordConfig()
	require.NoError(t, err)
	assert.Equal(t, 12, cfg.BcryptCost)

	t.Setenv("BCRYPT_COST", "9")
	_, err = NewPasswordConfig()
	assert.ErrorContains(t, err, "out of range")

	t.Setenv("BCRYPT_COST", "ten")
	_, err = NewPasswordConfig()
	assert.ErrorContains(t, err, "invalid BCRYPT_COST")
}

func TestPasswordConfig_HashAndVerify(t *testing.T) {
	cfg := &PasswordConfig{BcryptCost: 10}
	hash, err := cfg.HashPassword("correct horse battery")
	require.NoError(t, err)

	assert.True(t, cfg.VerifyPassword("correct horse battery", hash))
	assert.False(t, cfg.VerifyPassword("wrong", hash))

	again, err := cfg.HashPassword("correct horse battery")
	require.NoError(t, err)
	assert.NotEqual(t, hash, again, "salts differ")
}

func TestPasswordConfig_Pepper(t *testing.T) {
	peppered := &PasswordConfig{BcryptCost: 10, Pepper: "server-secret"}
	hash, err := peppered.HashPassword("hunter22")
	require.NoError(t, err)

	assert.True(t, peppered.VerifyPassword("hunter22", hash))
	plain := &PasswordConfig{BcryptCost: 10}
	assert.False(t, plain.VerifyPassword("hunter22", hash), "a rotated pepper invalidates hashes")
}

func TestPasswordConfig_TooLong(t *testing.T) {
	cfg := &PasswordConfig{BcryptCost: 10}
	_, err := cfg.HashPassword(strings.Repeat("a", 73))
	assert.ErrorIs(t, err, ErrPasswordTooLong)
	assert.False(t, cfg.VerifyPassword(strings.Repeat("a", 73), "$2a$10$whatever"))
}
