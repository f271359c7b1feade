package main

import (
	"context"
	"testing"

	"cargo-logistics-service/internal/adapters/repositories"
	"cargo-logistics-service/internal/domain"
	"cargo-logistics-service/internal/platform/db"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateAdmin(t *testing.T) {
	ctx := context.Background()
	conn, err := db.Open("sqlite", ":memory:")
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, repositories.InitSchema(ctx, conn))

	u, err := createAdmin(ctx, conn, adminInput{
		Email: "Root@Cargo.example", Password: "a-long-password", FirstName: "Root", LastName: "User",
	})
	require.NoError(t, err)
	assert.Equal(t, "root@cargo.example", u.Email)
	assert.Equal(t, domain.UserTypeAdmin, u.UserType)
	assert.NotEqual(t, "a-long-password", u.PasswordHash)

	_, err = createAdmin(ctx, conn, adminInput{Email: "root@cargo.example", Password: "a-long-password", FirstName: "A", LastName: "B"})
	assert.ErrorIs(t, err, domain.ErrValidation, "duplicate email")

	_, err = createAdmin(ctx, conn, adminInput{Email: "short@cargo.example", Password: "x", FirstName: "A", LastName: "B"})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestCommandsAreRegistered(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	assert.True(t, names["migrate"])
	assert.True(t, names["seed"])
	assert.True(t, names["create-admin"])
	assert.NotNil(t, createAdminCmd.Flags().Lookup("first-name"))
}
