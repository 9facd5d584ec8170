package service

import (
	"context"
	"testing"

	"github.com/RoyceAzure/lab/storefront/internal/domain/model"
	"github.com/RoyceAzure/lab/storefront/internal/infra/repository/db"
	"github.com/RoyceAzure/lab/storefront/internal/pkg/apperr"
	"github.com/stretchr/testify/require"
)

func TestUserServiceUpdateProfile(t *testing.T) {
	ctx := context.Background()
	repo := db.NewUserRepo(newTestDbDao(t))
	require.NoError(t, repo.CreateUser(ctx, &model.User{UserID: "u-1", Name: "Asha", Email: "a@example.com", PasswordHash: "x", Role: model.RoleUser}))
	svc := NewUserService(repo)

	user, err := svc.UpdateProfile(ctx, "u-1", UpdateProfileParams{
		Name:  "Asha Rao",
		Phone: "9876543210",
		Addresses: []model.Address{
			{Street: "1 A St", City: "Pune", State: "MH", Pincode: "411001", IsDefault: true},
			{Street: "2 B St", City: "Pune", State: "MH", Pincode: "411002", IsDefault: true},
		},
	})
	require.NoError(t, err)
	require.Equal(t, "Asha Rao", user.Name)
	require.Len(t, user.Addresses, 2)
	def, ok := user.DefaultAddress()
	require.True(t, ok)
	require.Equal(t, "1 A St", def.Street)

	defaults := 0
	for _, a := range user.Addresses {
		if a.IsDefault {
			defaults++
		}
	}
	require.Equal(t, 1, defaults)

	_, err = svc.UpdateProfile(ctx, "u-1", UpdateProfileParams{Name: "A"})
	require.True(t, apperr.IsCode(err, apperr.ValidationCode))

	_, err = svc.GetProfile(ctx, "ghost")
	require.True(t, apperr.IsCode(err, apperr.NotFoundCode))
}
