package service

import (
	"context"
	"strings"

	"github.com/RoyceAzure/lab/storefront/internal/domain/model"
	"github.com/RoyceAzure/lab/storefront/internal/infra/repository"
	"github.com/RoyceAzure/lab/storefront/internal/pkg/apperr"
)

type IUserService interface {
	GetProfile(ctx context.Context, userID string) (*model.User, error)
	UpdateProfile(ctx context.Context, userID string, arg UpdateProfileParams) (*model.User, error)
}

type UpdateProfileParams struct {
	Name      string
	Phone     string
	Addresses []model.Address
}

type UserService struct {
	userRepo repository.IUserRepository
}

func NewUserService(userRepo repository.IUserRepository) *UserService {
	return &UserService{userRepo: userRepo}
}

func (u *UserService) GetProfile(ctx context.Context, userID string) (*model.User, error) {
	return u.userRepo.GetUserByID(ctx, userID)
}

// UpdateProfile 最多一個預設地址，未指定時第一筆為預設
func (u *UserService) UpdateProfile(ctx context.Context, userID string, arg UpdateProfileParams) (*model.User, error) {
	user, err := u.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if name := strings.TrimSpace(arg.Name); name != "" {
		if len([]rune(name)) < 2 {
			return nil, apperr.Validation("invalid profile", apperr.FieldError{Field: "name", Message: "must be at least 2 characters"})
		}
		user.Name = name
	}
	user.Phone = strings.TrimSpace(arg.Phone)
	if arg.Addresses != nil {
		user.Addresses = normalizeAddresses(arg.Addresses)
	}
	if err := u.userRepo.UpdateUserProfile(ctx, user); err != nil {
		return nil, err
	}
	return u.userRepo.GetUserByID(ctx, userID)
}

func normalizeAddresses(in []model.Address) []model.Address {
	out := make([]model.Address, len(in))
	copy(out, in)
	seenDefault := false
	for i := range out {
		if out[i].IsDefault && !seenDefault {
			seenDefault = true
			continue
		}
		out[i].IsDefault = false
	}
	if !seenDefault && len(out) > 0 {
		out[0].IsDefault = true
	}
	return out
}
