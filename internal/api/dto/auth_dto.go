package dto

import (
	"github.com/RoyceAzure/lab/storefront/internal/domain/model"
)

type RegisterDTO struct {
	Name     string `json:"name" validate:"required,min=2,max=50"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Phone    string `json:"phone" validate:"omitempty,max=20"`
}

type LoginDTO struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type AddressDTO struct {
	Street    string `json:"street" validate:"max=255"`
	City      string `json:"city" validate:"max=100"`
	State     string `json:"state" validate:"max=100"`
	Pincode   string `json:"pincode" validate:"max=20"`
	IsDefault bool   `json:"isDefault"`
}

type UpdateProfileDTO struct {
	Name      string       `json:"name" validate:"omitempty,min=2,max=50"`
	Phone     string       `json:"phone" validate:"omitempty,max=20"`
	Addresses []AddressDTO `json:"address" validate:"omitempty,dive"`
}

func (d UpdateProfileDTO) ToModelAddresses() []model.Address {
	if d.Addresses == nil {
		return nil
	}
	out := make([]model.Address, 0, len(d.Addresses))
	for _, a := range d.Addresses {
		out = append(out, model.Address{
			Street:    a.Street,
			City:      a.City,
			State:     a.State,
			Pincode:   a.Pincode,
			IsDefault: a.IsDefault,
		})
	}
	return out
}

// UserDTO 不含密碼雜湊
type UserDTO struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Email     string          `json:"email"`
	Phone     string          `json:"phone,omitempty"`
	Role      model.Role      `json:"role"`
	Addresses []model.Address `json:"address"`
}

func NewUserDTO(u *model.User) UserDTO {
	addrs := u.Addresses
	if addrs == nil {
		addrs = []model.Address{}
	}
	return UserDTO{
		ID:        u.UserID,
		Name:      u.Name,
		Email:     u.Email,
		Phone:     u.Phone,
		Role:      u.Role,
		Addresses: addrs,
	}
}

type AuthResponse struct {
	Token string  `json:"token"`
	User  UserDTO `json:"user"`
}
