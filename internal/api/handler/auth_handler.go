package handler

import (
	"net/http"

	"github.com/RoyceAzure/lab/storefront/internal/api/dto"
	"github.com/RoyceAzure/lab/storefront/internal/pkg/response"
	"github.com/RoyceAzure/lab/storefront/internal/service"
	"github.com/RoyceAzure/lab/storefront/internal/util"
)

type AuthHandler struct {
	authService service.IAuthService
	userService service.IUserService
}

func NewAuthHandler(authService service.IAuthService, userService service.IUserService) *AuthHandler {
	if authService == nil || userService == nil {
		panic("authService and userService cannot be nil")
	}
	return &AuthHandler{
		authService: authService,
		userService: userService,
	}
}

// Register POST /auth/register
func (a *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req dto.RegisterDTO
	if err := dto.Bind(r, &req); err != nil {
		response.ErrorJSON(w, err)
		return
	}
	res, err := a.authService.Register(r.Context(), service.RegisterParams{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Phone:    req.Phone,
	})
	if err != nil {
		response.ErrorJSON(w, err)
		return
	}
	response.CreatedJSON(w, dto.AuthResponse{Token: res.Token, User: dto.NewUserDTO(res.User)})
}

// Login POST /auth/login
func (a *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginDTO
	if err := dto.Bind(r, &req); err != nil {
		response.ErrorJSON(w, err)
		return
	}
	res, err := a.authService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		response.ErrorJSON(w, err)
		return
	}
	response.SuccessJSON(w, dto.AuthResponse{Token: res.Token, User: dto.NewUserDTO(res.User)})
}

// Profile GET /auth/profile
func (a *AuthHandler) Profile(w http.ResponseWriter, r *http.Request) {
	user, err := a.userService.GetProfile(r.Context(), util.GetUserIDFromContext(r.Context()))
	if err != nil {
		response.ErrorJSON(w, err)
		return
	}
	response.SuccessJSON(w, dto.NewUserDTO(user))
}

// UpdateProfile PUT /auth/profile
func (a *AuthHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req dto.UpdateProfileDTO
	if err := dto.Bind(r, &req); err != nil {
		response.ErrorJSON(w, err)
		return
	}
	user, err := a.userService.UpdateProfile(r.Context(), util.GetUserIDFromContext(r.Context()), service.UpdateProfileParams{
		Name:      req.Name,
		Phone:     req.Phone,
		Addresses: req.ToModelAddresses(),
	})
	if err != nil {
		response.ErrorJSON(w, err)
		return
	}
	response.SuccessJSON(w, dto.NewUserDTO(user))
}
