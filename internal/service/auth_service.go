package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/RoyceAzure/lab/storefront/internal/domain/model"
	"github.com/RoyceAzure/lab/storefront/internal/infra/repository"
	"github.com/RoyceAzure/lab/storefront/internal/pkg/apperr"
	"github.com/RoyceAzure/lab/storefront/internal/pkg/token"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const DefaultBcryptCost = 12

var (
	ErrInvalidCredentials = apperr.Unauthenticated("invalid credentials")
	ErrUserExists         = apperr.Validation("user already exists", apperr.FieldError{Field: "email", Message: "already registered"})
)

type IAuthService interface {
	// Register 建立一般使用者並簽發 token
	//
	// 錯誤:
	//   - 400: 欄位不合法，或 email 已註冊
	//   - 500: 寫入失敗
	Register(ctx context.Context, arg RegisterParams) (*AuthResult, error)
	// Login 以 email/密碼登入
	//
	// 錯誤:
	//   - 401: email 不存在或密碼錯誤，兩者不區分
	Login(ctx context.Context, email, password string) (*AuthResult, error)
}

type RegisterParams struct {
	Name     string
	Email    string
	Password string
	Phone    string
}

type AuthResult struct {
	Token string      `json:"token"`
	User  *model.User `json:"user"`
}

type AuthService struct {
	userRepo   repository.IUserRepository
	tokenMaker token.Maker
	tokenTTL   time.Duration
	bcryptCost int
}

func NewAuthService(userRepo repository.IUserRepository, tokenMaker token.Maker, tokenTTL time.Duration, bcryptCost int) IAuthService {
	if tokenTTL <= 0 {
		tokenTTL = token.DefaultTokenTTL
	}
	if bcryptCost < bcrypt.MinCost || bcryptCost > bcrypt.MaxCost {
		bcryptCost = DefaultBcryptCost
	}
	return &AuthService{
		userRepo:   userRepo,
		tokenMaker: tokenMaker,
		tokenTTL:   tokenTTL,
		bcryptCost: bcryptCost,
	}
}

func (a *AuthService) Register(ctx context.Context, arg RegisterParams) (*AuthResult, error) {
	arg.Name = strings.TrimSpace(arg.Name)
	arg.Email = strings.ToLower(strings.TrimSpace(arg.Email))

	var fields []apperr.FieldError
	if len([]rune(arg.Name)) < 2 {
		fields = append(fields, apperr.FieldError{Field: "name", Message: "must be at least 2 characters"})
	}
	if arg.Email == "" || !strings.Contains(arg.Email, "@") {
		fields = append(fields, apperr.FieldError{Field: "email", Message: "must be a valid email"})
	}
	if len(arg.Password) < 6 {
		fields = append(fields, apperr.FieldError{Field: "password", Message: "must be at least 6 characters"})
	}
	if len(fields) > 0 {
		return nil, apperr.Validation("invalid registration", fields...)
	}

	_, err := a.userRepo.GetUserByEmail(ctx, arg.Email)
	if err == nil {
		return nil, ErrUserExists
	}
	if !errors.Is(err, repository.ErrUserNotExist) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(arg.Password), a.bcryptCost)
	if err != nil {
		return nil, apperr.Persistence("failed to hash password", err)
	}

	user := &model.User{
		UserID:       uuid.NewString(),
		Name:         arg.Name,
		Email:        arg.Email,
		PasswordHash: string(hash),
		Phone:        strings.TrimSpace(arg.Phone),
		Role:         model.RoleUser,
	}
	if err := a.userRepo.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			return nil, ErrUserExists
		}
		return nil, err
	}
	return a.issue(user)
}

func (a *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	user, err := a.userRepo.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, repository.ErrUserNotExist) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return a.issue(user)
}

func (a *AuthService) issue(user *model.User) (*AuthResult, error) {
	tokenStr, _, err := a.tokenMaker.CreateToken(user.UserID, user.Email, string(user.Role), a.tokenTTL)
	if err != nil {
		return nil, fmt.Errorf("create access token: %w", err)
	}
	return &AuthResult{Token: tokenStr, User: user}, nil
}
