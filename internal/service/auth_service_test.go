package service

import (
	"context"
	"testing"

	"github.com/RoyceAzure/lab/storefront/internal/domain/model"
	"github.com/RoyceAzure/lab/storefront/internal/infra/repository/db"
	"github.com/RoyceAzure/lab/storefront/internal/pkg/apperr"
	"github.com/RoyceAzure/lab/storefront/internal/pkg/token"
	"github.com/stretchr/testify/suite"
	"golang.org/x/crypto/bcrypt"
)

type AuthServiceTestSuite struct {
	suite.Suite
	ctx         context.Context
	maker       *token.JWTMaker
	authService IAuthService
}

func (suite *AuthServiceTestSuite) SetupTest() {
	suite.ctx = context.Background()
	maker, err := token.NewJWTMaker("01234567890123456789012345678901")
	suite.Require().NoError(err)
	suite.maker = maker
	// 測試使用最低 cost
	suite.authService = NewAuthService(db.NewUserRepo(newTestDbDao(suite.T())), maker, 0, bcrypt.MinCost)
}

func TestAuthServiceTestSuite(t *testing.T) {
	suite.Run(t, new(AuthServiceTestSuite))
}

func (suite *AuthServiceTestSuite) TestRegisterThenLogin() {
	res, err := suite.authService.Register(suite.ctx, RegisterParams{Name: "Asha", Email: " Asha@Example.com ", Password: "secret1"})
	suite.Require().NoError(err)
	suite.Equal("asha@example.com", res.User.Email)
	suite.Equal(model.RoleUser, res.User.Role)
	suite.NotEqual("secret1", res.User.PasswordHash)

	payload, err := suite.maker.VerifyToken(res.Token)
	suite.Require().NoError(err)
	suite.Equal(res.User.UserID, payload.UserID)
	suite.Equal(string(model.RoleUser), payload.Role)

	login, err := suite.authService.Login(suite.ctx, "ASHA@example.com", "secret1")
	suite.Require().NoError(err)
	suite.Equal(res.User.UserID, login.User.UserID)
}

func (suite *AuthServiceTestSuite) TestRegisterDuplicateEmail() {
	_, err := suite.authService.Register(suite.ctx, RegisterParams{Name: "Asha", Email: "a@example.com", Password: "secret1"})
	suite.Require().NoError(err)
	_, err = suite.authService.Register(suite.ctx, RegisterParams{Name: "Other", Email: "A@example.com", Password: "secret2"})
	suite.True(apperr.IsCode(err, apperr.ValidationCode))
	suite.Equal("email", apperr.FieldsOf(err)[0].Field)
}

func (suite *AuthServiceTestSuite) TestRegisterValidation() {
	_, err := suite.authService.Register(suite.ctx, RegisterParams{Name: "A", Email: "nope", Password: "123"})
	suite.True(apperr.IsCode(err, apperr.ValidationCode))
	suite.Len(apperr.FieldsOf(err), 3)
}

func (suite *AuthServiceTestSuite) TestLoginFailuresAreIndistinguishable() {
	_, err := suite.authService.Register(suite.ctx, RegisterParams{Name: "Asha", Email: "a@example.com", Password: "secret1"})
	suite.Require().NoError(err)

	_, err = suite.authService.Login(suite.ctx, "a@example.com", "wrong")
	suite.ErrorIs(err, ErrInvalidCredentials)
	_, err = suite.authService.Login(suite.ctx, "ghost@example.com", "secret1")
	suite.ErrorIs(err, ErrInvalidCredentials)
	suite.True(apperr.IsCode(err, apperr.UnauthenticatedCode))
}
