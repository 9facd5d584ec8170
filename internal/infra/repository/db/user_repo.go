package db

import (
	"context"
	"strings"

	"github.com/RoyceAzure/lab/storefront/internal/domain/model"
	"github.com/RoyceAzure/lab/storefront/internal/infra/repository"
	"gorm.io/gorm"
)

type UserRepo struct {
	dbDao *DbDao
}

func NewUserRepo(dbDao *DbDao) *UserRepo {
	return &UserRepo{dbDao: dbDao}
}

// CreateUser email 統一轉小寫存放
func (s *UserRepo) CreateUser(ctx context.Context, user *model.User) error {
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	err := s.dbDao.WithContext(ctx).Create(user).Error
	return translate(err, repository.ErrUserNotExist, "failed to create user")
}

func (s *UserRepo) GetUserByID(ctx context.Context, userID string) (*model.User, error) {
	var user model.User
	err := s.dbDao.WithContext(ctx).Preload("Addresses").First(&user, "user_id = ?", userID).Error
	if err != nil {
		return nil, translate(err, repository.ErrUserNotExist, "failed to get user")
	}
	return &user, nil
}

func (s *UserRepo) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	err := s.dbDao.WithContext(ctx).
		Preload("Addresses").
		Where("email = ?", strings.ToLower(strings.TrimSpace(email))).
		First(&user).Error
	if err != nil {
		return nil, translate(err, repository.ErrUserNotExist, "failed to get user")
	}
	return &user, nil
}

// UpdateUserProfile 更新姓名、電話，地址整批替換
func (s *UserRepo) UpdateUserProfile(ctx context.Context, user *model.User) error {
	err := s.dbDao.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.User{}).
			Where("user_id = ?", user.UserID).
			Updates(map[string]any{"name": user.Name, "phone": user.Phone})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		if err := tx.Where("user_id = ?", user.UserID).Delete(&model.Address{}).Error; err != nil {
			return err
		}
		for i := range user.Addresses {
			user.Addresses[i].ID = 0
			user.Addresses[i].UserID = user.UserID
		}
		if len(user.Addresses) > 0 {
			return tx.Create(&user.Addresses).Error
		}
		return nil
	})
	return translate(err, repository.ErrUserNotExist, "failed to update user")
}

var _ repository.IUserRepository = (*UserRepo)(nil)
