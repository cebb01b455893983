package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/d60-Lab/eventboard/internal/model"
)

type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id uint) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
}

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository { return &userRepository{db: db} }

func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	return translate(conn(ctx, r.db).Create(user).Error)
}

func (r *userRepository) GetByID(ctx context.Context, id uint) (*model.User, error) {
	var u model.User
	if err := conn(ctx, r.db).First(&u, id).Error; err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	var u model.User
	if err := conn(ctx, r.db).Where("email = ?", email).First(&u).Error; err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

func (r *userRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var cnt int64
	if err := conn(ctx, r.db).
		Model(&model.User{}).
		Where("email = ?", email).
		Count(&cnt).Error; err != nil {
		return false, err
	}
	return cnt > 0, nil
}
