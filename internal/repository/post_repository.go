package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/d60-Lab/eventboard/internal/model"
)

type PostRepository interface {
	Create(ctx context.Context, post *model.Post) error
	GetByID(ctx context.Context, id uint) (*model.Post, error)
	List(ctx context.Context) ([]*model.Post, error)
	ListByAuthor(ctx context.Context, authorID uint) ([]*model.Post, error)
	Delete(ctx context.Context, id uint) error
}

type postRepository struct {
	db *gorm.DB
}

func NewPostRepository(db *gorm.DB) PostRepository { return &postRepository{db: db} }

func (r *postRepository) Create(ctx context.Context, post *model.Post) error {
	return translate(conn(ctx, r.db).Create(post).Error)
}

func (r *postRepository) GetByID(ctx context.Context, id uint) (*model.Post, error) {
	var p model.Post
	if err := conn(ctx, r.db).Preload("Author").First(&p, id).Error; err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

func (r *postRepository) List(ctx context.Context) ([]*model.Post, error) {
	var res []*model.Post
	err := conn(ctx, r.db).Preload("Author").Order("id DESC").Find(&res).Error
	return res, err
}

func (r *postRepository) ListByAuthor(ctx context.Context, authorID uint) ([]*model.Post, error) {
	var res []*model.Post
	err := conn(ctx, r.db).
		Preload("Author").
		Where("author_id = ?", authorID).
		Order("id DESC").
		Find(&res).Error
	return res, err
}

// Delete 删除帖子；不存在时返回 ErrNotFound
func (r *postRepository) Delete(ctx context.Context, id uint) error {
	res := conn(ctx, r.db).Delete(&model.Post{}, id)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
