package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/d60-Lab/eventboard/internal/model"
	"github.com/d60-Lab/eventboard/internal/repository"
)

// CreatePostInput 发帖参数；日期已由表单层解析
type CreatePostInput struct {
	Title     string
	Subtitle  string
	StartDate time.Time
	EndDate   time.Time
	Details   string
	Contact   string
	JoinURL   string
}

// PostService 活动帖子服务
type PostService interface {
	List(ctx context.Context) ([]*model.Post, error)
	ListByAuthor(ctx context.Context, authorID uint) ([]*model.Post, error)
	Get(ctx context.Context, id uint) (*model.Post, error)
	Create(ctx context.Context, author *model.User, in CreatePostInput) (*model.Post, error)
	// Delete removes a post regardless of who authored it.
	Delete(ctx context.Context, id uint) error
}

type postService struct {
	posts repository.PostRepository
	now   func() time.Time
}

func NewPostService(posts repository.PostRepository) PostService {
	return NewPostServiceWithClock(posts, time.Now)
}

// NewPostServiceWithClock lets callers fix the creation date.
func NewPostServiceWithClock(posts repository.PostRepository, now func() time.Time) PostService {
	return &postService{posts: posts, now: now}
}

func (s *postService) List(ctx context.Context) ([]*model.Post, error) {
	return s.posts.List(ctx)
}

func (s *postService) ListByAuthor(ctx context.Context, authorID uint) ([]*model.Post, error) {
	return s.posts.ListByAuthor(ctx, authorID)
}

func (s *postService) Get(ctx context.Context, id uint) (*model.Post, error) {
	p, err := s.posts.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return p, nil
}

func (s *postService) Create(ctx context.Context, author *model.User, in CreatePostInput) (*model.Post, error) {
	if author == nil || author.ID == 0 {
		return nil, errors.New("post author is required")
	}
	p := &model.Post{
		Title:     in.Title,
		Subtitle:  in.Subtitle,
		AuthorID:  author.ID,
		Date:      s.now().Format(model.CreatedDateLayout),
		StartDate: in.StartDate.Format(model.EventDateLayout),
		EndDate:   in.EndDate.Format(model.EventDateLayout),
		Details:   in.Details,
		FormURL:   in.JoinURL,
	}
	if in.Contact != "" {
		contact := in.Contact
		p.Contact = &contact
	}
	if err := s.posts.Create(ctx, p); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrTitleTaken
		}
		return nil, fmt.Errorf("create post: %w", err)
	}
	p.Author = author
	return p, nil
}

func (s *postService) Delete(ctx context.Context, id uint) error {
	if err := s.posts.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	return nil
}
