package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/d60-Lab/eventboard/internal/model"
	"github.com/d60-Lab/eventboard/internal/repository"
	"github.com/d60-Lab/eventboard/pkg/logger"
)

// RegisterInput 注册参数
type RegisterInput struct {
	Email    string
	Password string
	Name     string
}

// AuthService 注册与登录
type AuthService interface {
	// Register creates a user. ErrEmailTaken means the pre-check found the
	// email; ErrConflict means a concurrent insert won the unique race.
	Register(ctx context.Context, in RegisterInput) (*model.User, error)
	Login(ctx context.Context, email, password string) (*model.User, error)
}

type authService struct {
	users  repository.UserRepository
	tx     repository.Transactor
	hasher PasswordHasher
}

// NewAuthService wires the auth use cases. A nil tx runs registration
// without a surrounding transaction; a nil hasher keeps plaintext passwords.
func NewAuthService(users repository.UserRepository, tx repository.Transactor, hasher PasswordHasher) AuthService {
	if tx == nil {
		tx = repository.NewTransactor(nil)
	}
	if hasher == nil {
		hasher = PlaintextPasswords{}
	}
	return &authService{users: users, tx: tx, hasher: hasher}
}

func (s *authService) Register(ctx context.Context, in RegisterInput) (*model.User, error) {
	stored, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	u := &model.User{Email: in.Email, Password: stored, Name: in.Name}

	// 事务内：先查重再插入
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		exists, err := s.users.ExistsByEmail(ctx, in.Email)
		if err != nil {
			return fmt.Errorf("check email: %w", err)
		}
		if exists {
			return ErrEmailTaken
		}
		if err := s.users.Create(ctx, u); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				logger.Warn("concurrent registration lost unique race", zap.String("email", in.Email))
				return fmt.Errorf("%w: %w", ErrConflict, err)
			}
			return fmt.Errorf("create user: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return u, nil
}

func (s *authService) Login(ctx context.Context, email, password string) (*model.User, error) {
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUnknownEmail
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	ok, err := s.hasher.Matches(u.Password, password)
	if err != nil {
		return nil, fmt.Errorf("compare password: %w", err)
	}
	if !ok {
		return nil, ErrWrongPassword
	}
	return u, nil
}
