package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/d60-Lab/eventboard/config"
	"github.com/d60-Lab/eventboard/internal/model"
	"github.com/d60-Lab/eventboard/internal/repository"
	"github.com/d60-Lab/eventboard/internal/service"
	"github.com/d60-Lab/eventboard/pkg/database"
	"github.com/d60-Lab/eventboard/pkg/logger"
)

func must[T any](v T, err error) T {
	if err != nil {
		logger.Fatal("seed failed", zap.Error(err))
	}
	return v
}

func envInt(key string, def int) int {
	if s := os.Getenv(key); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return def
}

// seed 填充演示数据：USERS 个用户，每人 POSTS 个活动
func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	if err := logger.Init(cfg.Log.Level, cfg.Log.Format); err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()

	db := must(database.InitDB(cfg))

	userRepo := repository.NewUserRepository(db)
	postRepo := repository.NewPostRepository(db)
	authSvc := service.NewAuthService(userRepo, repository.NewTransactor(db), service.NewPasswordHasher(cfg.Auth.HashPasswords))
	postSvc := service.NewPostService(postRepo)

	ctx := context.Background()
	nUsers := envInt("USERS", 5)
	nPosts := envInt("POSTS", 3)

	t0 := time.Now()
	created := 0
	for i := 0; i < nUsers; i++ {
		in := service.RegisterInput{
			Email:    fmt.Sprintf("demo%02d@example.com", i),
			Password: "demo",
			Name:     fmt.Sprintf("Demo %02d", i),
		}
		if _, err := authSvc.Register(ctx, in); err != nil && !errors.Is(err, service.ErrEmailTaken) {
			logger.Fatal("register demo user", zap.String("email", in.Email), zap.Error(err))
		}
		author := must(userRepo.GetByEmail(ctx, in.Email))

		for j := 0; j < nPosts; j++ {
			start := time.Now().AddDate(0, 0, 7*(j+1))
			_, err := postSvc.Create(ctx, author, service.CreatePostInput{
				Title:     fmt.Sprintf("%s meetup #%d", author.Name, j+1),
				Subtitle:  "Community gathering",
				StartDate: start,
				EndDate:   start.AddDate(0, 0, 1),
				Details:   "Bring a friend.\nSnacks provided.",
				Contact:   in.Email,
				JoinURL:   "https://example.com/join",
			})
			switch {
			case err == nil:
				created++
			case errors.Is(err, service.ErrTitleTaken):
				// already seeded
			default:
				logger.Fatal("create demo post", zap.Error(err))
			}
		}
	}

	logger.Info("seed done",
		zap.Int("users", nUsers),
		zap.Int("posts_created", created),
		zap.Duration("took", time.Since(t0)),
	)
}
