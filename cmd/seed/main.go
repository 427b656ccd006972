package main

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"sort"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/d60-Lab/yatube/config"
	"github.com/d60-Lab/yatube/internal/model"
	"github.com/d60-Lab/yatube/internal/repository"
	"github.com/d60-Lab/yatube/internal/service"
	"github.com/d60-Lab/yatube/internal/storage"
	"github.com/d60-Lab/yatube/pkg/database"
	"github.com/d60-Lab/yatube/pkg/logger"
)

func must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}

func envInt(name string, def int) int {
	if s := os.Getenv(name); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n >= 0 {
			return n
		}
	}
	return def
}

func envString(name, def string) string {
	if s := os.Getenv(name); s != "" {
		return s
	}
	return def
}

// seed fills the configured database with demo data:
// a staff account, GROUPS groups, USERS authors with POSTS posts each,
// and every author following the first one. It then times feed queries.
func main() {
	cfg := must(config.Load())
	if err := logger.Init(cfg.Log.Level, cfg.Log.Format); err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()
	db := must(database.InitDB(cfg))

	// repositories & services
	userRepo := repository.NewUserRepository(db)
	groupRepo := repository.NewGroupRepository(db)
	postRepo := repository.NewPostRepository(db)
	followRepo := repository.NewFollowRepository(db)
	media := storage.NewLocalStorage(cfg.Media.Root, cfg.Media.URL, cfg.Media.MaxUploadMB<<20)
	authSvc := service.NewAuthService(userRepo, cfg.Auth.JWTSecret, cfg.Auth.SessionTTL)
	groupSvc := service.NewGroupService(groupRepo)
	postSvc := service.NewPostService(postRepo, repository.NewCommentRepository(db), groupRepo, userRepo, followRepo, media, cfg.Pagination.PerPage)
	relSvc := service.NewRelationshipService(followRepo, userRepo, cfg.Pagination.PerPage)

	ctx := context.Background()
	users := envInt("USERS", 20)
	postsPer := envInt("POSTS", 13)
	groups := envInt("GROUPS", 3)
	runs := envInt("RUNS", 50)

	staff := ensureUser(ctx, authSvc, userRepo, service.RegisterInput{
		Username: envString("STAFF_USERNAME", "admin"),
		Password: envString("STAFF_PASSWORD", "admin-password"),
		Email:    "admin@example.com",
		IsStaff:  true,
	})

	groupIDs := make([]uint, 0, groups)
	for i := 0; i < groups; i++ {
		slug := fmt.Sprintf("group-%d", i+1)
		g, err := groupSvc.Create(ctx, service.GroupInput{
			Title:       fmt.Sprintf("Group %d", i+1),
			Slug:        slug,
			Description: "Demo group " + strconv.Itoa(i+1),
		})
		if errors.Is(err, service.ErrSlugTaken) {
			g = must(groupRepo.GetBySlug(ctx, slug))
		} else if err != nil {
			panic(err)
		}
		groupIDs = append(groupIDs, g.ID)
	}

	authors := make([]*model.User, 0, users)
	for i := 0; i < users; i++ {
		authors = append(authors, ensureUser(ctx, authSvc, userRepo, service.RegisterInput{
			Username: fmt.Sprintf("author%d", i+1),
			Password: "password-" + strconv.Itoa(i+1),
			Email:    fmt.Sprintf("author%d@example.com", i+1),
		}))
	}

	t0 := time.Now()
	created := 0
	for i, a := range authors {
		for j := 0; j < postsPer; j++ {
			in := service.PostInput{Text: fmt.Sprintf("Post %d by %s", j+1, a.Username)}
			if len(groupIDs) > 0 {
				in.GroupID = &groupIDs[(i+j)%len(groupIDs)]
			}
			if _, err := postSvc.Create(ctx, a, in); err != nil {
				panic(err)
			}
			created++
		}
	}
	writeDur := time.Since(t0)

	if len(authors) > 0 {
		for _, a := range append(authors[1:], staff) {
			if _, err := relSvc.Follow(ctx, a, authors[0].Username); err != nil && !errors.Is(err, service.ErrFollowSelf) {
				panic(err)
			}
		}
	}

	// feed queries for the staff account, which follows author1
	samples := make([]time.Duration, 0, runs)
	for i := 0; i < runs; i++ {
		st := time.Now()
		if _, err := postSvc.Feed(ctx, staff, strconv.Itoa(i%3+1)); err != nil {
			panic(err)
		}
		samples = append(samples, time.Since(st))
	}

	pct := func(vs []time.Duration, p float64) time.Duration {
		if len(vs) == 0 {
			return 0
		}
		xs := append([]time.Duration(nil), vs...)
		sort.Slice(xs, func(i, j int) bool { return xs[i] < xs[j] })
		k := int(math.Ceil(p*float64(len(xs)))) - 1
		if k < 0 {
			k = 0
		}
		return xs[k]
	}

	fmt.Printf("USERS=%d, POSTS=%d, GROUPS=%d\n", users, postsPer, groups)
	fmt.Printf("created %d posts in %v\n", created, writeDur)
	fmt.Printf("feed query (%d runs): p50=%v, p95=%v, p99=%v\n", runs, pct(samples, 0.50), pct(samples, 0.95), pct(samples, 0.99))
	logger.Info("seed finished", zap.String("staff", staff.Username), zap.Int("posts", created))
}

func ensureUser(ctx context.Context, auth service.AuthService, users repository.UserRepository, in service.RegisterInput) *model.User {
	u, err := auth.Register(ctx, in)
	if errors.Is(err, service.ErrUsernameTaken) {
		return must(users.GetByUsername(ctx, in.Username))
	}
	return must(u, err)
}
