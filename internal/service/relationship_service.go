package service

import (
	"context"
	"fmt"

	"github.com/samber/lo"

	"github.com/d60-Lab/yatube/internal/model"
	"github.com/d60-Lab/yatube/internal/pagination"
	"github.com/d60-Lab/yatube/internal/repository"
)

// RelationshipService 关系链服务
type RelationshipService interface {
	Follow(ctx context.Context, user *model.User, username string) (*model.User, error)
	Unfollow(ctx context.Context, user *model.User, username string) (*model.User, error)
	ListFollowing(ctx context.Context, username, page string) (*pagination.Page[string], error)
}

type relationshipService struct {
	followRepo repository.FollowRepository
	userRepo   repository.UserRepository
	perPage    int
}

func NewRelationshipService(followRepo repository.FollowRepository, userRepo repository.UserRepository, perPage int) RelationshipService {
	if perPage <= 0 {
		perPage = pagination.DefaultPerPage
	}
	return &relationshipService{followRepo: followRepo, userRepo: userRepo, perPage: perPage}
}

// Follow returns the target author. Following oneself yields ErrFollowSelf and
// writes nothing; following twice keeps a single row.
func (s *relationshipService) Follow(ctx context.Context, user *model.User, username string) (*model.User, error) {
	author, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return nil, notFound(err)
	}
	if user.ID == author.ID {
		return author, ErrFollowSelf
	}
	if err := s.followRepo.Create(ctx, user.ID, author.ID); err != nil {
		return nil, fmt.Errorf("create follow: %w", err)
	}
	return author, nil
}

func (s *relationshipService) Unfollow(ctx context.Context, user *model.User, username string) (*model.User, error) {
	author, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return nil, notFound(err)
	}
	if user.ID == author.ID {
		return author, ErrFollowSelf
	}
	deleted, err := s.followRepo.Delete(ctx, user.ID, author.ID)
	if err != nil {
		return nil, fmt.Errorf("delete follow: %w", err)
	}
	if !deleted {
		return author, ErrNotFollowing
	}
	return author, nil
}

func (s *relationshipService) ListFollowing(ctx context.Context, username, page string) (*pagination.Page[string], error) {
	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return nil, notFound(err)
	}
	count, err := s.followRepo.CountFollowings(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	w := pagination.Resolve(count, page, s.perPage)
	items, err := s.followRepo.ListFollowings(ctx, user.ID, w.Offset, w.Limit)
	if err != nil {
		return nil, err
	}
	names := lo.Map(items, func(f *model.Follow, _ int) string { return f.Author.Username })
	return pagination.New(names, count, w), nil
}
