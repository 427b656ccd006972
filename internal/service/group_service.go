package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/d60-Lab/yatube/internal/model"
	"github.com/d60-Lab/yatube/internal/repository"
)

var slugPattern = regexp.MustCompile(`^[-a-zA-Z0-9_]+$`)

// ValidSlug reports whether s is a URL-safe group identifier.
func ValidSlug(s string) bool { return slugPattern.MatchString(s) }

type GroupInput struct {
	Title       string
	Slug        string
	Description string
}

type GroupService interface {
	Create(ctx context.Context, in GroupInput) (*model.Group, error)
	Delete(ctx context.Context, slug string) error
	List(ctx context.Context) ([]*model.Group, error)
}

type groupService struct {
	groupRepo repository.GroupRepository
}

func NewGroupService(groupRepo repository.GroupRepository) GroupService {
	return &groupService{groupRepo: groupRepo}
}

func (s *groupService) Create(ctx context.Context, in GroupInput) (*model.Group, error) {
	slug := strings.TrimSpace(in.Slug)
	if !ValidSlug(slug) {
		return nil, ErrInvalidSlug
	}
	if _, err := s.groupRepo.GetBySlug(ctx, slug); err == nil {
		return nil, ErrSlugTaken
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("lookup group: %w", err)
	}
	g := &model.Group{
		Title:       strings.TrimSpace(in.Title),
		Slug:        slug,
		Description: strings.TrimSpace(in.Description),
	}
	if err := s.groupRepo.Create(ctx, g); err != nil {
		return nil, fmt.Errorf("create group: %w", err)
	}
	return g, nil
}

// Delete 删除分组；其下帖子保留
func (s *groupService) Delete(ctx context.Context, slug string) error {
	g, err := s.groupRepo.GetBySlug(ctx, slug)
	if err != nil {
		return notFound(err)
	}
	return notFound(s.groupRepo.Delete(ctx, g.ID))
}

func (s *groupService) List(ctx context.Context) ([]*model.Group, error) {
	return s.groupRepo.List(ctx)
}
