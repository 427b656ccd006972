package service

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"strings"

	"go.uber.org/zap"

	"github.com/d60-Lab/yatube/internal/model"
	"github.com/d60-Lab/yatube/internal/pagination"
	"github.com/d60-Lab/yatube/internal/repository"
	"github.com/d60-Lab/yatube/internal/storage"
	"github.com/d60-Lab/yatube/pkg/logger"
)

const postImageDir = "posts"

type PostPage = pagination.Page[*model.Post]

// PostInput carries the editable fields of a post.
type PostInput struct {
	Text       string
	GroupID    *uint
	Image      *multipart.FileHeader
	ClearImage bool
}

type ProfileView struct {
	Author         *model.User
	Page           *PostPage
	Following      bool
	FollowersCount int64
	FollowingCount int64
}

type PostDetail struct {
	Post             *model.Post
	Comments         []*model.Comment
	AuthorPostsCount int64
}

// PostService 帖子、评论与订阅流
type PostService interface {
	Index(ctx context.Context, page string) (*PostPage, error)
	GroupPosts(ctx context.Context, slug, page string) (*model.Group, *PostPage, error)
	Profile(ctx context.Context, username string, viewer *model.User, page string) (*ProfileView, error)
	Feed(ctx context.Context, user *model.User, page string) (*PostPage, error)
	Get(ctx context.Context, id uint) (*model.Post, error)
	Detail(ctx context.Context, id uint) (*PostDetail, error)
	Create(ctx context.Context, author *model.User, in PostInput) (*model.Post, error)
	Update(ctx context.Context, editor *model.User, id uint, in PostInput) (*model.Post, error)
	AddComment(ctx context.Context, author *model.User, postID uint, text string) (*model.Comment, error)
	Delete(ctx context.Context, id uint) error
}

type postService struct {
	postRepo    repository.PostRepository
	commentRepo repository.CommentRepository
	groupRepo   repository.GroupRepository
	userRepo    repository.UserRepository
	followRepo  repository.FollowRepository
	media       storage.MediaStorage
	perPage     int
}

func NewPostService(
	postRepo repository.PostRepository,
	commentRepo repository.CommentRepository,
	groupRepo repository.GroupRepository,
	userRepo repository.UserRepository,
	followRepo repository.FollowRepository,
	media storage.MediaStorage,
	perPage int,
) PostService {
	if perPage <= 0 {
		perPage = pagination.DefaultPerPage
	}
	return &postService{
		postRepo:    postRepo,
		commentRepo: commentRepo,
		groupRepo:   groupRepo,
		userRepo:    userRepo,
		followRepo:  followRepo,
		media:       media,
		perPage:     perPage,
	}
}

func (s *postService) paginate(ctx context.Context, f repository.PostFilter, raw string) (*PostPage, error) {
	count, err := s.postRepo.Count(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("count posts: %w", err)
	}
	w := pagination.Resolve(count, raw, s.perPage)
	items, err := s.postRepo.List(ctx, f, w.Offset, w.Limit)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	return pagination.New(items, count, w), nil
}

func (s *postService) Index(ctx context.Context, page string) (*PostPage, error) {
	return s.paginate(ctx, repository.PostFilter{}, page)
}

func (s *postService) GroupPosts(ctx context.Context, slug, page string) (*model.Group, *PostPage, error) {
	group, err := s.groupRepo.GetBySlug(ctx, slug)
	if err != nil {
		return nil, nil, notFound(err)
	}
	p, err := s.paginate(ctx, repository.PostFilter{GroupID: group.ID}, page)
	if err != nil {
		return nil, nil, err
	}
	return group, p, nil
}

func (s *postService) Profile(ctx context.Context, username string, viewer *model.User, page string) (*ProfileView, error) {
	author, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return nil, notFound(err)
	}
	p, err := s.paginate(ctx, repository.PostFilter{AuthorID: author.ID}, page)
	if err != nil {
		return nil, err
	}
	view := &ProfileView{Author: author, Page: p}
	if viewer != nil {
		if view.Following, err = s.followRepo.Exists(ctx, viewer.ID, author.ID); err != nil {
			return nil, fmt.Errorf("check follow: %w", err)
		}
	}
	if view.FollowersCount, err = s.followRepo.CountFollowers(ctx, author.ID); err != nil {
		return nil, fmt.Errorf("count followers: %w", err)
	}
	if view.FollowingCount, err = s.followRepo.CountFollowings(ctx, author.ID); err != nil {
		return nil, fmt.Errorf("count followings: %w", err)
	}
	return view, nil
}

func (s *postService) Feed(ctx context.Context, user *model.User, page string) (*PostPage, error) {
	return s.paginate(ctx, repository.PostFilter{FollowerID: user.ID}, page)
}

func (s *postService) Get(ctx context.Context, id uint) (*model.Post, error) {
	post, err := s.postRepo.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err)
	}
	return post, nil
}

func (s *postService) Detail(ctx context.Context, id uint) (*PostDetail, error) {
	post, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	comments, err := s.commentRepo.ListByPost(ctx, post.ID)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	count, err := s.postRepo.Count(ctx, repository.PostFilter{AuthorID: post.AuthorID})
	if err != nil {
		return nil, fmt.Errorf("count author posts: %w", err)
	}
	return &PostDetail{Post: post, Comments: comments, AuthorPostsCount: count}, nil
}

// Create 作者总是当前用户，忽略请求中的任何 author 字段
func (s *postService) Create(ctx context.Context, author *model.User, in PostInput) (*model.Post, error) {
	text, err := s.validate(ctx, in)
	if err != nil {
		return nil, err
	}
	post := &model.Post{Text: text, AuthorID: author.ID, GroupID: in.GroupID}
	if in.Image != nil {
		if post.Image, err = s.media.SaveImage(ctx, postImageDir, in.Image); err != nil {
			return nil, err
		}
	}
	if err := s.postRepo.Create(ctx, post); err != nil {
		s.discard(ctx, post.Image)
		return nil, fmt.Errorf("create post: %w", err)
	}
	post.Author = *author
	return post, nil
}

func (s *postService) Update(ctx context.Context, editor *model.User, id uint, in PostInput) (*model.Post, error) {
	post, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if editor == nil || editor.ID != post.AuthorID {
		return post, ErrNotAuthor
	}
	text, err := s.validate(ctx, in)
	if err != nil {
		return post, err
	}

	oldImage := post.Image
	post.Text = text
	post.GroupID = in.GroupID
	post.Group = nil
	switch {
	case in.Image != nil:
		if post.Image, err = s.media.SaveImage(ctx, postImageDir, in.Image); err != nil {
			return post, err
		}
	case in.ClearImage:
		post.Image = ""
	}

	if err := s.postRepo.Update(ctx, post); err != nil {
		if post.Image != oldImage {
			s.discard(ctx, post.Image)
		}
		return nil, fmt.Errorf("update post: %w", err)
	}
	if oldImage != "" && post.Image != oldImage {
		s.discard(ctx, oldImage)
	}
	return post, nil
}

func (s *postService) AddComment(ctx context.Context, author *model.User, postID uint, text string) (*model.Comment, error) {
	post, err := s.Get(ctx, postID)
	if err != nil {
		return nil, err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyText
	}
	c := &model.Comment{PostID: &post.ID, AuthorID: &author.ID, Text: text}
	if err := s.commentRepo.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("create comment: %w", err)
	}
	c.Author = author
	return c, nil
}

// Delete 删除帖子、其评论与图片
func (s *postService) Delete(ctx context.Context, id uint) error {
	post, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.postRepo.Delete(ctx, post.ID); err != nil {
		return notFound(err)
	}
	s.discard(ctx, post.Image)
	return nil
}

func (s *postService) validate(ctx context.Context, in PostInput) (string, error) {
	text := strings.TrimSpace(in.Text)
	if text == "" {
		return "", ErrEmptyText
	}
	if in.GroupID != nil {
		if _, err := s.groupRepo.GetByID(ctx, *in.GroupID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return "", ErrInvalidGroup
			}
			return "", fmt.Errorf("load group: %w", err)
		}
	}
	return text, nil
}

func (s *postService) discard(ctx context.Context, name string) {
	if name == "" {
		return
	}
	if err := s.media.Delete(ctx, name); err != nil {
		logger.Warn("delete media file failed", zap.String("name", name), zap.Error(err))
	}
}

func notFound(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return ErrNotFound
	}
	return err
}
