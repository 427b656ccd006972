package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/d60-Lab/yatube/internal/model"
)

// PostFilter narrows a post listing; zero fields are ignored.
type PostFilter struct {
	AuthorID   uint
	GroupID    uint
	FollowerID uint // posts by authors this user follows
}

func (f PostFilter) scope(db *gorm.DB) *gorm.DB {
	if f.AuthorID != 0 {
		db = db.Where("posts.author_id = ?", f.AuthorID)
	}
	if f.GroupID != 0 {
		db = db.Where("posts.group_id = ?", f.GroupID)
	}
	if f.FollowerID != 0 {
		sub := db.Session(&gorm.Session{NewDB: true}).
			Model(&model.Follow{}).
			Select("author_id").
			Where("user_id = ?", f.FollowerID)
		db = db.Where("posts.author_id IN (?)", sub)
	}
	return db
}

type PostRepository interface {
	Create(ctx context.Context, post *model.Post) error
	Update(ctx context.Context, post *model.Post) error
	GetByID(ctx context.Context, id uint) (*model.Post, error)
	Count(ctx context.Context, f PostFilter) (int64, error)
	List(ctx context.Context, f PostFilter, offset, limit int) ([]*model.Post, error)
	Delete(ctx context.Context, id uint) error
}

type postRepository struct{ db *gorm.DB }

func NewPostRepository(db *gorm.DB) PostRepository { return &postRepository{db: db} }

func (r *postRepository) Create(ctx context.Context, post *model.Post) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(post).Error
}

// Update 只更新可编辑字段，pub_date 与 author 不变
func (r *postRepository) Update(ctx context.Context, post *model.Post) error {
	res := r.db.WithContext(ctx).
		Model(&model.Post{}).
		Where("id = ?", post.ID).
		Updates(map[string]interface{}{
			"text":     post.Text,
			"group_id": post.GroupID,
			"image":    post.Image,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *postRepository) GetByID(ctx context.Context, id uint) (*model.Post, error) {
	var p model.Post
	if err := r.db.WithContext(ctx).
		Preload("Author").
		Preload("Group").
		First(&p, id).Error; err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

func (r *postRepository) Count(ctx context.Context, f PostFilter) (int64, error) {
	var cnt int64
	err := r.db.WithContext(ctx).Model(&model.Post{}).Scopes(f.scope).Count(&cnt).Error
	return cnt, err
}

func (r *postRepository) List(ctx context.Context, f PostFilter, offset, limit int) ([]*model.Post, error) {
	var res []*model.Post
	err := r.db.WithContext(ctx).
		Scopes(f.scope).
		Preload("Author").
		Preload("Group").
		Order("posts.pub_date DESC").Order("posts.id DESC").
		Offset(offset).Limit(limit).
		Find(&res).Error
	return res, err
}

// Delete 删除帖子及其评论
func (r *postRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("post_id = ?", id).Delete(&model.Comment{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&model.Post{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}
