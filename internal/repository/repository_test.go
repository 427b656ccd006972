package repository

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/d60-Lab/yatube/internal/model"
	"github.com/d60-Lab/yatube/internal/testutil"
)

func createUser(t testing.TB, db *gorm.DB, username string) *model.User {
	t.Helper()
	u := &model.User{Username: username, PasswordHash: "x"}
	require.NoError(t, NewUserRepository(db).Create(context.Background(), u))
	return u
}

func createPost(t testing.TB, db *gorm.DB, author *model.User, group *model.Group, text string) *model.Post {
	t.Helper()
	p := &model.Post{Text: text, AuthorID: author.ID}
	if group != nil {
		p.GroupID = &group.ID
	}
	require.NoError(t, NewPostRepository(db).Create(context.Background(), p))
	return p
}

func TestPostRepository_ListOrderAndFilters(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	repo := NewPostRepository(db)

	alice := createUser(t, db, "alice")
	bob := createUser(t, db, "bob")
	g := &model.Group{Title: "Cats", Slug: "cats", Description: "cats only"}
	require.NoError(t, NewGroupRepository(db).Create(ctx, g))

	first := createPost(t, db, alice, g, "first")
	second := createPost(t, db, bob, nil, "second")
	third := createPost(t, db, alice, nil, "third")

	all, err := repo.List(ctx, PostFilter{}, 0, 10)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []uint{third.ID, second.ID, first.ID}, []uint{all[0].ID, all[1].ID, all[2].ID})
	assert.Equal(t, "alice", all[0].Author.Username)
	require.NotNil(t, all[2].Group)
	assert.Equal(t, "cats", all[2].Group.Slug)

	byAuthor, err := repo.List(ctx, PostFilter{AuthorID: alice.ID}, 0, 10)
	require.NoError(t, err)
	assert.Len(t, byAuthor, 2)

	byGroup, err := repo.List(ctx, PostFilter{GroupID: g.ID}, 0, 10)
	require.NoError(t, err)
	require.Len(t, byGroup, 1)
	assert.Equal(t, first.ID, byGroup[0].ID)

	cnt, err := repo.Count(ctx, PostFilter{AuthorID: bob.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(1), cnt)
}

func TestPostRepository_FollowerFilter(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	posts := NewPostRepository(db)
	follows := NewFollowRepository(db)

	reader := createUser(t, db, "reader")
	author := createUser(t, db, "author")
	other := createUser(t, db, "other")
	createPost(t, db, author, nil, "followed")
	createPost(t, db, other, nil, "not followed")
	createPost(t, db, reader, nil, "own")

	require.NoError(t, follows.Create(ctx, reader.ID, author.ID))

	feed, err := posts.List(ctx, PostFilter{FollowerID: reader.ID}, 0, 10)
	require.NoError(t, err)
	require.Len(t, feed, 1)
	assert.Equal(t, "followed", feed[0].Text)
}

func TestPostRepository_UpdateKeepsPubDateAndAuthor(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	repo := NewPostRepository(db)
	author := createUser(t, db, "author")
	p := createPost(t, db, author, nil, "before")

	before, err := repo.GetByID(ctx, p.ID)
	require.NoError(t, err)

	require.NoError(t, repo.Update(ctx, &model.Post{ID: p.ID, Text: "after", Image: "posts/a.gif"}))
	after, err := repo.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "after", after.Text)
	assert.Equal(t, "posts/a.gif", after.Image)
	assert.Equal(t, author.ID, after.AuthorID)
	assert.True(t, before.PubDate.Equal(after.PubDate))

	assert.ErrorIs(t, repo.Update(ctx, &model.Post{ID: 9999, Text: "x"}), ErrNotFound)
}

func TestPostRepository_GetMissing(t *testing.T) {
	db := testutil.NewDB(t)
	_, err := NewPostRepository(db).GetByID(context.Background(), 42)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGroupRepository_DeleteKeepsPosts(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	groups := NewGroupRepository(db)
	posts := NewPostRepository(db)

	author := createUser(t, db, "author")
	g := &model.Group{Title: "Test group", Slug: "test_slug", Description: "desc"}
	require.NoError(t, groups.Create(ctx, g))
	p := createPost(t, db, author, g, "grouped")

	require.NoError(t, groups.Delete(ctx, g.ID))

	got, err := posts.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Nil(t, got.GroupID)
	assert.Nil(t, got.Group)

	_, err = groups.GetBySlug(ctx, "test_slug")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, groups.Delete(ctx, g.ID), ErrNotFound)
}

func TestUserRepository_DeleteCascades(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	users := NewUserRepository(db)
	follows := NewFollowRepository(db)
	comments := NewCommentRepository(db)

	author := createUser(t, db, "author")
	reader := createUser(t, db, "reader")
	p := createPost(t, db, author, nil, "doomed")
	readersPost := createPost(t, db, reader, nil, "survives")
	require.NoError(t, follows.Create(ctx, reader.ID, author.ID))
	require.NoError(t, comments.Create(ctx, &model.Comment{PostID: &p.ID, AuthorID: &reader.ID, Text: "on doomed post"}))
	require.NoError(t, comments.Create(ctx, &model.Comment{PostID: &readersPost.ID, AuthorID: &author.ID, Text: "by doomed author"}))
	require.NoError(t, comments.Create(ctx, &model.Comment{PostID: &readersPost.ID, AuthorID: &reader.ID, Text: "stays"}))

	require.NoError(t, users.Delete(ctx, author.ID))

	var postCount, followCount int64
	require.NoError(t, db.Model(&model.Post{}).Count(&postCount).Error)
	require.NoError(t, db.Model(&model.Follow{}).Count(&followCount).Error)
	assert.Equal(t, int64(1), postCount)
	assert.Equal(t, int64(0), followCount)

	left, err := comments.ListByPost(ctx, readersPost.ID)
	require.NoError(t, err)
	require.Len(t, left, 1)
	assert.Equal(t, "stays", left[0].Text)
}

func TestPostRepository_DeleteRemovesComments(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	posts := NewPostRepository(db)
	comments := NewCommentRepository(db)

	author := createUser(t, db, "author")
	p := createPost(t, db, author, nil, "doomed")
	other := createPost(t, db, author, nil, "kept")
	require.NoError(t, comments.Create(ctx, &model.Comment{PostID: &p.ID, AuthorID: &author.ID, Text: "gone"}))
	require.NoError(t, comments.Create(ctx, &model.Comment{PostID: &other.ID, AuthorID: &author.ID, Text: "stays"}))

	require.NoError(t, posts.Delete(ctx, p.ID))

	var count int64
	require.NoError(t, db.Model(&model.Comment{}).Where("post_id = ?", p.ID).Count(&count).Error)
	assert.Zero(t, count)
	left, err := comments.ListByPost(ctx, other.ID)
	require.NoError(t, err)
	assert.Len(t, left, 1)

	_, err = posts.GetByID(ctx, p.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, posts.Delete(ctx, p.ID), ErrNotFound)
}

func TestFollowRepository_Idempotent(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	repo := NewFollowRepository(db)
	a := createUser(t, db, "a")
	b := createUser(t, db, "b")

	require.NoError(t, repo.Create(ctx, a.ID, b.ID))
	require.NoError(t, repo.Create(ctx, a.ID, b.ID))

	var cnt int64
	require.NoError(t, db.Model(&model.Follow{}).Where("user_id = ? AND author_id = ?", a.ID, b.ID).Count(&cnt).Error)
	assert.Equal(t, int64(1), cnt)

	ok, err := repo.Exists(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	followers, err := repo.CountFollowers(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), followers)

	list, err := repo.ListFollowings(ctx, a.ID, 0, 10)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "b", list[0].Author.Username)

	deleted, err := repo.Delete(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.True(t, deleted)
	deleted, err = repo.Delete(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestCommentRepository_ListByPostOrdered(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	repo := NewCommentRepository(db)
	author := createUser(t, db, "author")
	p := createPost(t, db, author, nil, "post")

	for i := 0; i < 3; i++ {
		require.NoError(t, repo.Create(ctx, &model.Comment{PostID: &p.ID, AuthorID: &author.ID, Text: fmt.Sprintf("c%d", i)}))
	}
	list, err := repo.ListByPost(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "c0", list[0].Text)
	require.NotNil(t, list[0].Author)
	assert.Equal(t, "author", list[0].Author.Username)
}

func BenchmarkFeedQuery(b *testing.B) {
	db := testutil.NewDB(b)
	ctx := context.Background()
	posts := NewPostRepository(db)
	follows := NewFollowRepository(db)

	reader := createUser(b, db, "reader")
	for i := 0; i < 50; i++ {
		u := createUser(b, db, fmt.Sprintf("author%02d", i))
		if i%2 == 0 {
			_ = follows.Create(ctx, reader.ID, u.ID)
		}
		for j := 0; j < 10; j++ {
			createPost(b, db, u, nil, fmt.Sprintf("post %d/%d", i, j))
		}
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = posts.List(ctx, PostFilter{FollowerID: reader.ID}, 0, 10)
	}
}
