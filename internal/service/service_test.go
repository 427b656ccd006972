package service

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/d60-Lab/yatube/internal/model"
	"github.com/d60-Lab/yatube/internal/repository"
	"github.com/d60-Lab/yatube/internal/storage"
	"github.com/d60-Lab/yatube/internal/testutil"
)

type fixture struct {
	db        *gorm.DB
	mediaRoot string
	posts     PostService
	rels      RelationshipService
	auth      AuthService
	groups    GroupService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.NewDB(t)
	users := repository.NewUserRepository(db)
	groupRepo := repository.NewGroupRepository(db)
	follows := repository.NewFollowRepository(db)
	root := t.TempDir()
	media := storage.NewLocalStorage(root, "/media/", 1<<20)
	return &fixture{
		db:        db,
		mediaRoot: root,
		posts: NewPostService(repository.NewPostRepository(db), repository.NewCommentRepository(db),
			groupRepo, users, follows, media, 10),
		rels:      NewRelationshipService(follows, users, 10),
		auth:      NewAuthService(users, "test-secret", time.Hour),
		groups:    NewGroupService(groupRepo),
	}
}

func (f *fixture) user(t *testing.T, name string) *model.User {
	t.Helper()
	u, err := f.auth.Register(context.Background(), RegisterInput{Username: name, Password: "password123"})
	require.NoError(t, err)
	return u
}

func gifHeader(t *testing.T) *multipart.FileHeader {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	fw, err := w.CreateFormFile("image", "small.gif")
	require.NoError(t, err)
	_, _ = fw.Write(testutil.SmallGIF)
	require.NoError(t, w.Close())
	req := httptest.NewRequest("POST", "/", &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	require.NoError(t, req.ParseMultipartForm(1<<20))
	return req.MultipartForm.File["image"][0]
}

func TestPostService_CreateForcesAuthor(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	author := f.user(t, "author")

	post, err := f.posts.Create(ctx, author, PostInput{Text: "  hello  ", Image: gifHeader(t)})
	require.NoError(t, err)
	assert.Equal(t, author.ID, post.AuthorID)
	assert.Equal(t, "hello", post.Text)
	assert.Contains(t, post.Image, "posts/")

	_, err = f.posts.Create(ctx, author, PostInput{Text: "   "})
	assert.ErrorIs(t, err, ErrEmptyText)

	missing := uint(999)
	_, err = f.posts.Create(ctx, author, PostInput{Text: "x", GroupID: &missing})
	assert.ErrorIs(t, err, ErrInvalidGroup)
}

func TestPostService_UpdateByNonAuthor(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	author := f.user(t, "author")
	stranger := f.user(t, "stranger")
	post, err := f.posts.Create(ctx, author, PostInput{Text: "original"})
	require.NoError(t, err)

	got, err := f.posts.Update(ctx, stranger, post.ID, PostInput{Text: "hijacked"})
	assert.ErrorIs(t, err, ErrNotAuthor)
	require.NotNil(t, got)
	assert.Equal(t, "author", got.Author.Username)

	reloaded, err := f.posts.Get(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, "original", reloaded.Text)

	updated, err := f.posts.Update(ctx, author, post.ID, PostInput{Text: "edited"})
	require.NoError(t, err)
	assert.Equal(t, "edited", updated.Text)

	_, err = f.posts.Update(ctx, author, 12345, PostInput{Text: "x"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPostService_Pagination(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	author := f.user(t, "author")
	g, err := f.groups.Create(ctx, GroupInput{Title: "Group", Slug: "group"})
	require.NoError(t, err)
	for i := 0; i < 13; i++ {
		_, err := f.posts.Create(ctx, author, PostInput{Text: fmt.Sprintf("post %d", i), GroupID: &g.ID})
		require.NoError(t, err)
	}

	first, err := f.posts.Index(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, 10, first.Len())
	assert.Equal(t, "post 12", first.Items[0].Text)

	second, err := f.posts.Index(ctx, "2")
	require.NoError(t, err)
	assert.Equal(t, 3, second.Len())

	_, groupPage, err := f.posts.GroupPosts(ctx, "group", "2")
	require.NoError(t, err)
	assert.Equal(t, 3, groupPage.Len())

	profile, err := f.posts.Profile(ctx, "author", nil, "2")
	require.NoError(t, err)
	assert.Equal(t, 3, profile.Page.Len())
	assert.False(t, profile.Following)

	_, _, err = f.posts.GroupPosts(ctx, "missing", "")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = f.posts.Profile(ctx, "nobody", nil, "")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPostService_DetailAndComments(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	author := f.user(t, "author")
	reader := f.user(t, "reader")
	post, err := f.posts.Create(ctx, author, PostInput{Text: "post"})
	require.NoError(t, err)

	c, err := f.posts.AddComment(ctx, reader, post.ID, "nice")
	require.NoError(t, err)
	assert.Equal(t, reader.ID, *c.AuthorID)

	_, err = f.posts.AddComment(ctx, reader, post.ID, " ")
	assert.ErrorIs(t, err, ErrEmptyText)
	_, err = f.posts.AddComment(ctx, reader, 999, "lost")
	assert.ErrorIs(t, err, ErrNotFound)

	d, err := f.posts.Detail(ctx, post.ID)
	require.NoError(t, err)
	require.Len(t, d.Comments, 1)
	assert.Equal(t, "nice", d.Comments[0].Text)
	assert.Equal(t, int64(1), d.AuthorPostsCount)
}

func TestRelationshipService_FollowFeed(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	reader := f.user(t, "reader")
	author := f.user(t, "author")
	_, err := f.posts.Create(ctx, author, PostInput{Text: "by author"})
	require.NoError(t, err)
	_, err = f.posts.Create(ctx, reader, PostInput{Text: "by reader"})
	require.NoError(t, err)

	_, err = f.rels.Follow(ctx, reader, "author")
	require.NoError(t, err)
	_, err = f.rels.Follow(ctx, reader, "author")
	require.NoError(t, err)
	var cnt int64
	require.NoError(t, f.db.Model(&model.Follow{}).Count(&cnt).Error)
	assert.Equal(t, int64(1), cnt)

	_, err = f.rels.Follow(ctx, reader, "reader")
	assert.ErrorIs(t, err, ErrFollowSelf)
	_, err = f.rels.Follow(ctx, reader, "ghost")
	assert.ErrorIs(t, err, ErrNotFound)

	feed, err := f.posts.Feed(ctx, reader, "")
	require.NoError(t, err)
	require.Equal(t, 1, feed.Len())
	assert.Equal(t, "by author", feed.Items[0].Text)

	authorFeed, err := f.posts.Feed(ctx, author, "")
	require.NoError(t, err)
	assert.Equal(t, 0, authorFeed.Len())

	profile, err := f.posts.Profile(ctx, "author", reader, "")
	require.NoError(t, err)
	assert.True(t, profile.Following)
	assert.Equal(t, int64(1), profile.FollowersCount)

	following, err := f.rels.ListFollowing(ctx, "reader", "")
	require.NoError(t, err)
	assert.Equal(t, []string{"author"}, following.Items)

	_, err = f.rels.Unfollow(ctx, reader, "author")
	require.NoError(t, err)
	_, err = f.rels.Unfollow(ctx, reader, "author")
	assert.ErrorIs(t, err, ErrNotFollowing)
}

func TestAuthService(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.auth.Register(ctx, RegisterInput{Username: "bad name", Password: "password123"})
	assert.ErrorIs(t, err, ErrInvalidUsername)
	_, err = f.auth.Register(ctx, RegisterInput{Username: "short", Password: "123"})
	assert.ErrorIs(t, err, ErrWeakPassword)

	u := f.user(t, "leo")
	_, err = f.auth.Register(ctx, RegisterInput{Username: "leo", Password: "password123"})
	assert.ErrorIs(t, err, ErrUsernameTaken)

	got, err := f.auth.Authenticate(ctx, "leo", "password123")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	_, err = f.auth.Authenticate(ctx, "leo", "wrong-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = f.auth.Authenticate(ctx, "nobody", "password123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	token, exp, err := f.auth.IssueToken(u)
	require.NoError(t, err)
	assert.True(t, exp.After(time.Now()))
	id, err := f.auth.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, u.ID, id)

	_, err = f.auth.ParseToken(token + "x")
	assert.ErrorIs(t, err, ErrInvalidToken)
	other := NewAuthService(repository.NewUserRepository(f.db), "other-secret", time.Hour)
	_, err = other.ParseToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestGroupService(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.groups.Create(ctx, GroupInput{Title: "T", Slug: "not a slug"})
	assert.ErrorIs(t, err, ErrInvalidSlug)
	g, err := f.groups.Create(ctx, GroupInput{Title: "T", Slug: "test_slug"})
	require.NoError(t, err)
	_, err = f.groups.Create(ctx, GroupInput{Title: "T2", Slug: "test_slug"})
	assert.ErrorIs(t, err, ErrSlugTaken)

	author := f.user(t, "author")
	post, err := f.posts.Create(ctx, author, PostInput{Text: "grouped", GroupID: &g.ID})
	require.NoError(t, err)

	require.NoError(t, f.groups.Delete(ctx, "test_slug"))
	assert.ErrorIs(t, f.groups.Delete(ctx, "test_slug"), ErrNotFound)

	reloaded, err := f.posts.Get(ctx, post.ID)
	require.NoError(t, err)
	assert.Nil(t, reloaded.GroupID)
}

func TestPostService_Delete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	author := f.user(t, "author")

	post, err := f.posts.Create(ctx, author, PostInput{Text: "with image", Image: gifHeader(t)})
	require.NoError(t, err)
	require.NotEmpty(t, post.Image)
	_, err = f.posts.AddComment(ctx, author, post.ID, "a comment")
	require.NoError(t, err)
	imagePath := filepath.Join(f.mediaRoot, filepath.FromSlash(post.Image))
	require.FileExists(t, imagePath)

	require.NoError(t, f.posts.Delete(ctx, post.ID))

	_, err = f.posts.Get(ctx, post.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	var comments int64
	require.NoError(t, f.db.Model(&model.Comment{}).Count(&comments).Error)
	assert.Zero(t, comments)
	assert.NoFileExists(t, imagePath)

	assert.ErrorIs(t, f.posts.Delete(ctx, post.ID), ErrNotFound)
}
