package handler

import (
	"errors"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/yatube/internal/middleware"
	"github.com/d60-Lab/yatube/internal/model"
	"github.com/d60-Lab/yatube/internal/service"
	"github.com/d60-Lab/yatube/internal/storage"
)

// Index 首页，最新帖子在前
func (h *Handler) Index(c *gin.Context) {
	page, err := h.postService.Index(c.Request.Context(), c.Query("page"))
	if err != nil {
		h.serverError(c, err)
		return
	}
	h.render(c, http.StatusOK, "posts/index.html", gin.H{"title": "Latest updates", "page_obj": page})
}

func (h *Handler) GroupPosts(c *gin.Context) {
	group, page, err := h.postService.GroupPosts(c.Request.Context(), c.Param("slug"), c.Query("page"))
	if err != nil {
		h.handleError(c, err)
		return
	}
	h.render(c, http.StatusOK, "posts/group_list.html", gin.H{"title": group.Title, "group": group, "page_obj": page})
}

func (h *Handler) Profile(c *gin.Context) {
	viewer := middleware.CurrentUser(c)
	view, err := h.postService.Profile(c.Request.Context(), c.Param("username"), viewer, c.Query("page"))
	if err != nil {
		h.handleError(c, err)
		return
	}
	h.render(c, http.StatusOK, "posts/profile.html", gin.H{
		"title":           "Profile of " + view.Author.DisplayName(),
		"author":          view.Author,
		"page_obj":        view.Page,
		"following":       view.Following,
		"is_self":         viewer != nil && viewer.ID == view.Author.ID,
		"followers_count": view.FollowersCount,
		"following_count": view.FollowingCount,
	})
}

func (h *Handler) PostDetail(c *gin.Context) {
	id, ok := postID(c)
	if !ok {
		h.NotFound(c)
		return
	}
	h.renderDetail(c, http.StatusOK, id, newFormView(commentForm{}))
}

func (h *Handler) renderDetail(c *gin.Context, status int, id uint, form *formView) {
	detail, err := h.postService.Detail(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	h.render(c, status, "posts/post_detail.html", gin.H{
		"title":              "Post " + detail.Post.String(),
		"post":               detail.Post,
		"comments":           detail.Comments,
		"author_posts_count": detail.AuthorPostsCount,
		"form":               form,
	})
}

// PostCreate GET 显示表单，POST 以当前用户为作者创建帖子
func (h *Handler) PostCreate(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if c.Request.Method != http.MethodPost {
		h.renderPostForm(c, http.StatusOK, newFormView(postForm{}), nil)
		return
	}

	var f postForm
	form := h.bindPostForm(c, &f)
	if form.valid() {
		in, err := postInput(c, f)
		if err == nil {
			_, err = h.postService.Create(c.Request.Context(), user, in)
		}
		if err == nil {
			c.Redirect(http.StatusFound, profileURL(user.Username))
			return
		}
		if !addPostError(form, err) {
			h.serverError(c, err)
			return
		}
	}
	h.renderPostForm(c, http.StatusOK, form, nil)
}

// PostEdit 仅作者可编辑；其他人被重定向到作者主页
func (h *Handler) PostEdit(c *gin.Context) {
	id, ok := postID(c)
	if !ok {
		h.NotFound(c)
		return
	}
	user := middleware.CurrentUser(c)
	post, err := h.postService.Get(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	if user.ID != post.AuthorID {
		c.Redirect(http.StatusFound, profileURL(post.Author.Username))
		return
	}

	if c.Request.Method != http.MethodPost {
		initial := postForm{Text: post.Text}
		if post.GroupID != nil {
			initial.Group = uintString(*post.GroupID)
		}
		h.renderPostForm(c, http.StatusOK, newFormView(initial), post)
		return
	}

	var f postForm
	form := h.bindPostForm(c, &f)
	if form.valid() {
		in, err := postInput(c, f)
		if err == nil {
			_, err = h.postService.Update(c.Request.Context(), user, id, in)
		}
		switch {
		case err == nil:
			c.Redirect(http.StatusFound, postURL(id))
			return
		case errors.Is(err, service.ErrNotAuthor):
			c.Redirect(http.StatusFound, profileURL(post.Author.Username))
			return
		case errors.Is(err, service.ErrNotFound):
			h.NotFound(c)
			return
		case !addPostError(form, err):
			h.serverError(c, err)
			return
		}
	}
	h.renderPostForm(c, http.StatusOK, form, post)
}

// AddComment 评论；表单无效时重新渲染详情页
func (h *Handler) AddComment(c *gin.Context) {
	id, ok := postID(c)
	if !ok {
		h.NotFound(c)
		return
	}
	var f commentForm
	form := newFormView(&f)
	if err := c.ShouldBind(&f); err != nil {
		form.Errors = fieldErrors(err)
		h.renderDetail(c, http.StatusOK, id, form)
		return
	}
	_, err := h.postService.AddComment(c.Request.Context(), middleware.CurrentUser(c), id, f.Text)
	switch {
	case err == nil:
		c.Redirect(http.StatusFound, postURL(id))
	case errors.Is(err, service.ErrEmptyText):
		form.Errors["text"] = "This field is required."
		h.renderDetail(c, http.StatusOK, id, form)
	default:
		h.handleError(c, err)
	}
}

// FollowIndex 当前用户关注的作者发布的帖子
func (h *Handler) FollowIndex(c *gin.Context) {
	page, err := h.postService.Feed(c.Request.Context(), middleware.CurrentUser(c), c.Query("page"))
	if err != nil {
		h.serverError(c, err)
		return
	}
	h.render(c, http.StatusOK, "posts/follow.html", gin.H{"title": "Subscriptions", "page_obj": page})
}

func (h *Handler) bindPostForm(c *gin.Context, f *postForm) *formView {
	form := newFormView(f)
	if err := c.ShouldBind(f); err != nil {
		form.Errors = fieldErrors(err)
	}
	return form
}

func (h *Handler) renderPostForm(c *gin.Context, status int, form *formView, post *model.Post) {
	groups, err := h.groupService.List(c.Request.Context())
	if err != nil {
		h.serverError(c, err)
		return
	}
	data := gin.H{"title": "New post", "form": form, "groups": groups, "action": "/create/"}
	if post != nil {
		data["title"] = "Edit post"
		data["is_edit"] = true
		data["post"] = post
		data["action"] = postURL(post.ID) + "edit/"
		data["current_image"] = post.Image
	}
	h.render(c, status, "posts/create_post.html", data)
}

func postInput(c *gin.Context, f postForm) (service.PostInput, error) {
	groupID, err := f.groupID()
	if err != nil {
		return service.PostInput{}, err
	}
	return service.PostInput{
		Text:       f.Text,
		GroupID:    groupID,
		Image:      uploadedImage(c),
		ClearImage: f.ImageClear,
	}, nil
}

// uploadedImage returns nil when the request carries no image part.
func uploadedImage(c *gin.Context) *multipart.FileHeader {
	fh, err := c.FormFile("image")
	if err != nil || fh.Size == 0 {
		return nil
	}
	return fh
}

// addPostError records a validation failure on the matching field and reports
// whether err was one.
func addPostError(form *formView, err error) bool {
	switch {
	case errors.Is(err, service.ErrEmptyText):
		form.Errors["text"] = "This field is required."
	case errors.Is(err, service.ErrInvalidGroup):
		form.Errors["group"] = "Select a valid choice. That choice is not one of the available choices."
	case errors.Is(err, storage.ErrInvalidImage), errors.Is(err, storage.ErrTooLarge):
		form.Errors["image"] = err.Error()
	default:
		return false
	}
	return true
}
