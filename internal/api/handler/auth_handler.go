package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/yatube/internal/middleware"
	"github.com/d60-Lab/yatube/internal/model"
	"github.com/d60-Lab/yatube/internal/service"
)

func (h *Handler) Signup(c *gin.Context) {
	if c.Request.Method != http.MethodPost {
		h.render(c, http.StatusOK, "users/signup.html", gin.H{"title": "Sign up", "form": newFormView(signupForm{})})
		return
	}

	var f signupForm
	form := newFormView(&f)
	if err := c.ShouldBind(&f); err != nil {
		form.Errors = fieldErrors(err)
		h.render(c, http.StatusOK, "users/signup.html", gin.H{"title": "Sign up", "form": form})
		return
	}
	user, err := h.authService.Register(c.Request.Context(), service.RegisterInput{
		Username:  strings.TrimSpace(f.Username),
		Email:     strings.TrimSpace(f.Email),
		Password:  f.Password1,
		FirstName: strings.TrimSpace(f.FirstName),
		LastName:  strings.TrimSpace(f.LastName),
	})
	switch {
	case err == nil:
	case errors.Is(err, service.ErrInvalidUsername), errors.Is(err, service.ErrUsernameTaken):
		form.Errors["username"] = err.Error()
	case errors.Is(err, service.ErrWeakPassword):
		form.Errors["password1"] = err.Error()
	default:
		h.serverError(c, err)
		return
	}
	if !form.valid() {
		h.render(c, http.StatusOK, "users/signup.html", gin.H{"title": "Sign up", "form": form})
		return
	}
	if err := h.startSession(c, user); err != nil {
		h.serverError(c, err)
		return
	}
	c.Redirect(http.StatusFound, "/")
}

func (h *Handler) Login(c *gin.Context) {
	next := c.Query("next")
	if c.Request.Method != http.MethodPost {
		h.render(c, http.StatusOK, "users/login.html", gin.H{"title": "Log in", "form": newFormView(loginForm{}), "next": next})
		return
	}

	if v, ok := c.GetPostForm("next"); ok {
		next = v
	}
	var f loginForm
	form := newFormView(&f)
	if err := c.ShouldBind(&f); err != nil {
		form.Errors = fieldErrors(err)
		h.render(c, http.StatusOK, "users/login.html", gin.H{"title": "Log in", "form": form, "next": next})
		return
	}
	user, err := h.authService.Authenticate(c.Request.Context(), f.Username, f.Password)
	if err != nil {
		if !errors.Is(err, service.ErrInvalidCredentials) {
			h.serverError(c, err)
			return
		}
		form.Errors[formErrorKey] = "Please enter a correct username and password. Note that both fields may be case-sensitive."
		h.render(c, http.StatusOK, "users/login.html", gin.H{"title": "Log in", "form": form, "next": next})
		return
	}
	if err := h.startSession(c, user); err != nil {
		h.serverError(c, err)
		return
	}
	c.Redirect(http.StatusFound, safeNext(next))
}

func (h *Handler) Logout(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cfg.Auth.CookieName, "", -1, "/", "", h.cfg.Auth.CookieSecure, true)
	middleware.SetUser(c, nil)
	h.render(c, http.StatusOK, "users/logged_out.html", gin.H{"title": "Logged out"})
}

func (h *Handler) startSession(c *gin.Context, user *model.User) error {
	token, exp, err := h.authService.IssueToken(user)
	if err != nil {
		return err
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cfg.Auth.CookieName, token, int(time.Until(exp).Seconds()), "/", "", h.cfg.Auth.CookieSecure, true)
	middleware.SetUser(c, user)
	return nil
}

// safeNext only allows local absolute paths as redirect targets.
func safeNext(next string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return "/"
	}
	return next
}
