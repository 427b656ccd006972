package service

import "errors"

var (
	ErrNotFound           = errors.New("not found")
	ErrFollowSelf         = errors.New("cannot follow self")
	ErrNotFollowing       = errors.New("not following this author")
	ErrNotAuthor          = errors.New("only the author can edit this post")
	ErrEmptyText          = errors.New("text must not be empty")
	ErrInvalidGroup       = errors.New("selected group does not exist")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrInvalidUsername    = errors.New("username may contain only letters, digits and @/./+/-/_")
	ErrUsernameTaken      = errors.New("a user with that username already exists")
	ErrWeakPassword       = errors.New("password must be at least 8 characters")
	ErrSlugTaken          = errors.New("a group with that slug already exists")
	ErrInvalidSlug        = errors.New("slug may contain only letters, digits, hyphens and underscores")
	ErrInvalidToken       = errors.New("invalid session token")
)
