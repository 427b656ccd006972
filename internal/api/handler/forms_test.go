package handler

import (
	"testing"

	"github.com/gin-gonic/gin/binding"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d60-Lab/yatube/internal/service"
)

func TestSafeNext(t *testing.T) {
	tests := map[string]string{
		"":                     "/",
		"/follow/":             "/follow/",
		"/posts/1/?page=2":     "/posts/1/?page=2",
		"//evil.example/":      "/",
		"/\\evil.example":      "/",
		"https://evil.example": "/",
	}
	for in, want := range tests {
		assert.Equal(t, want, safeNext(in), in)
	}
}

func TestPostFormGroupID(t *testing.T) {
	id, err := postForm{}.groupID()
	require.NoError(t, err)
	assert.Nil(t, id)

	id, err = postForm{Group: " 7 "}.groupID()
	require.NoError(t, err)
	require.NotNil(t, id)
	assert.Equal(t, uint(7), *id)

	_, err = postForm{Group: "cats"}.groupID()
	assert.ErrorIs(t, err, service.ErrInvalidGroup)
}

func TestFieldErrorsUseFormNames(t *testing.T) {
	require.NoError(t, RegisterValidators())

	err := binding.Validator.ValidateStruct(&signupForm{Username: "u", Password1: "short", Password2: "other"})
	require.Error(t, err)
	fields := fieldErrors(err)
	assert.Contains(t, fields["password1"], "at least 8")
	assert.Equal(t, "The two password fields didn't match.", fields["password2"])
	assert.NotContains(t, fields, "username")
}

func TestSlugValidation(t *testing.T) {
	require.NoError(t, RegisterValidators())

	assert.NoError(t, binding.Validator.ValidateStruct(&groupRequest{Title: "Cats", Slug: "cats_and-dogs"}))

	err := binding.Validator.ValidateStruct(&groupRequest{Title: "Cats", Slug: "cats & dogs"})
	require.Error(t, err)
	assert.Contains(t, bindingMessage(err), "slug: ")
}
