package handler

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/d60-Lab/yatube/internal/service"
)

const formErrorKey = "__all__"

type postForm struct {
	Text       string `form:"text" binding:"required"`
	Group      string `form:"group"`
	ImageClear bool   `form:"image-clear"`
}

type commentForm struct {
	Text string `form:"text" binding:"required"`
}

type loginForm struct {
	Username string `form:"username" binding:"required"`
	Password string `form:"password" binding:"required"`
}

type signupForm struct {
	FirstName string `form:"first_name" binding:"max=150"`
	LastName  string `form:"last_name" binding:"max=150"`
	Username  string `form:"username" binding:"required,max=150"`
	Email     string `form:"email" binding:"omitempty,email"`
	Password1 string `form:"password1" binding:"required,min=8"`
	Password2 string `form:"password2" binding:"required,eqfield=Password1"`
}

// formView is what templates see: the submitted values plus per-field errors.
type formView struct {
	Values any
	Errors map[string]string
}

func newFormView(values any) *formView {
	return &formView{Values: values, Errors: map[string]string{}}
}

func (f *formView) valid() bool { return len(f.Errors) == 0 }

// groupID parses the optional group select value.
func (f postForm) groupID() (*uint, error) {
	raw := strings.TrimSpace(f.Group)
	if raw == "" {
		return nil, nil
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return nil, service.ErrInvalidGroup
	}
	g := uint(id)
	return &g, nil
}

// RegisterValidators adds the "slug" rule and makes validation errors report
// form/json field names. Safe to call more than once.
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return errors.New("unexpected validator engine")
	}
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		for _, tag := range []string{"form", "json"} {
			name := strings.SplitN(fld.Tag.Get(tag), ",", 2)[0]
			if name != "" && name != "-" {
				return name
			}
		}
		return fld.Name
	})
	return v.RegisterValidation("slug", func(fl validator.FieldLevel) bool {
		return service.ValidSlug(fl.Field().String())
	})
}

// fieldErrors turns binding errors into one message per field.
func fieldErrors(err error) map[string]string {
	out := map[string]string{}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		out[formErrorKey] = "Invalid form submission."
		return out
	}
	for _, fe := range verrs {
		if _, seen := out[fe.Field()]; seen {
			continue
		}
		out[fe.Field()] = message(fe)
	}
	return out
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required."
	case "email":
		return "Enter a valid email address."
	case "min":
		return fmt.Sprintf("Ensure this value has at least %s characters.", fe.Param())
	case "max":
		return fmt.Sprintf("Ensure this value has at most %s characters.", fe.Param())
	case "eqfield":
		return "The two password fields didn't match."
	case "slug":
		return service.ErrInvalidSlug.Error()
	default:
		return "Invalid value."
	}
}
