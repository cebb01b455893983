// Package form holds the input schemas for registration, login and post creation.
package form

import (
	"errors"
	"reflect"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/d60-Lab/eventboard/internal/model"
)

// Errors maps a form field name to its message. Nil means the form is valid.
type Errors map[string]string

// Get returns the message for field, or "".
func (e Errors) Get(field string) string { return e[field] }

// Schema is implemented by every form struct.
type Schema interface {
	normalize()
}

// RegistrationForm 注册表单
type RegistrationForm struct {
	Email    string `form:"email" validate:"required,email"`
	Password string `form:"password" validate:"required"`
	Name     string `form:"name" validate:"required"`
}

func (f *RegistrationForm) normalize() {
	f.Email = strings.TrimSpace(f.Email)
	f.Name = strings.TrimSpace(f.Name)
}

// LoginForm 登录表单
type LoginForm struct {
	Email    string `form:"email" validate:"required,email"`
	Password string `form:"password" validate:"required"`
}

func (f *LoginForm) normalize() {
	f.Email = strings.TrimSpace(f.Email)
}

// PostForm 发帖表单。StartDate/EndDate 为 HTML date input 的 YYYY-MM-DD
type PostForm struct {
	Title     string `form:"title" validate:"required"`
	Subtitle  string `form:"subtitle" validate:"required"`
	StartDate string `form:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate   string `form:"end_date" validate:"required,datetime=2006-01-02"`
	Details   string `form:"details" validate:"required"`
	Contact   string `form:"contact"`
	JoinURL   string `form:"join_url" validate:"required,http_url"`
}

func (f *PostForm) normalize() {
	f.Title = strings.TrimSpace(f.Title)
	f.Subtitle = strings.TrimSpace(f.Subtitle)
	f.StartDate = strings.TrimSpace(f.StartDate)
	f.EndDate = strings.TrimSpace(f.EndDate)
	f.Contact = strings.TrimSpace(f.Contact)
	f.JoinURL = strings.TrimSpace(f.JoinURL)
	if strings.TrimSpace(f.Details) == "" {
		f.Details = ""
	}
}

// Dates returns the parsed start and end dates of a validated form.
// End is not checked against start.
func (f *PostForm) Dates() (start, end time.Time, err error) {
	start, err = time.Parse(model.EventDateLayout, f.StartDate)
	if err != nil {
		return
	}
	end, err = time.Parse(model.EventDateLayout, f.EndDate)
	return
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Bind maps the submitted form body onto f and validates it.
func Bind(c *gin.Context, f Schema) Errors {
	// only mapping here; there are no binding tags for gin to validate
	if err := c.ShouldBind(f); err != nil {
		return Errors{"_form": "Could not read the submitted form."}
	}
	return Validate(f)
}

// Validate runs the field constraints of an already-populated form.
func Validate(f Schema) Errors {
	f.normalize()
	err := validate.Struct(f)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return Errors{"_form": err.Error()}
	}
	out := make(Errors, len(verrs))
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
		return "Invalid email address."
	case "url", "http_url":
		return "Invalid URL."
	case "datetime":
		return "Not a valid date value."
	default:
		return "Invalid value."
	}
}
