package validation

import (
	"errors"
	"strings"
	"testing"

	"github.com/dmitrijs2005/accountd/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type signup struct {
	Name     string `json:"name" validate:"required,max=255"`
	Email    string `json:"email" validate:"required,email,max=254"`
	Age      int    `json:"age" validate:"required,gt=0"`
	Password string `json:"password" validate:"required,min=7,max=72"`
}

type patch struct {
	Name *string `json:"name" validate:"omitnil,min=1,max=255"`
	Age  *int    `json:"age" validate:"omitnil,gt=0"`
}

func ptr[T any](v T) *T { return &v }

func fields(t *testing.T, err error) map[string]string {
	t.Helper()
	var ve *Error
	require.True(t, errors.As(err, &ve), "want *Error, got %T", err)
	out := map[string]string{}
	for _, f := range ve.Fields {
		out[f.Field] = f.Message
	}
	return out
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want map[string]string
	}{
		{
			name: "valid signup",
			in:   signup{Name: "A", Email: "a@x.com", Age: 30, Password: "secretpw"},
		},
		{
			name: "everything missing",
			in:   signup{},
			want: map[string]string{
				"name":     "is required",
				"email":    "is required",
				"age":      "is required",
				"password": "is required",
			},
		},
		{
			name: "bad values",
			in:   signup{Name: "A", Email: "nope", Age: -1, Password: "short"},
			want: map[string]string{
				"email":    "must be a valid email address",
				"age":      "must be greater than 0",
				"password": "must be at least 7 characters",
			},
		},
		{
			name: "password too long",
			in:   signup{Name: "A", Email: "a@x.com", Age: 1, Password: strings.Repeat("p", 73)},
			want: map[string]string{"password": "must be at most 72 characters"},
		},
		{
			name: "empty patch",
			in:   patch{},
		},
		{
			name: "patch with bad values",
			in:   patch{Name: ptr(""), Age: ptr(0)},
			want: map[string]string{
				"name": "must be at least 1 characters",
				"age":  "must be greater than 0",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.in)
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, common.ErrValidation)
			assert.Equal(t, tt.want, fields(t, err))
		})
	}
}

func TestError(t *testing.T) {
	err := New("id", "must be a positive integer")

	assert.ErrorIs(t, err, common.ErrValidation)
	assert.Equal(t, "validation failed: id must be a positive integer", err.Error())
	assert.Equal(t, map[string]any{"fields": []FieldError{{Field: "id", Message: "must be a positive integer"}}}, err.Details())
}

func TestValidate_NonStruct(t *testing.T) {
	err := Validate(42)
	assert.ErrorIs(t, err, common.ErrValidation)
}
