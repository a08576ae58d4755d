package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/accountd/internal/server/services"
	"github.com/dmitrijs2005/accountd/internal/server/validation"
	"github.com/gin-gonic/gin"
)

type registerRequest struct {
	Name     string `json:"name" validate:"required,max=255"`
	Email    string `json:"email" validate:"required,email,max=254"`
	Age      int    `json:"age" validate:"required,gt=0"`
	Password string `json:"password" validate:"required,min=7,max=72"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

type updateRequest struct {
	Name     *string `json:"name" validate:"omitnil,min=1,max=255"`
	Email    *string `json:"email" validate:"omitnil,email,max=254"`
	Age      *int    `json:"age" validate:"omitnil,gt=0"`
	Password *string `json:"password" validate:"omitnil,min=7,max=72"`
}

func (s *Server) register(c *gin.Context) {
	var req registerRequest
	if err := bindJSON(c, &req, func() { req.Email = strings.TrimSpace(req.Email) }); err != nil {
		s.respondError(c, err)
		return
	}

	res, err := s.auth.Register(c.Request.Context(), services.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Age:      req.Age,
		Password: req.Password,
	})
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

func (s *Server) login(c *gin.Context) {
	var req loginRequest
	if err := bindJSON(c, &req, func() { req.Email = strings.TrimSpace(req.Email) }); err != nil {
		s.respondError(c, err)
		return
	}

	res, err := s.auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (s *Server) refresh(c *gin.Context) {
	var req refreshRequest
	if err := bindJSON(c, &req, nil); err != nil {
		s.respondError(c, err)
		return
	}

	pair, err := s.auth.RefreshTokens(c.Request.Context(), req.RefreshToken)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, pair)
}

func (s *Server) listUsers(c *gin.Context) {
	list, err := s.users.List(c.Request.Context())
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (s *Server) getUser(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		s.respondError(c, err)
		return
	}

	u, err := s.users.Get(c.Request.Context(), id)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

func (s *Server) updateUser(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		s.respondError(c, err)
		return
	}

	var req updateRequest
	trim := func() {
		if req.Email != nil {
			e := strings.TrimSpace(*req.Email)
			req.Email = &e
		}
	}
	if err := bindJSON(c, &req, trim); err != nil {
		s.respondError(c, err)
		return
	}

	u, err := s.users.Update(c.Request.Context(), id, services.UpdateInput{
		Name:     req.Name,
		Email:    req.Email,
		Age:      req.Age,
		Password: req.Password,
	})
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

func (s *Server) deleteUser(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		s.respondError(c, err)
		return
	}

	if err := s.users.Delete(c.Request.Context(), id); err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "User deleted successfully"})
}

// bindJSON decodes the body into dst, runs normalize (if any) and validates
// the result. Every failure is a *validation.Error.
func bindJSON(c *gin.Context, dst any, normalize func()) error {
	if err := c.ShouldBindJSON(dst); err != nil {
		return decodeError(err)
	}
	if normalize != nil {
		normalize()
	}
	return validation.Validate(dst)
}

func decodeError(err error) error {
	var typeErr *json.UnmarshalTypeError
	var syntaxErr *json.SyntaxError
	switch {
	case errors.Is(err, io.EOF):
		return validation.New("body", "is required")
	case errors.As(err, &typeErr):
		field := typeErr.Field
		if field == "" {
			field = "body"
		}
		return validation.New(field, "has the wrong type")
	case errors.As(err, &syntaxErr), errors.Is(err, io.ErrUnexpectedEOF):
		return validation.New("body", "must be valid JSON")
	default:
		return validation.New("body", "is invalid")
	}
}

func pathID(c *gin.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, validation.New("id", "must be a positive integer")
	}
	return id, nil
}
