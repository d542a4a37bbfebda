package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"hostel-backend/internal/auth"
	"hostel-backend/internal/inventory"
	"hostel-backend/internal/model"
)

// Login exchanges an email and password for a bearer token.
func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.inventory.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.fail(c, err)
		return
	}
	token, err := h.tokens.Issue(auth.Actor{ID: user.ID, Role: user.Role})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, loginResponse{Token: token, User: user})
}

// CreateUser handles POST /api/users.
func (h *Handler) CreateUser(c *gin.Context) {
	var req createUserRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.inventory.CreateUser(c.Request.Context(), inventory.UserInput{
		Name:      req.Name,
		Email:     req.Email,
		Password:  req.Password,
		Role:      model.Role(req.Role),
		Gender:    model.Gender(req.Gender),
		Phone:     req.Phone,
		StudentID: req.StudentID,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, user)
}
