package handlers

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
	"github.com/splitrail/splitrail-web/internal/middleware"
	"github.com/splitrail/splitrail-web/internal/models"
	"github.com/splitrail/splitrail-web/internal/services"
	"github.com/splitrail/splitrail-web/pkg/dto"
	"github.com/splitrail/splitrail-web/pkg/format"
)

type UserHandler struct {
	userService UserServiceInterface
}

func NewUserHandler(userService UserServiceInterface) *UserHandler {
	return &UserHandler{userService: userService}
}

func toUserDTO(u *models.User) dto.User {
	return dto.User{
		ID:                u.ID.String(),
		Username:          u.Username,
		Name:              u.Name,
		Email:             u.Email,
		AvatarURL:         u.AvatarURL,
		DisplayName:       format.DisplayName(u.Username, u.Name, format.DisplayPreference(u.DisplayPreference)),
		DisplayPreference: u.DisplayPreference,
	}
}

func (h *UserHandler) GetMe(c *drift.Context) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		fail(c, http.StatusUnauthorized, "not authenticated")
		return
	}

	user, err := h.userService.GetByID(c.Request.Context(), userID)
	if err != nil {
		fail(c, http.StatusNotFound, "user not found")
		return
	}

	respond(c, http.StatusOK, toUserDTO(user))
}

func (h *UserHandler) UpdateMe(c *drift.Context) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		fail(c, http.StatusUnauthorized, "not authenticated")
		return
	}

	var req dto.UpdateUserRequest
	if err := c.BindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := h.userService.UpdateDisplayPreference(c.Request.Context(), userID, req.DisplayPreference)
	if err != nil {
		if errors.Is(err, services.ErrInvalidDisplayPreference) {
			fail(c, http.StatusBadRequest, err.Error())
			return
		}
		fail(c, http.StatusInternalServerError, "failed to update user")
		return
	}

	respond(c, http.StatusOK, toUserDTO(user))
}
