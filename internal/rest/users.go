package rest

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/hyperslack/talkto/internal/apperr"
	"github.com/hyperslack/talkto/internal/authplane"
	"github.com/hyperslack/talkto/internal/store"
)

const sessionTTL = 30 * 24 * time.Hour

type onboardRequest struct {
	Name        string `json:"name" binding:"required"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email"`
}

// OnboardUser creates the first human user of the default workspace and
// starts a browser session for them. Public path — no auth required.
func (h *Handler) OnboardUser(c *gin.Context) {
	var req onboardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondErr(c, apperr.NewValidation(err.Error()))
		return
	}

	ctx := c.Request.Context()
	existing, err := h.Store.Workspaces.SoleHuman(ctx, store.DefaultWorkspaceID)
	if err != nil {
		respondErr(c, apperr.NewInternal("failed to check existing human", err))
		return
	}
	if existing != nil {
		respondErr(c, apperr.NewConflict("workspace already onboarded"))
		return
	}

	user := &store.User{ID: uuid.NewString(), Name: req.Name, Type: store.UserTypeHuman}
	if req.DisplayName != "" {
		user.DisplayName = &req.DisplayName
	}
	if req.Email != "" {
		user.Email = &req.Email
	}
	if err := h.Store.Users.Create(ctx, user); err != nil {
		respondErr(c, apperr.NewInternal("failed to create user", err))
		return
	}
	if err := h.Store.Workspaces.AddMember(ctx, store.DefaultWorkspaceID, user.ID, store.RoleAdmin); err != nil {
		respondErr(c, apperr.NewInternal("failed to add member", err))
		return
	}

	token, sess, err := authplane.NewSession(h.Store, user.ID, store.DefaultWorkspaceID, sessionTTL)
	if err != nil {
		respondErr(c, apperr.NewInternal("failed to create session", err))
		return
	}
	if err := h.Store.Auth.CreateSession(ctx, sess); err != nil {
		respondErr(c, apperr.NewInternal("failed to persist session", err))
		return
	}

	c.SetCookie(authplane.SessionCookieName, token, int(sessionTTL.Seconds()), "/", "", false, true)
	respond(c, http.StatusCreated, gin.H{"user": user})
}

func (h *Handler) GetMe(c *gin.Context) {
	p, ok := authplane.RequireUser(c)
	if !ok {
		return
	}
	user, err := h.Store.Users.Get(c.Request.Context(), p.UserID)
	if err != nil || user == nil {
		respondErr(c, apperr.NewNotFound("user not found"))
		return
	}
	respond(c, http.StatusOK, user)
}

type updateMeRequest struct {
	DisplayName       *string `json:"display_name"`
	About             *string `json:"about"`
	AgentInstructions *string `json:"agent_instructions"`
	Email             *string `json:"email"`
	AvatarURL         *string `json:"avatar_url"`
}

func (h *Handler) UpdateMe(c *gin.Context) {
	p, ok := authplane.RequireUser(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	user, err := h.Store.Users.Get(ctx, p.UserID)
	if err != nil || user == nil {
		respondErr(c, apperr.NewNotFound("user not found"))
		return
	}

	var req updateMeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondErr(c, apperr.NewValidation(err.Error()))
		return
	}
	if req.DisplayName != nil {
		user.DisplayName = req.DisplayName
	}
	if req.About != nil {
		user.About = req.About
	}
	if req.AgentInstructions != nil {
		user.AgentInstructions = req.AgentInstructions
	}
	if req.Email != nil {
		user.Email = req.Email
	}
	if req.AvatarURL != nil {
		user.AvatarURL = req.AvatarURL
	}
	if err := h.Store.Users.Update(ctx, user); err != nil {
		respondErr(c, apperr.NewInternal("failed to update user", err))
		return
	}
	respond(c, http.StatusOK, user)
}

func (h *Handler) DeleteMe(c *gin.Context) {
	p, ok := authplane.RequireUser(c)
	if !ok {
		return
	}
	if err := h.Store.Users.Delete(c.Request.Context(), p.UserID); err != nil {
		respondErr(c, apperr.NewInternal("failed to delete user", err))
		return
	}
	c.Status(http.StatusNoContent)
}
