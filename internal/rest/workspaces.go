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

func (h *Handler) ListWorkspaces(c *gin.Context) {
	ws, err := h.Store.Workspaces.List(c.Request.Context())
	if err != nil {
		respondErr(c, apperr.NewInternal("failed to list workspaces", err))
		return
	}
	respond(c, http.StatusOK, gin.H{"workspaces": ws})
}

func (h *Handler) checkWorkspaceAdmin(c *gin.Context) bool {
	if _, ok := authplane.RequireAdmin(c); !ok {
		return false
	}
	return authplane.RequireSameWorkspace(c, c.Param("wid"))
}

func (h *Handler) ListMembers(c *gin.Context) {
	if !h.checkWorkspaceAdmin(c) {
		return
	}
	members, err := h.Store.Workspaces.Members(c.Request.Context(), c.Param("wid"))
	if err != nil {
		respondErr(c, apperr.NewInternal("failed to list members", err))
		return
	}
	respond(c, http.StatusOK, gin.H{"members": members})
}

func (h *Handler) ListAPIKeys(c *gin.Context) {
	if !h.checkWorkspaceAdmin(c) {
		return
	}
	keys, err := h.Store.Auth.ListAPIKeys(c.Request.Context(), c.Param("wid"))
	if err != nil {
		respondErr(c, apperr.NewInternal("failed to list api keys", err))
		return
	}
	respond(c, http.StatusOK, gin.H{"keys": keys})
}

type createAPIKeyRequest struct {
	Name string `json:"name"`
}

func (h *Handler) CreateAPIKey(c *gin.Context) {
	if !h.checkWorkspaceAdmin(c) {
		return
	}
	p := authplane.Current(c)
	var req createAPIKeyRequest
	_ = c.ShouldBindJSON(&req)

	token, err := authplane.GenerateToken(authplane.APIKeyTokenPrefix)
	if err != nil {
		respondErr(c, apperr.NewInternal("failed to generate key", err))
		return
	}
	key := &store.WorkspaceAPIKey{
		ID: uuid.NewString(), WorkspaceID: c.Param("wid"),
		KeyHash: authplane.HashToken(token), KeyPrefix: authplane.KeyPrefix(token),
		CreatedBy: p.UserID, CreatedAt: time.Now().UTC(),
	}
	if req.Name != "" {
		key.Name = &req.Name
	}
	if err := h.Store.Auth.CreateAPIKey(c.Request.Context(), key); err != nil {
		respondErr(c, apperr.NewInternal("failed to create api key", err))
		return
	}
	respond(c, http.StatusCreated, gin.H{"token": token, "key": key})
}

func (h *Handler) RevokeAPIKey(c *gin.Context) {
	if !h.checkWorkspaceAdmin(c) {
		return
	}
	if err := h.Store.Auth.RevokeAPIKey(c.Request.Context(), c.Param("kid")); err != nil {
		respondErr(c, apperr.NewInternal("failed to revoke api key", err))
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) ListInvites(c *gin.Context) {
	if !h.checkWorkspaceAdmin(c) {
		return
	}
	invites, err := h.Store.Auth.ListInvites(c.Request.Context(), c.Param("wid"))
	if err != nil {
		respondErr(c, apperr.NewInternal("failed to list invites", err))
		return
	}
	respond(c, http.StatusOK, gin.H{"invites": invites})
}

type createInviteRequest struct {
	Role    store.Role `json:"role"`
	MaxUses *int       `json:"max_uses"`
}

func (h *Handler) CreateInvite(c *gin.Context) {
	if !h.checkWorkspaceAdmin(c) {
		return
	}
	var req createInviteRequest
	_ = c.ShouldBindJSON(&req)
	if req.Role == "" {
		req.Role = store.RoleMember
	}

	token, err := authplane.GenerateToken("inv_")
	if err != nil {
		respondErr(c, apperr.NewInternal("failed to generate invite", err))
		return
	}
	inv := &store.WorkspaceInvite{
		ID: uuid.NewString(), WorkspaceID: c.Param("wid"), Token: token,
		Role: req.Role, MaxUses: req.MaxUses, CreatedAt: time.Now().UTC(),
	}
	if err := h.Store.Auth.CreateInvite(c.Request.Context(), inv); err != nil {
		respondErr(c, apperr.NewInternal("failed to create invite", err))
		return
	}
	respond(c, http.StatusCreated, inv)
}

type joinRequest struct {
	Name        string `json:"name" binding:"required"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email"`
}

// JoinViaInvite is a public endpoint: a fresh token grants a new human
// user membership without requiring a prior session.
func (h *Handler) JoinViaInvite(c *gin.Context) {
	ctx := c.Request.Context()
	inv, err := h.Store.Auth.InviteByToken(ctx, c.Param("token"))
	if err != nil {
		respondErr(c, apperr.NewInternal("failed to resolve invite", err))
		return
	}
	if inv == nil {
		respondErr(c, apperr.NewNotFound("invite not found or expired"))
		return
	}
	if inv.MaxUses != nil && inv.UseCount >= *inv.MaxUses {
		respondErr(c, apperr.NewConflict("invite already used"))
		return
	}

	var req joinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondErr(c, apperr.NewValidation(err.Error()))
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
	if err := h.Store.Workspaces.AddMember(ctx, inv.WorkspaceID, user.ID, inv.Role); err != nil {
		respondErr(c, apperr.NewInternal("failed to add member", err))
		return
	}
	if err := h.Store.Auth.ConsumeInvite(ctx, inv.ID); err != nil {
		respondErr(c, apperr.NewInternal("failed to consume invite", err))
		return
	}

	token, sess, err := authplane.NewSession(h.Store, user.ID, inv.WorkspaceID, sessionTTL)
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
