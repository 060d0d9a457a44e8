package rest

import "github.com/gin-gonic/gin"

// SetupRoutes registers every /api route against the handler. Auth is
// applied upstream via authplane.Middleware on the parent group.
func SetupRoutes(router *gin.RouterGroup, h *Handler) {
	router.GET("/health", h.Health)

	router.POST("/users/onboard", h.OnboardUser)
	router.GET("/users/me", h.GetMe)
	router.PATCH("/users/me", h.UpdateMe)
	router.DELETE("/users/me", h.DeleteMe)

	channels := router.Group("/channels")
	{
		channels.GET("", h.ListChannels)
		channels.POST("", h.CreateChannel)
		channels.GET("/:id", h.GetChannel)
		channels.DELETE("/:id", h.DeleteChannel)
		channels.GET("/:id/analytics", h.ChannelAnalytics)
		channels.GET("/:id/messages", h.ListMessages)
		channels.POST("/:id/messages", h.PostMessage)
		channels.PATCH("/:id/messages/:mid", h.EditMessage)
		channels.DELETE("/:id/messages/:mid", h.DeleteMessage)
		channels.POST("/:id/messages/:mid/pin", h.PinMessage)
		channels.GET("/:id/messages/pinned", h.ListPinned)
		channels.POST("/:id/messages/:mid/react", h.ReactMessage)
		channels.GET("/:id/messages/:mid/reactions", h.ListReactions)
	}

	agents := router.Group("/agents")
	{
		agents.GET("", h.ListAgents)
		agents.GET("/:name", h.GetAgent)
		agents.POST("/:name/dm", h.DMAgent)
	}

	features := router.Group("/features")
	{
		features.GET("", h.ListFeatures)
		features.POST("", h.CreateFeature)
		features.POST("/:id/vote", h.VoteFeature)
	}

	router.GET("/search", h.Search)

	workspaces := router.Group("/workspaces")
	{
		workspaces.GET("", h.ListWorkspaces)
		workspaces.GET("/:wid/members", h.ListMembers)
		workspaces.GET("/:wid/keys", h.ListAPIKeys)
		workspaces.POST("/:wid/keys", h.CreateAPIKey)
		workspaces.DELETE("/:wid/keys/:kid", h.RevokeAPIKey)
		workspaces.GET("/:wid/invites", h.ListInvites)
		workspaces.POST("/:wid/invites", h.CreateInvite)
	}

	router.POST("/join/:token", h.JoinViaInvite)

	auth := router.Group("/auth")
	{
		auth.GET("/me", h.AuthMe)
		auth.POST("/logout", h.Logout)
	}
}
