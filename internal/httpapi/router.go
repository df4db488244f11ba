package httpapi

import (
	"github.com/gin-gonic/gin"

	"chatcore/internal/auth"
	"chatcore/internal/ws"
)

// Deps bundles every handler the router wires up.
type Deps struct {
	Auth          *AuthHandler
	Users         *UserHandler
	Contacts      *ContactHandler
	Conversations *ConversationHandler
	Groups        *GroupHandler
	Messages      *MessageHandler
	Health        *HealthHandler
	WS            *WSHandler
	Tokens        *auth.Service
	Hub           *ws.Hub
}

func NewRouter(d Deps) *gin.Engine {
	r := gin.Default()

	r.GET("/health", d.Health.Health)
	r.GET("/ws", d.WS.Handle)

	api := r.Group("/api")
	api.POST("/auth/register", d.Auth.Register)
	api.POST("/auth/login", d.Auth.Login)
	api.POST("/auth/refresh", d.Auth.Refresh)
	api.POST("/auth/logout", d.Auth.Logout)

	authed := api.Group("")
	authed.Use(AuthMiddleware(d.Tokens))

	authed.GET("/users/me", d.Users.Me)
	authed.PUT("/users/me", d.Users.UpdateMe)
	authed.GET("/users/search", d.Users.Search)
	authed.GET("/users/:id", d.Users.GetByID)

	authed.GET("/contacts", d.Contacts.List)
	authed.POST("/contacts", d.Contacts.Add)
	authed.DELETE("/contacts/:userId", d.Contacts.Remove)
	authed.GET("/blocks", d.Contacts.ListBlocks)
	authed.POST("/blocks", d.Contacts.AddBlock)
	authed.DELETE("/blocks/:userId", d.Contacts.RemoveBlock)

	authed.POST("/conversations/direct", d.Conversations.CreateDirect)
	authed.GET("/conversations", d.Conversations.List)
	authed.GET("/conversations/:id", d.Conversations.Get)
	authed.GET("/conversations/:id/messages", d.Conversations.Messages)

	authed.POST("/groups", d.Groups.Create)
	authed.GET("/groups/:id", d.Groups.Get)
	authed.PUT("/groups/:id", d.Groups.Update)
	authed.POST("/groups/:id/members", d.Groups.AddMembers)
	authed.DELETE("/groups/:id/members/:userId", d.Groups.RemoveMember)
	authed.PUT("/groups/:id/members/:userId/role", d.Groups.UpdateRole)

	authed.PUT("/messages/:id", d.Messages.Edit)
	authed.DELETE("/messages/:id", d.Messages.Delete)
	authed.POST("/messages/forward", d.Messages.Forward)
	authed.GET("/messages/search", d.Messages.Search)
	authed.GET("/notifications/unread", d.Messages.UnreadSummary)

	return r
}
