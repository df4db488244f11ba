package httpapi

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"chatcore/internal/apperr"
	"chatcore/internal/chatsvc"
	"chatcore/internal/models"
	"chatcore/internal/store"
)

type GroupHandler struct {
	groups *chatsvc.GroupService
	store  *store.Store
	log    *slog.Logger
}

func NewGroupHandler(svc *chatsvc.GroupService, st *store.Store, log *slog.Logger) *GroupHandler {
	return &GroupHandler{groups: svc, store: st, log: log}
}

type createGroupRequest struct {
	Name        string   `json:"name" binding:"required"`
	Description string   `json:"description"`
	MemberIDs   []string `json:"memberIds"`
}

func (h *GroupHandler) Create(c *gin.Context) {
	var req createGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, h.log, apperr.Validationf("VALIDATION_ERROR", err.Error()))
		return
	}
	group, _, err := h.groups.Create(mustUserID(c), req.Name, req.Description, req.MemberIDs)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, group)
}

func (h *GroupHandler) Get(c *gin.Context) {
	group, err := h.store.GroupByConversationID(c.Param("id"))
	if err != nil {
		respondError(c, h.log, apperr.NotFoundf("GROUP_NOT_FOUND", "group not found"))
		return
	}
	c.JSON(http.StatusOK, group)
}

type updateGroupRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

func (h *GroupHandler) Update(c *gin.Context) {
	var req updateGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, h.log, apperr.Validationf("VALIDATION_ERROR", err.Error()))
		return
	}
	if err := h.groups.Rename(c.Param("id"), mustUserID(c), req.Name, req.Description); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.Status(http.StatusOK)
}

type addMembersRequest struct {
	MemberIDs []string `json:"memberIds" binding:"required"`
}

func (h *GroupHandler) AddMembers(c *gin.Context) {
	var req addMembersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, h.log, apperr.Validationf("VALIDATION_ERROR", err.Error()))
		return
	}
	if _, err := h.groups.AddMembers(c.Param("id"), mustUserID(c), req.MemberIDs); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.Status(http.StatusOK)
}

func (h *GroupHandler) RemoveMember(c *gin.Context) {
	if _, err := h.groups.RemoveMember(c.Param("id"), mustUserID(c), c.Param("userId")); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.Status(http.StatusOK)
}

type updateRoleRequest struct {
	Role string `json:"role" binding:"required"`
}

func (h *GroupHandler) UpdateRole(c *gin.Context) {
	var req updateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, h.log, apperr.Validationf("VALIDATION_ERROR", err.Error()))
		return
	}
	role := models.ParticipantRole(req.Role)
	if role != models.RoleAdmin && role != models.RoleMember {
		respondError(c, h.log, apperr.Validationf("VALIDATION_ERROR", "role must be ADMIN or MEMBER"))
		return
	}
	if err := h.groups.UpdateRole(c.Param("id"), mustUserID(c), c.Param("userId"), role); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.Status(http.StatusOK)
}
