package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/linkcircle/internal/application"
	"github.com/oksasatya/linkcircle/internal/domain/entity"
	"github.com/oksasatya/linkcircle/pkg/response"
)

// CircleHandler exposes the connection request protocol and circle management.
type CircleHandler struct {
	Svc    *application.CircleService
	Logger *logrus.Logger
	// Enforce makes the session user the only one allowed to act as the
	// sender (request) or recipient (accept, decline).
	Enforce bool
}

func NewCircleHandler(svc *application.CircleService, logger *logrus.Logger, enforce bool) *CircleHandler {
	return &CircleHandler{Svc: svc, Logger: logger, Enforce: enforce}
}

type circleRequestBody struct {
	FromUserID string `json:"fromUserId" binding:"required"`
	ToUserID   string `json:"toUserId" binding:"required"`
}

type createCircleRequest struct {
	Name string `json:"name" binding:"required,circlename"`
}

type updateCircleRequest struct {
	Name  *string  `json:"name" binding:"omitempty,circlename"`
	Order []string `json:"order" binding:"omitempty,max=1000"`
}

type moveCircleRequest struct {
	Position *int `json:"position" binding:"required,gte=0"`
}

type addMemberRequest struct {
	MemberID string `json:"memberId" binding:"required"`
}

func (h *CircleHandler) SendRequest(c *gin.Context) {
	var req circleRequestBody
	if !bindJSON(c, &req) || !mayActAs(c, h.Enforce, req.FromUserID) {
		return
	}
	if err := h.Svc.SendRequest(c.Request.Context(), req.FromUserID, req.ToUserID); err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success[any](c, http.StatusOK, gin.H{"requested": true}, "Request sent", nil)
}

func (h *CircleHandler) AcceptRequest(c *gin.Context) {
	var req circleRequestBody
	if !bindJSON(c, &req) || !mayActAs(c, h.Enforce, req.ToUserID) {
		return
	}
	if err := h.Svc.AcceptRequest(c.Request.Context(), req.FromUserID, req.ToUserID); err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success[any](c, http.StatusOK, gin.H{"connected": true}, "Request accepted", nil)
}

func (h *CircleHandler) DeclineRequest(c *gin.Context) {
	var req circleRequestBody
	if !bindJSON(c, &req) || !mayActAs(c, h.Enforce, req.ToUserID) {
		return
	}
	if err := h.Svc.DeclineRequest(c.Request.Context(), req.FromUserID, req.ToUserID); err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success[any](c, http.StatusOK, gin.H{"declined": true}, "Request declined", nil)
}

func (h *CircleHandler) Disconnect(c *gin.Context) {
	if err := h.Svc.Disconnect(c.Request.Context(), c.Param("id"), c.Param("otherId")); err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success[any](c, http.StatusOK, gin.H{"connected": false}, "Disconnected", nil)
}

func (h *CircleHandler) CreateCircle(c *gin.Context) {
	var req createCircleRequest
	if !bindJSON(c, &req) {
		return
	}
	circles, err := h.Svc.CreateCircle(c.Request.Context(), c.Param("id"), req.Name)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusCreated, toCircles(circles), "circle created", nil)
}

func (h *CircleHandler) UpdateCircle(c *gin.Context) {
	var req updateCircleRequest
	if !bindJSON(c, &req) {
		return
	}
	circle, err := h.Svc.UpdateCircle(c.Request.Context(), c.Param("id"), circleRef(c), application.CircleUpdate{
		Name:  req.Name,
		Order: req.Order,
	})
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, toCircle(*circle), "circle updated", nil)
}

func (h *CircleHandler) MoveCircle(c *gin.Context) {
	var req moveCircleRequest
	if !bindJSON(c, &req) {
		return
	}
	circles, err := h.Svc.MoveCircle(c.Request.Context(), c.Param("id"), circleRef(c), *req.Position)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, toCircles(circles), "circle moved", nil)
}

func (h *CircleHandler) DeleteCircle(c *gin.Context) {
	circles, err := h.Svc.DeleteCircle(c.Request.Context(), c.Param("id"), circleRef(c))
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, toCircles(circles), "circle deleted", nil)
}

func (h *CircleHandler) AddMember(c *gin.Context) {
	var req addMemberRequest
	if !bindJSON(c, &req) {
		return
	}
	circle, err := h.Svc.AddMember(c.Request.Context(), c.Param("id"), circleRef(c), req.MemberID)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, toCircle(*circle), "member added", nil)
}

func (h *CircleHandler) RemoveMember(c *gin.Context) {
	circle, err := h.Svc.RemoveMember(c.Request.Context(), c.Param("id"), circleRef(c), c.Param("memberId"))
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, toCircle(*circle), "member removed", nil)
}

// circleRef reads the :circle segment, a position or a circle id.
func circleRef(c *gin.Context) entity.CircleRef {
	return entity.ParseCircleRef(c.Param("circle"))
}
