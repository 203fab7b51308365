package handler

import (
	"net/http"

	"movapp-backend/internal/usecase/notification"
	"movapp-backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

type NotificationHandler struct {
	service *notification.Service
}

func NewNotificationHandler(service *notification.Service) *NotificationHandler {
	return &NotificationHandler{service: service}
}

func (h *NotificationHandler) RegisterRoutes(router *gin.RouterGroup) {
	notifications := router.Group("/notifications")
	{
		notifications.POST("/register-token", h.RegisterToken)
		notifications.POST("/toggle", h.Toggle)
		notifications.DELETE("/token/:deviceId", h.RemoveToken)
	}
}

func (h *NotificationHandler) RegisterProtectedRoutes(router *gin.RouterGroup) {
	notifications := router.Group("/notifications")
	{
		notifications.POST("/send-to-device", h.SendToDevice)
		notifications.POST("/send-to-user", h.SendToUser)
	}
}

func (h *NotificationHandler) RegisterToken(c *gin.Context) {
	var req notification.RegisterTokenRequest
	if !bindJSON(c, &req) {
		return
	}

	status, err := h.service.RegisterPushToken(c.Request.Context(), &req)
	if err != nil {
		respondWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Push token registered", status)
}

func (h *NotificationHandler) Toggle(c *gin.Context) {
	var req notification.ToggleRequest
	if !bindJSON(c, &req) {
		return
	}

	status, err := h.service.SetPushEnabled(c.Request.Context(), &req)
	if err != nil {
		respondWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Notification preference updated", status)
}

func (h *NotificationHandler) RemoveToken(c *gin.Context) {
	status, err := h.service.RemovePushToken(c.Request.Context(), c.Param("deviceId"))
	if err != nil {
		respondWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Push token removed", status)
}

func (h *NotificationHandler) SendToDevice(c *gin.Context) {
	var req notification.SendToDeviceRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.service.SendToDevice(c.Request.Context(), &req)
	if err != nil {
		respondWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Notification sent", result)
}

func (h *NotificationHandler) SendToUser(c *gin.Context) {
	var req notification.SendToUserRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.service.SendToUser(c.Request.Context(), &req)
	if err != nil {
		respondWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Notification sent", result)
}
