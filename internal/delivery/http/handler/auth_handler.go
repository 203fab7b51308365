package handler

import (
	"net/http"

	"movapp-backend/internal/logger"
	"movapp-backend/internal/middleware"
	"movapp-backend/internal/usecase/session"
	appErrors "movapp-backend/pkg/errors"
	"movapp-backend/pkg/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type AuthHandler struct {
	service *session.Service
}

func NewAuthHandler(service *session.Service) *AuthHandler {
	return &AuthHandler{service: service}
}

func (h *AuthHandler) RegisterRoutes(router *gin.RouterGroup) {
	authGroup := router.Group("/auth")
	{
		authGroup.POST("/register", h.Register)
		authGroup.POST("/login", h.Login)
		authGroup.POST("/refresh-token", h.RefreshToken)
		authGroup.POST("/revoke-device", h.RevokeDevice)
		authGroup.POST("/recover", h.Recover)
		authGroup.POST("/reset-password", h.ResetPassword)
	}
}

func (h *AuthHandler) RegisterAccountRoutes(router *gin.RouterGroup) {
	account := router.Group("/auth")
	{
		account.DELETE("/account", h.DeleteAccount)
		account.GET("/devices", h.ListDevices)
	}
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req session.RegisterRequest
	if !bindJSON(c, &req) {
		return
	}

	req.Email = utils.SanitizeEmail(req.Email)
	req.Name = utils.SanitizeText(req.Name)
	req.Phone = utils.SanitizePhone(req.Phone)
	if req.PostalCode != nil {
		sanitized := utils.SanitizeText(*req.PostalCode)
		req.PostalCode = &sanitized
	}

	authResponse, err := h.service.Register(c.Request.Context(), &req, requestInfo(c))
	if err != nil {
		respondWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusCreated, "User registered successfully", authResponse)
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req session.LoginRequest
	if !bindJSON(c, &req) {
		return
	}

	req.Email = utils.SanitizeEmail(req.Email)

	authResponse, err := h.service.Login(c.Request.Context(), &req, requestInfo(c))
	if err != nil {
		respondWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Login successful", authResponse)
}

// RefreshToken answers every failure with 401 so clients drop to the login screen.
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	var req session.RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponseWithCode(c, http.StatusUnauthorized, string(appErrors.CodeInvalidRefreshToken), appErrors.ErrInvalidRefreshToken.Message)
		return
	}

	resp, err := h.service.RefreshAccessToken(c.Request.Context(), &req)
	if err != nil {
		if appErrors.KindOf(err) != appErrors.KindUnauthorized {
			logger.WithRequestID(middleware.GetRequestID(c)).Error("Refresh token exchange failed", zap.Error(err))
		}
		utils.ErrorResponseWithCode(c, http.StatusUnauthorized, string(appErrors.CodeInvalidRefreshToken), appErrors.ErrInvalidRefreshToken.Message)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Token refreshed", resp)
}

func (h *AuthHandler) RevokeDevice(c *gin.Context) {
	var req session.RevokeDeviceRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.service.RevokeDevice(c.Request.Context(), &req, requestInfo(c)); err != nil {
		respondWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Device revoked", nil)
}

func (h *AuthHandler) Recover(c *gin.Context) {
	var req session.RecoverRequest
	if !bindJSON(c, &req) {
		return
	}

	req.Email = utils.SanitizeEmail(req.Email)

	if err := h.service.SendRecoveryCode(c.Request.Context(), &req); err != nil {
		respondWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Recovery code sent", nil)
}

func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req session.ResetPasswordRequest
	if !bindJSON(c, &req) {
		return
	}

	req.Email = utils.SanitizeEmail(req.Email)
	req.Code = utils.SanitizeString(req.Code)

	authResponse, err := h.service.ResetPassword(c.Request.Context(), &req, requestInfo(c))
	if err != nil {
		respondWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Password reset successfully", authResponse)
}

func (h *AuthHandler) DeleteAccount(c *gin.Context) {
	userID, ok := middleware.GetUserUUID(c)
	if !ok {
		respondWithError(c, appErrors.ErrUnauthenticated)
		return
	}

	resp, err := h.service.DeleteAccount(c.Request.Context(), userID, requestInfo(c))
	if err != nil {
		respondWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, resp.Message, resp)
}

func (h *AuthHandler) ListDevices(c *gin.Context) {
	userID, ok := middleware.GetUserUUID(c)
	if !ok {
		respondWithError(c, appErrors.ErrUnauthenticated)
		return
	}

	devices, err := h.service.ListDevices(c.Request.Context(), userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Devices retrieved", devices)
}
