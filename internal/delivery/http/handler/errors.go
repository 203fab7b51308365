package handler

import (
	"errors"
	"net/http"

	"movapp-backend/internal/logger"
	"movapp-backend/internal/middleware"
	"movapp-backend/internal/usecase/audit"
	appErrors "movapp-backend/pkg/errors"
	"movapp-backend/pkg/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const invalidBodyMessage = "Invalid request body"

func respondWithError(c *gin.Context, err error) {
	code := string(appErrors.CodeOf(err))

	switch appErrors.KindOf(err) {
	case appErrors.KindConflict:
		utils.ErrorResponseWithCode(c, http.StatusConflict, code, errorMessage(err))
	case appErrors.KindUnauthorized:
		utils.ErrorResponseWithCode(c, http.StatusUnauthorized, code, errorMessage(err))
	case appErrors.KindNotFound, appErrors.KindUnavailable:
		utils.ErrorResponseWithCode(c, http.StatusNotFound, code, errorMessage(err))
	case appErrors.KindBadRequest:
		utils.ErrorResponseWithCode(c, http.StatusBadRequest, code, errorMessage(err))
	case appErrors.KindRateLimited:
		utils.ErrorResponseWithCode(c, http.StatusTooManyRequests, code, errorMessage(err))
	default:
		_ = c.Error(err)
		logger.WithRequestID(middleware.GetRequestID(c)).Error("Unhandled error",
			zap.String("path", c.Request.URL.Path),
			zap.Error(err),
		)
		utils.ErrorResponseWithCode(c, http.StatusInternalServerError, string(appErrors.CodeInternal), "Internal server error")
	}
}

// errorMessage keeps validator detail on VALIDATION_ERROR and only the
// public message elsewhere.
func errorMessage(err error) string {
	var appErr *appErrors.AppError
	if !errors.As(err, &appErr) {
		return err.Error()
	}
	if appErr.Code == appErrors.CodeValidation && appErr.Err != nil {
		return appErr.Err.Error()
	}
	return appErr.Message
}

func bindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		utils.ErrorResponseWithCode(c, http.StatusBadRequest, string(appErrors.CodeValidation), invalidBodyMessage)
		return false
	}
	return true
}

func requestInfo(c *gin.Context) audit.RequestInfo {
	return audit.RequestInfo{
		IP:        c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	}
}
