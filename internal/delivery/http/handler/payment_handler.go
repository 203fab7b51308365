package handler

import (
	"io"
	"net/http"

	domainOrder "movapp-backend/internal/domain/order"
	"movapp-backend/internal/logger"
	"movapp-backend/internal/middleware"
	"movapp-backend/internal/usecase/order"
	appErrors "movapp-backend/pkg/errors"
	"movapp-backend/pkg/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	signatureHeader    = "Stripe-Signature"
	maxWebhookBodySize = 64 << 10
)

// WebhookParser verifies a gateway callback and decodes it.
type WebhookParser interface {
	ParseWebhook(payload []byte, signature string) (*domainOrder.GatewayEvent, error)
}

type PaymentHandler struct {
	service *order.Service
	parser  WebhookParser
}

func NewPaymentHandler(service *order.Service, parser WebhookParser) *PaymentHandler {
	return &PaymentHandler{service: service, parser: parser}
}

func (h *PaymentHandler) RegisterRoutes(router *gin.RouterGroup) {
	payments := router.Group("/payments/stripe")
	{
		payments.POST("/create-intent", h.CreateIntent)
		payments.POST("/webhook", h.Webhook)
		payments.GET("/:intentId", h.GetByIntent)
	}
}

func (h *PaymentHandler) CreateIntent(c *gin.Context) {
	var req order.CreateIntentRequest
	if !bindJSON(c, &req) {
		return
	}

	req.Description = utils.SanitizeText(req.Description)

	resp, err := h.service.CreatePaymentIntent(c.Request.Context(), &req)
	if err != nil {
		respondWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Payment intent created", resp)
}

// Webhook needs the raw body: the signature covers the exact bytes sent.
func (h *PaymentHandler) Webhook(c *gin.Context) {
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBodySize))
	if err != nil {
		utils.ErrorResponseWithCode(c, http.StatusBadRequest, string(appErrors.CodeValidation), invalidBodyMessage)
		return
	}

	event, err := h.parser.ParseWebhook(payload, c.GetHeader(signatureHeader))
	if err != nil {
		logger.WithRequestID(middleware.GetRequestID(c)).Warn("Rejected gateway webhook",
			zap.String("event", "webhook_rejected"),
			zap.Error(err),
		)
		respondWithError(c, err)
		return
	}

	result, err := h.service.ApplyGatewayEvent(c.Request.Context(), event)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"received": true, "status": result.Status})
}

func (h *PaymentHandler) GetByIntent(c *gin.Context) {
	resp, err := h.service.GetPaymentByIntent(c.Request.Context(), c.Param("intentId"))
	if err != nil {
		respondWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Payment retrieved", resp)
}
