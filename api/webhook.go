package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/Domenick1991/spacebooking/internal/kafka"
	"github.com/Domenick1991/spacebooking/internal/service/payments"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const signatureHeader = "X-Razorpay-Signature"

type SignatureVerifier interface {
	VerifyWebhook(body []byte, signature string) bool
}

type Reconciler interface {
	Reconcile(ctx context.Context, notification kafka.PaymentNotification) (*payments.Result, error)
}

// WebhookHandler receives gateway notifications. With a publisher configured they are queued
// on the payments topic for the worker, otherwise they are reconciled in the request.
type WebhookHandler struct {
	verifier   SignatureVerifier
	reconciler Reconciler
	publisher  kafka.Publisher
	topic      string
	log        *zap.Logger
}

// webhookPayload accepts the flat form, the {type, data: {id}} form and the provider's
// native {event, payload.payment.entity.id} envelope.
type webhookPayload struct {
	Type              string `json:"type"`
	Event             string `json:"event"`
	ExternalPaymentID string `json:"external_payment_id"`
	Data              struct {
		ID string `json:"id"`
	} `json:"data"`
	Payload struct {
		Payment struct {
			Entity struct {
				ID string `json:"id"`
			} `json:"entity"`
		} `json:"payment"`
	} `json:"payload"`
}

func (p webhookPayload) notification() kafka.PaymentNotification {
	n := kafka.PaymentNotification{Type: p.Type, ExternalPaymentID: p.ExternalPaymentID}
	if n.Type == "" {
		n.Type = p.Event
	}
	if n.ExternalPaymentID == "" {
		n.ExternalPaymentID = p.Data.ID
	}
	if n.ExternalPaymentID == "" {
		n.ExternalPaymentID = p.Payload.Payment.Entity.ID
	}
	return n
}

func NewWebhookHandler(verifier SignatureVerifier, reconciler Reconciler, publisher kafka.Publisher, topic string, log *zap.Logger) *WebhookHandler {
	return &WebhookHandler{
		verifier:   verifier,
		reconciler: reconciler,
		publisher:  publisher,
		topic:      topic,
		log:        log,
	}
}

func (h *WebhookHandler) Register(router *gin.RouterGroup, middleware ...gin.HandlerFunc) {
	router.POST("/payments", append(middleware, h.receive)...)
}

func (h *WebhookHandler) receive(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		badRequest(c, err)
		return
	}
	if !h.verifier.VerifyWebhook(body, c.GetHeader(signatureHeader)) {
		h.log.Warn("payment webhook rejected: bad signature", zap.String("remote", c.ClientIP()))
		c.JSON(http.StatusUnauthorized, errorResponse{Error: "invalid signature"})
		return
	}

	var payload webhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		c.JSON(http.StatusOK, payments.Result{Reason: "malformed notification body"})
		return
	}
	notification := payload.notification()

	if h.publisher != nil && h.topic != "" && notification.ExternalPaymentID != "" {
		err := h.publisher.Publish(c.Request.Context(), h.topic, notification.ExternalPaymentID, notification)
		if err == nil {
			c.JSON(http.StatusOK, gin.H{"queued": true})
			return
		}
		h.log.Warn("failed to queue payment notification, reconciling inline",
			zap.String("external_payment_id", notification.ExternalPaymentID), zap.Error(err))
	}

	result, err := h.reconciler.Reconcile(c.Request.Context(), notification)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
