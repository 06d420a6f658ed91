package payments

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/oscodesolution-devops/gift-ginnie-server/internal/orders"
	"github.com/oscodesolution-devops/gift-ginnie-server/internal/products"
	"github.com/oscodesolution-devops/gift-ginnie-server/pkg/db/models"
	"github.com/oscodesolution-devops/gift-ginnie-server/pkg/enums"
	pkgerrors "github.com/oscodesolution-devops/gift-ginnie-server/pkg/errors"
	"github.com/oscodesolution-devops/gift-ginnie-server/pkg/logger"
	"github.com/oscodesolution-devops/gift-ginnie-server/pkg/metrics"
)

const (
	// EventPaymentCaptured is the gateway event emitted on successful capture.
	EventPaymentCaptured = "payment.captured"
	// EventPaymentFailed is the gateway event emitted when a payment attempt fails.
	EventPaymentFailed = "payment.failed"

	sourceVerify  = "verify"
	sourceWebhook = "webhook"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type signatureVerifier interface {
	VerifyPaymentSignature(orderID, paymentID, signature string) bool
}

// Service reconciles gateway payment outcomes onto local orders.
type Service interface {
	VerifyPayment(ctx context.Context, userID uuid.UUID, input VerifyInput) (*models.Order, error)
	HandleWebhook(ctx context.Context, event WebhookEvent) error
}

// VerifyInput carries the client-side payment callback payload.
type VerifyInput struct {
	GatewayOrderID   string
	GatewayPaymentID string
	Signature        string
}

// WebhookEvent is the parsed gateway webhook envelope.
type WebhookEvent struct {
	Event   string         `json:"event"`
	Payload webhookPayload `json:"payload"`
}

type webhookPayload struct {
	Payment webhookPaymentWrapper `json:"payment"`
}

type webhookPaymentWrapper struct {
	Entity webhookPaymentEntity `json:"entity"`
}

type webhookPaymentEntity struct {
	ID      string `json:"id"`
	OrderID string `json:"order_id"`
}

// ParseWebhookEvent decodes a raw webhook body.
func ParseWebhookEvent(body []byte) (WebhookEvent, error) {
	var event WebhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return WebhookEvent{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "malformed webhook payload")
	}
	return event, nil
}

// PaymentID returns the gateway payment reference of the event.
func (e WebhookEvent) PaymentID() string { return e.Payload.Payment.Entity.ID }

// OrderID returns the gateway order reference of the event.
func (e WebhookEvent) OrderID() string { return e.Payload.Payment.Entity.OrderID }

type service struct {
	tx       txRunner
	orders   orders.OrderRepository
	products products.ProductRepository
	verifier signatureVerifier
	logg     *logger.Logger
	pipeline *metrics.PipelineMetrics
}

// NewService builds the payment reconciler.
func NewService(
	tx txRunner,
	ordersRepo orders.OrderRepository,
	productsRepo products.ProductRepository,
	verifier signatureVerifier,
	logg *logger.Logger,
	pipeline *metrics.PipelineMetrics,
) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if ordersRepo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if productsRepo == nil {
		return nil, fmt.Errorf("products repository required")
	}
	if verifier == nil {
		return nil, fmt.Errorf("signature verifier required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		tx:       tx,
		orders:   ordersRepo,
		products: productsRepo,
		verifier: verifier,
		logg:     logg,
		pipeline: pipeline,
	}, nil
}

// VerifyPayment settles an order from the client checkout callback. The
// signature proves the payment reference, then the CAS transition marks the
// order COMPLETED. Replays of an already-completed order succeed without a
// second transition.
func (s *service) VerifyPayment(ctx context.Context, userID uuid.UUID, input VerifyInput) (*models.Order, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if strings.TrimSpace(input.GatewayOrderID) == "" || strings.TrimSpace(input.GatewayPaymentID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "gateway order id and payment id are required")
	}

	if !s.verifier.VerifyPaymentSignature(input.GatewayOrderID, input.GatewayPaymentID, input.Signature) {
		s.pipeline.IncPayment(sourceVerify, "invalid_signature")
		return nil, pkgerrors.New(pkgerrors.CodeSignature, "payment signature verification failed")
	}

	order, err := s.orders.FindByGatewayOrderID(ctx, input.GatewayOrderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading order")
	}
	if order.UserID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}

	paymentID := input.GatewayPaymentID
	moved, err := s.orders.TransitionStatus(ctx, order.ID, enums.OrderStatusPending, enums.OrderStatusCompleted, &paymentID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "completing order")
	}
	if !moved {
		// replays of a completed order are fine; anything else is a real conflict
		if order.Status == enums.OrderStatusCompleted {
			s.pipeline.IncPayment(sourceVerify, "replay")
			return order, nil
		}
		s.pipeline.IncPayment(sourceVerify, "state_conflict")
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order is not awaiting payment")
	}

	s.pipeline.IncPayment(sourceVerify, "completed")
	ctx = s.logg.WithOrderID(ctx, order.ID.String())
	s.logg.Info(ctx, "payment verified, order completed")

	return s.orders.FindByID(ctx, order.ID)
}

// HandleWebhook reconciles an authenticated gateway event. Unknown event
// types and unknown orders are ignored: the gateway retries on non-2xx, and
// there is nothing a retry would fix.
func (s *service) HandleWebhook(ctx context.Context, event WebhookEvent) error {
	switch event.Event {
	case EventPaymentCaptured:
		return s.reconcileCaptured(ctx, event)
	case EventPaymentFailed:
		return s.reconcileFailed(ctx, event)
	default:
		s.pipeline.IncWebhookEvent(event.Event, "ignored")
		return nil
	}
}

func (s *service) reconcileCaptured(ctx context.Context, event WebhookEvent) error {
	order, err := s.lookupOrder(ctx, event)
	if err != nil || order == nil {
		return err
	}

	paymentID := event.PaymentID()
	moved, err := s.orders.TransitionStatus(ctx, order.ID, enums.OrderStatusPending, enums.OrderStatusCompleted, &paymentID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "completing order")
	}
	if !moved {
		s.pipeline.IncWebhookEvent(event.Event, "duplicate")
		return nil
	}

	s.pipeline.IncPayment(sourceWebhook, "completed")
	s.pipeline.IncWebhookEvent(event.Event, "processed")
	ctx = s.logg.WithOrderID(ctx, order.ID.String())
	s.logg.Info(ctx, "payment captured, order completed")
	return nil
}

// reconcileFailed flips the order to PAYMENT_FAILED and returns the reserved
// stock. The cart is gone by now, so the compensation replays the order item
// snapshots. The CAS guard makes the whole compensation single-shot: a
// duplicate failed event finds the order already terminal and restores nothing.
func (s *service) reconcileFailed(ctx context.Context, event WebhookEvent) error {
	order, err := s.lookupOrder(ctx, event)
	if err != nil || order == nil {
		return err
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		ordersRepo := s.orders.WithTx(tx)
		productsRepo := s.products.WithTx(tx)

		paymentID := event.PaymentID()
		moved, err := ordersRepo.TransitionStatus(ctx, order.ID, enums.OrderStatusPending, enums.OrderStatusPaymentFailed, &paymentID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failing order")
		}
		if !moved {
			s.pipeline.IncWebhookEvent(event.Event, "duplicate")
			return nil
		}

		for _, item := range order.Items {
			if err := productsRepo.RestoreStock(ctx, item.ProductID, item.Quantity); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "restoring stock")
			}
		}

		s.pipeline.IncPayment(sourceWebhook, "failed")
		s.pipeline.IncWebhookEvent(event.Event, "processed")
		ctx := s.logg.WithOrderID(ctx, order.ID.String())
		s.logg.Info(ctx, "payment failed, stock restored")
		return nil
	})
}

func (s *service) lookupOrder(ctx context.Context, event WebhookEvent) (*models.Order, error) {
	gatewayOrderID := strings.TrimSpace(event.OrderID())
	if gatewayOrderID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "webhook payload missing order id")
	}
	order, err := s.orders.FindByGatewayOrderID(ctx, gatewayOrderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.pipeline.IncWebhookEvent(event.Event, "unknown_order")
			return nil, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading order")
	}
	return order, nil
}
