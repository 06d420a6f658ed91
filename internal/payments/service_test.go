package payments

import (
	"context"
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/oscodesolution-devops/gift-ginnie-server/internal/orders"
	"github.com/oscodesolution-devops/gift-ginnie-server/internal/products"
	"github.com/oscodesolution-devops/gift-ginnie-server/pkg/db/models"
	"github.com/oscodesolution-devops/gift-ginnie-server/pkg/enums"
	pkgerrors "github.com/oscodesolution-devops/gift-ginnie-server/pkg/errors"
	"github.com/oscodesolution-devops/gift-ginnie-server/pkg/logger"
	"github.com/oscodesolution-devops/gift-ginnie-server/pkg/types"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}

	sqlDB, err := conn.DB()
	if err != nil {
		t.Fatalf("sql db handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := conn.AutoMigrate(&models.Product{}, &models.Order{}, &models.OrderItem{}); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return conn
}

type testTxRunner struct {
	conn *gorm.DB
}

func (r testTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.conn.WithContext(ctx).Transaction(fn)
}

type stubVerifier struct {
	ok bool
}

func (s stubVerifier) VerifyPaymentSignature(orderID, paymentID, signature string) bool {
	return s.ok
}

type harness struct {
	conn     *gorm.DB
	svc      Service
	verifier *stubVerifier
	userID   uuid.UUID
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	conn := openTestDB(t)
	verifier := &stubVerifier{ok: true}
	logg := logger.New(logger.Options{ServiceName: "test", Level: zerolog.ErrorLevel, Output: io.Discard})

	svc, err := NewService(
		testTxRunner{conn: conn},
		orders.NewRepository(conn),
		products.NewRepository(conn),
		verifier,
		logg,
		nil,
	)
	require.NoError(t, err)
	return &harness{conn: conn, svc: svc, verifier: verifier, userID: uuid.New()}
}

func (h *harness) seedPendingOrder(t *testing.T, gatewayOrderID string, stock, qty int) (*models.Order, *models.Product) {
	t.Helper()
	product := &models.Product{
		Name:     "Hamper " + uuid.NewString(),
		Price:    decimal.RequireFromString("100.00"),
		Stock:    stock,
		IsActive: true,
	}
	require.NoError(t, h.conn.Create(product).Error)

	order := &models.Order{
		UserID:          h.userID,
		Status:          enums.OrderStatusPending,
		TotalPrice:      decimal.RequireFromString("200.00"),
		DiscountApplied: decimal.Zero,
		FinalPrice:      decimal.RequireFromString("200.00"),
		DeliveryAddress: types.Address{Line1: "1 Main St", City: "Mumbai", State: "MH", Country: "India", Pincode: "400001"},
		RazorpayOrderID: &gatewayOrderID,
	}
	require.NoError(t, h.conn.Create(order).Error)
	require.NoError(t, h.conn.Create(&models.OrderItem{
		OrderID:   order.ID,
		ProductID: product.ID,
		Quantity:  qty,
		Price:     decimal.RequireFromString("200.00"),
	}).Error)
	return order, product
}

func capturedEvent(gatewayOrderID, paymentID string) WebhookEvent {
	var event WebhookEvent
	event.Event = EventPaymentCaptured
	event.Payload.Payment.Entity.ID = paymentID
	event.Payload.Payment.Entity.OrderID = gatewayOrderID
	return event
}

func failedEvent(gatewayOrderID, paymentID string) WebhookEvent {
	event := capturedEvent(gatewayOrderID, paymentID)
	event.Event = EventPaymentFailed
	return event
}

func TestVerifyPaymentCompletesOrder(t *testing.T) {
	h := newHarness(t)
	h.seedPendingOrder(t, "order_rzp_1", 5, 2)

	order, err := h.svc.VerifyPayment(context.Background(), h.userID, VerifyInput{
		GatewayOrderID:   "order_rzp_1",
		GatewayPaymentID: "pay_1",
		Signature:        "sig",
	})
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusCompleted, order.Status)
	require.NotNil(t, order.RazorpayPaymentID)
	assert.Equal(t, "pay_1", *order.RazorpayPaymentID)
}

func TestVerifyPaymentIsIdempotent(t *testing.T) {
	h := newHarness(t)
	h.seedPendingOrder(t, "order_rzp_2", 5, 2)

	input := VerifyInput{GatewayOrderID: "order_rzp_2", GatewayPaymentID: "pay_2", Signature: "sig"}
	_, err := h.svc.VerifyPayment(context.Background(), h.userID, input)
	require.NoError(t, err)

	order, err := h.svc.VerifyPayment(context.Background(), h.userID, input)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusCompleted, order.Status)
}

func TestVerifyPaymentRejectsBadSignature(t *testing.T) {
	h := newHarness(t)
	h.seedPendingOrder(t, "order_rzp_3", 5, 2)
	h.verifier.ok = false

	_, err := h.svc.VerifyPayment(context.Background(), h.userID, VerifyInput{
		GatewayOrderID:   "order_rzp_3",
		GatewayPaymentID: "pay_3",
		Signature:        "bad",
	})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeSignature, typed.Code())
}

func TestVerifyPaymentScopesOwnership(t *testing.T) {
	h := newHarness(t)
	h.seedPendingOrder(t, "order_rzp_4", 5, 2)

	_, err := h.svc.VerifyPayment(context.Background(), uuid.New(), VerifyInput{
		GatewayOrderID:   "order_rzp_4",
		GatewayPaymentID: "pay_4",
		Signature:        "sig",
	})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())
}

func TestVerifyPaymentRejectsTerminalFailure(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.svc.HandleWebhook(context.Background(), failedEvent("order_rzp_5", "pay_5")))

	order, _ := h.seedPendingOrder(t, "order_rzp_5", 5, 2)
	require.NoError(t, h.svc.HandleWebhook(context.Background(), failedEvent("order_rzp_5", "pay_5")))

	_, err := h.svc.VerifyPayment(context.Background(), h.userID, VerifyInput{
		GatewayOrderID:   "order_rzp_5",
		GatewayPaymentID: "pay_5",
		Signature:        "sig",
	})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeStateConflict, typed.Code())

	var reloaded models.Order
	require.NoError(t, h.conn.First(&reloaded, "id = ?", order.ID).Error)
	assert.Equal(t, enums.OrderStatusPaymentFailed, reloaded.Status)
}

func TestWebhookCapturedCompletesOrder(t *testing.T) {
	h := newHarness(t)
	order, _ := h.seedPendingOrder(t, "order_rzp_6", 5, 2)

	require.NoError(t, h.svc.HandleWebhook(context.Background(), capturedEvent("order_rzp_6", "pay_6")))

	var reloaded models.Order
	require.NoError(t, h.conn.First(&reloaded, "id = ?", order.ID).Error)
	assert.Equal(t, enums.OrderStatusCompleted, reloaded.Status)
	require.NotNil(t, reloaded.RazorpayPaymentID)
	assert.Equal(t, "pay_6", *reloaded.RazorpayPaymentID)
}

func TestWebhookCapturedDuplicateIsNoOp(t *testing.T) {
	h := newHarness(t)
	order, _ := h.seedPendingOrder(t, "order_rzp_7", 5, 2)

	require.NoError(t, h.svc.HandleWebhook(context.Background(), capturedEvent("order_rzp_7", "pay_7")))
	require.NoError(t, h.svc.HandleWebhook(context.Background(), capturedEvent("order_rzp_7", "pay_other")))

	var reloaded models.Order
	require.NoError(t, h.conn.First(&reloaded, "id = ?", order.ID).Error)
	require.NotNil(t, reloaded.RazorpayPaymentID)
	assert.Equal(t, "pay_7", *reloaded.RazorpayPaymentID, "duplicate capture must not overwrite the payment reference")
}

func TestWebhookFailedRestoresStockOnce(t *testing.T) {
	h := newHarness(t)
	_, product := h.seedPendingOrder(t, "order_rzp_8", 3, 2)

	require.NoError(t, h.svc.HandleWebhook(context.Background(), failedEvent("order_rzp_8", "pay_8")))

	var reloaded models.Product
	require.NoError(t, h.conn.First(&reloaded, "id = ?", product.ID).Error)
	assert.Equal(t, 5, reloaded.Stock, "failed payment returns the reserved units")

	// retry of the same event must not double-restore
	require.NoError(t, h.svc.HandleWebhook(context.Background(), failedEvent("order_rzp_8", "pay_8")))
	require.NoError(t, h.conn.First(&reloaded, "id = ?", product.ID).Error)
	assert.Equal(t, 5, reloaded.Stock)
}

func TestWebhookFailedAfterCaptureKeepsCompletion(t *testing.T) {
	h := newHarness(t)
	order, product := h.seedPendingOrder(t, "order_rzp_9", 3, 2)

	require.NoError(t, h.svc.HandleWebhook(context.Background(), capturedEvent("order_rzp_9", "pay_9")))
	require.NoError(t, h.svc.HandleWebhook(context.Background(), failedEvent("order_rzp_9", "pay_9")))

	var reloaded models.Order
	require.NoError(t, h.conn.First(&reloaded, "id = ?", order.ID).Error)
	assert.Equal(t, enums.OrderStatusCompleted, reloaded.Status, "terminal status must not move")

	var stock models.Product
	require.NoError(t, h.conn.First(&stock, "id = ?", product.ID).Error)
	assert.Equal(t, 3, stock.Stock, "no compensation for a completed order")
}

func TestWebhookUnknownOrderIsIgnored(t *testing.T) {
	h := newHarness(t)
	assert.NoError(t, h.svc.HandleWebhook(context.Background(), capturedEvent("order_missing", "pay_x")))
}

func TestWebhookUnknownEventIsIgnored(t *testing.T) {
	h := newHarness(t)
	event := capturedEvent("order_rzp_10", "pay_10")
	event.Event = "refund.processed"
	assert.NoError(t, h.svc.HandleWebhook(context.Background(), event))
}

func TestParseWebhookEvent(t *testing.T) {
	t.Parallel()

	body := []byte(`{"event":"payment.captured","payload":{"payment":{"entity":{"id":"pay_1","order_id":"order_1"}}}}`)
	event, err := ParseWebhookEvent(body)
	require.NoError(t, err)
	assert.Equal(t, EventPaymentCaptured, event.Event)
	assert.Equal(t, "pay_1", event.PaymentID())
	assert.Equal(t, "order_1", event.OrderID())

	_, err = ParseWebhookEvent([]byte("{"))
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
}
