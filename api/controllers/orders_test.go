package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	checkoutsvc "github.com/oscodesolution-devops/gift-ginnie-server/internal/checkout"
	paymentsvc "github.com/oscodesolution-devops/gift-ginnie-server/internal/payments"
	"github.com/oscodesolution-devops/gift-ginnie-server/pkg/db/models"
	"github.com/oscodesolution-devops/gift-ginnie-server/pkg/enums"
	pkgerrors "github.com/oscodesolution-devops/gift-ginnie-server/pkg/errors"
	"github.com/oscodesolution-devops/gift-ginnie-server/pkg/pagination"
)

type stubCheckoutService struct {
	result *checkoutsvc.CheckoutResult
	order  *models.Order
	list   *checkoutsvc.ListResult
	err    error

	gotInput *checkoutsvc.CheckoutInput
}

func (s *stubCheckoutService) Execute(ctx context.Context, userID uuid.UUID, input checkoutsvc.CheckoutInput) (*checkoutsvc.CheckoutResult, error) {
	s.gotInput = &input
	return s.result, s.err
}

func (s *stubCheckoutService) GetOrder(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, error) {
	return s.order, s.err
}

func (s *stubCheckoutService) ListOrders(ctx context.Context, userID uuid.UUID, params pagination.Params) (*checkoutsvc.ListResult, error) {
	return s.list, s.err
}

type stubPaymentService struct {
	order *models.Order
	err   error

	gotVerify *paymentsvc.VerifyInput
	gotEvent  *paymentsvc.WebhookEvent
}

func (s *stubPaymentService) VerifyPayment(ctx context.Context, userID uuid.UUID, input paymentsvc.VerifyInput) (*models.Order, error) {
	s.gotVerify = &input
	return s.order, s.err
}

func (s *stubPaymentService) HandleWebhook(ctx context.Context, event paymentsvc.WebhookEvent) error {
	s.gotEvent = &event
	return s.err
}

func TestCheckoutSuccess(t *testing.T) {
	addressID := uuid.New()
	gatewayID := "order_MkV8zQ"
	order := &models.Order{
		ID:              uuid.New(),
		Status:          enums.OrderStatusPending,
		FinalPrice:      decimal.RequireFromString("499.00"),
		RazorpayOrderID: &gatewayID,
	}
	svc := &stubCheckoutService{result: &checkoutsvc.CheckoutResult{
		Order:          order,
		GatewayOrderID: gatewayID,
		Amount:         49900,
		Currency:       "INR",
	}}
	handler := Checkout(svc, nil)

	body := `{"address_id":"` + addressID.String() + `"}`
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, authedRequest(http.MethodPost, "/api/v1/orders/checkout", body))

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d", resp.Code)
	}
	if svc.gotInput == nil || svc.gotInput.AddressID != addressID {
		t.Fatalf("unexpected checkout input: %+v", svc.gotInput)
	}

	var envelope struct {
		Data checkoutResponse `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.RazorpayOrderID != gatewayID {
		t.Fatalf("unexpected gateway order id: %s", envelope.Data.RazorpayOrderID)
	}
	if envelope.Data.Amount != 49900 || envelope.Data.Currency != "INR" {
		t.Fatalf("unexpected amount: %d %s", envelope.Data.Amount, envelope.Data.Currency)
	}
}

func TestCheckoutEmptyCart(t *testing.T) {
	handler := Checkout(&stubCheckoutService{err: pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")}, nil)

	body := `{"address_id":"` + uuid.NewString() + `"}`
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, authedRequest(http.MethodPost, "/api/v1/orders/checkout", body))

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestCheckoutOutOfStockSurfacesDetails(t *testing.T) {
	productID := uuid.New()
	handler := Checkout(&stubCheckoutService{err: pkgerrors.New(pkgerrors.CodeConflict, "insufficient stock").
		WithDetails(map[string]any{"product_id": productID.String()})}, nil)

	body := `{"address_id":"` + uuid.NewString() + `"}`
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, authedRequest(http.MethodPost, "/api/v1/orders/checkout", body))

	if resp.Code != http.StatusConflict {
		t.Fatalf("expected 409 got %d", resp.Code)
	}

	var envelope struct {
		Error struct {
			Details map[string]any `json:"details"`
		} `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Error.Details["product_id"] != productID.String() {
		t.Fatalf("expected offending product id in details, got %+v", envelope.Error.Details)
	}
}

func TestOrderListSuccess(t *testing.T) {
	list := &checkoutsvc.ListResult{
		Orders:     []models.Order{{ID: uuid.New(), Status: enums.OrderStatusCompleted}},
		NextCursor: "eyJjIjoiIn0",
	}
	handler := OrderList(&stubCheckoutService{list: list}, nil)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, authedRequest(http.MethodGet, "/api/v1/orders?limit=10", ""))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}

	var envelope struct {
		Data struct {
			Orders     []orderResponse `json:"orders"`
			NextCursor string          `json:"next_cursor"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(envelope.Data.Orders) != 1 || envelope.Data.NextCursor != list.NextCursor {
		t.Fatalf("unexpected page: %+v", envelope.Data)
	}
}

func TestOrderListRejectsBadLimit(t *testing.T) {
	handler := OrderList(&stubCheckoutService{}, nil)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, authedRequest(http.MethodGet, "/api/v1/orders?limit=abc", ""))

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestOrderDetailNotFound(t *testing.T) {
	handler := OrderDetail(&stubCheckoutService{err: pkgerrors.New(pkgerrors.CodeNotFound, "order not found")}, nil)

	orderID := uuid.New()
	r := withRouteParam(authedRequest(http.MethodGet, "/api/v1/orders/"+orderID.String(), ""), "orderId", orderID.String())
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, r)

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", resp.Code)
	}
}

func TestVerifyPaymentSuccess(t *testing.T) {
	paymentID := "pay_NkP1aB"
	order := &models.Order{ID: uuid.New(), Status: enums.OrderStatusCompleted, RazorpayPaymentID: &paymentID}
	svc := &stubPaymentService{order: order}
	handler := VerifyPayment(svc, nil)

	body := `{"razorpay_order_id":"order_MkV8zQ","razorpay_payment_id":"pay_NkP1aB","razorpay_signature":"sig"}`
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, authedRequest(http.MethodPost, "/api/v1/orders/verifyPayment", body))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if svc.gotVerify == nil || svc.gotVerify.GatewayOrderID != "order_MkV8zQ" {
		t.Fatalf("unexpected verify input: %+v", svc.gotVerify)
	}

	var envelope struct {
		Data orderResponse `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.Status != string(enums.OrderStatusCompleted) {
		t.Fatalf("unexpected status: %s", envelope.Data.Status)
	}
}

func TestVerifyPaymentBadSignature(t *testing.T) {
	handler := VerifyPayment(&stubPaymentService{err: pkgerrors.New(pkgerrors.CodeSignature, "payment signature mismatch")}, nil)

	body := `{"razorpay_order_id":"order_MkV8zQ","razorpay_payment_id":"pay_NkP1aB","razorpay_signature":"bad"}`
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, authedRequest(http.MethodPost, "/api/v1/orders/verifyPayment", body))

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestVerifyPaymentMissingFields(t *testing.T) {
	handler := VerifyPayment(&stubPaymentService{}, nil)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, authedRequest(http.MethodPost, "/api/v1/orders/verifyPayment", `{}`))

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}
