package razorpay

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	rzpsdk "github.com/razorpay/razorpay-go"
	rzputils "github.com/razorpay/razorpay-go/utils"
	"github.com/shopspring/decimal"

	"github.com/oscodesolution-devops/gift-ginnie-server/pkg/config"
	pkgerrors "github.com/oscodesolution-devops/gift-ginnie-server/pkg/errors"
	"github.com/oscodesolution-devops/gift-ginnie-server/pkg/logger"
)

var (
	errAPIKeyRequired        = errors.New("razorpay api key is required")
	errAPISecretRequired     = errors.New("razorpay api secret is required")
	errWebhookSecretRequired = errors.New("razorpay webhook secret is required")
	errLoggerRequired        = errors.New("razorpay logger is required")
)

// orderAPI is the slice of the SDK surface the gateway uses; it exists so
// tests can substitute a fake without hitting the network.
type orderAPI interface {
	Create(data map[string]interface{}, extraHeaders map[string]string) (map[string]interface{}, error)
}

// Client wraps the Razorpay SDK with centralized credentials, logging, and
// error mapping. The SDK has no context support, so calls run behind a
// deadline derived from the configured timeout.
type Client struct {
	orders        orderAPI
	apiSecret     string
	webhookSecret string
	currency      string
	timeout       time.Duration
	logger        *logger.Logger
}

// GatewayOrder is the subset of the gateway order the pipeline consumes.
type GatewayOrder struct {
	ID       string
	Amount   int64
	Currency string
	Receipt  string
}

// Gateway is the payment surface the checkout and reconciliation services use.
type Gateway interface {
	CreateOrder(ctx context.Context, amount decimal.Decimal, receipt string) (*GatewayOrder, error)
	VerifyPaymentSignature(orderID, paymentID, signature string) bool
	VerifyWebhookSignature(body []byte, signature string) bool
}

// NewClient initializes the Razorpay wrapper and validates the credentials.
func NewClient(ctx context.Context, cfg config.RazorpayConfig, logg *logger.Logger) (*Client, error) {
	if logg == nil {
		return nil, errLoggerRequired
	}
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errAPIKeyRequired
	}
	apiSecret := strings.TrimSpace(cfg.APISecret)
	if apiSecret == "" {
		return nil, errAPISecretRequired
	}
	webhookSecret := strings.TrimSpace(cfg.WebhookSecret)
	if webhookSecret == "" {
		return nil, errWebhookSecretRequired
	}

	currency := strings.ToUpper(strings.TrimSpace(cfg.Currency))
	if currency == "" {
		currency = "INR"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	sdk := rzpsdk.NewClient(apiKey, apiSecret)
	c := &Client{
		orders:        sdk.Order,
		apiSecret:     apiSecret,
		webhookSecret: webhookSecret,
		currency:      currency,
		timeout:       timeout,
		logger:        logg,
	}

	logg.Info(ctx, "razorpay client initialized")
	return c, nil
}

// Currency reports the configured settlement currency.
func (c *Client) Currency() string {
	if c == nil {
		return ""
	}
	return c.currency
}

// CreateOrder registers a gateway order for the given amount. The amount is
// a major-unit decimal and is converted to paise, truncating sub-paise dust.
func (c *Client) CreateOrder(ctx context.Context, amount decimal.Decimal, receipt string) (*GatewayOrder, error) {
	if c == nil || c.orders == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "payment gateway not configured")
	}
	paise := amount.Mul(decimal.NewFromInt(100)).IntPart()
	if paise <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order amount must be positive")
	}

	payload := map[string]interface{}{
		"amount":          paise,
		"currency":        c.currency,
		"receipt":         receipt,
		"payment_capture": 1,
	}

	raw, err := c.createWithDeadline(ctx, payload)
	if err != nil {
		c.logger.Error(ctx, "razorpay order create failed", err)
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "creating gateway order")
	}

	id, _ := raw["id"].(string)
	if id == "" {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "gateway order response missing id")
	}
	return &GatewayOrder{
		ID:       id,
		Amount:   paise,
		Currency: c.currency,
		Receipt:  receipt,
	}, nil
}

func (c *Client) createWithDeadline(ctx context.Context, payload map[string]interface{}) (map[string]interface{}, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	type result struct {
		order map[string]interface{}
		err   error
	}
	done := make(chan result, 1)
	go func() {
		order, err := c.orders.Create(payload, nil)
		done <- result{order: order, err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("gateway order create: %w", ctx.Err())
	case res := <-done:
		return res.order, res.err
	}
}

// VerifyPaymentSignature checks the checkout-callback HMAC over
// "order_id|payment_id" against the API secret.
func (c *Client) VerifyPaymentSignature(orderID, paymentID, signature string) bool {
	if c == nil || orderID == "" || paymentID == "" || signature == "" {
		return false
	}
	params := map[string]interface{}{
		"razorpay_order_id":   orderID,
		"razorpay_payment_id": paymentID,
	}
	return rzputils.VerifyPaymentSignature(params, signature, c.apiSecret)
}

// VerifyWebhookSignature checks the webhook body HMAC against the webhook secret.
func (c *Client) VerifyWebhookSignature(body []byte, signature string) bool {
	if c == nil || len(body) == 0 || signature == "" {
		return false
	}
	return rzputils.VerifyWebhookSignature(string(body), signature, c.webhookSecret)
}
