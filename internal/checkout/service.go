package checkout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/oscodesolution-devops/gift-ginnie-server/internal/address"
	"github.com/oscodesolution-devops/gift-ginnie-server/internal/cart"
	"github.com/oscodesolution-devops/gift-ginnie-server/internal/orders"
	"github.com/oscodesolution-devops/gift-ginnie-server/internal/pricing"
	"github.com/oscodesolution-devops/gift-ginnie-server/internal/products"
	"github.com/oscodesolution-devops/gift-ginnie-server/pkg/db/models"
	pkgerrors "github.com/oscodesolution-devops/gift-ginnie-server/pkg/errors"
	"github.com/oscodesolution-devops/gift-ginnie-server/pkg/metrics"
	"github.com/oscodesolution-devops/gift-ginnie-server/pkg/pagination"
	"github.com/oscodesolution-devops/gift-ginnie-server/pkg/razorpay"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service executes checkout orchestration and order reads.
type Service interface {
	Execute(ctx context.Context, userID uuid.UUID, input CheckoutInput) (*CheckoutResult, error)
	GetOrder(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, error)
	ListOrders(ctx context.Context, userID uuid.UUID, params pagination.Params) (*ListResult, error)
}

// CheckoutInput captures the checkout request.
type CheckoutInput struct {
	AddressID uuid.UUID
}

// CheckoutResult is the committed order plus the gateway handle the client
// needs to collect payment.
type CheckoutResult struct {
	Order          *models.Order
	GatewayOrderID string
	Amount         int64
	Currency       string
}

// ListResult carries one order page plus the follow-up cursor.
type ListResult struct {
	Orders     []models.Order
	NextCursor string
}

type service struct {
	tx        txRunner
	carts     cart.CartRepository
	orders    orders.OrderRepository
	productsR products.ProductRepository
	addresses address.Service
	gateway   razorpay.Gateway
	pipeline  *metrics.PipelineMetrics
	now       func() time.Time
}

// NewService builds the checkout service.
func NewService(
	tx txRunner,
	carts cart.CartRepository,
	ordersRepo orders.OrderRepository,
	productsRepo products.ProductRepository,
	addresses address.Service,
	gateway razorpay.Gateway,
	pipeline *metrics.PipelineMetrics,
) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if carts == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if ordersRepo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if productsRepo == nil {
		return nil, fmt.Errorf("products repository required")
	}
	if addresses == nil {
		return nil, fmt.Errorf("address service required")
	}
	if gateway == nil {
		return nil, fmt.Errorf("payment gateway required")
	}
	return &service{
		tx:        tx,
		carts:     carts,
		orders:    ordersRepo,
		productsR: productsRepo,
		addresses: addresses,
		gateway:   gateway,
		pipeline:  pipeline,
		now:       time.Now,
	}, nil
}

// Execute converts the user's cart into a PENDING order. Stock decrements,
// order rows, the gateway registration, and the cart deletion share one
// transaction: a gateway failure rolls the stock back, and a stock shortage
// never reaches the gateway.
func (s *service) Execute(ctx context.Context, userID uuid.UUID, input CheckoutInput) (*CheckoutResult, error) {
	started := time.Now()
	result, err := s.execute(ctx, userID, input)
	s.pipeline.ObserveCheckout(outcomeLabel(err), time.Since(started))
	return result, err
}

func (s *service) execute(ctx context.Context, userID uuid.UUID, input CheckoutInput) (*CheckoutResult, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if input.AddressID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "address id is required")
	}

	deliveryAddress, err := s.addresses.FindForUser(ctx, userID, input.AddressID)
	if err != nil {
		return nil, err
	}

	var result *CheckoutResult
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		carts := s.carts.WithTx(tx)
		ordersRepo := s.orders.WithTx(tx)
		productsRepo := s.productsR.WithTx(tx)

		record, err := carts.FindByUser(ctx, userID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading cart")
		}
		if len(record.Items) == 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
		}

		quote := pricing.PriceCart(record, s.now())

		for _, item := range record.Items {
			ok, err := productsRepo.DecrementStock(ctx, item.ProductID, item.Quantity)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reserving stock")
			}
			if !ok {
				return pkgerrors.New(pkgerrors.CodeConflict, "product is out of stock").
					WithDetails(map[string]any{"product_id": item.ProductID})
			}
		}

		order, err := ordersRepo.Create(ctx, &models.Order{
			UserID:          userID,
			TotalPrice:      quote.TotalPrice,
			DiscountApplied: quote.DiscountApplied,
			FinalPrice:      quote.FinalPrice,
			DeliveryAddress: deliveryAddress.Snapshot(),
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "creating order")
		}

		items := make([]models.OrderItem, 0, len(record.Items))
		for _, item := range record.Items {
			items = append(items, models.OrderItem{
				OrderID:   order.ID,
				ProductID: item.ProductID,
				Quantity:  item.Quantity,
				Price:     item.Price,
			})
		}
		if err := ordersRepo.CreateItems(ctx, items); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "creating order items")
		}

		receipt := fmt.Sprintf("order_rcptid_%s", order.ID)
		gatewayOrder, err := s.gateway.CreateOrder(ctx, quote.FinalPrice, receipt)
		if err != nil {
			return err
		}
		if err := ordersRepo.AttachGatewayOrder(ctx, order.ID, gatewayOrder.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "attaching gateway order")
		}

		if err := carts.Delete(ctx, record.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clearing cart")
		}

		committed, err := ordersRepo.FindByID(ctx, order.ID)
		if err != nil {
			return err
		}
		result = &CheckoutResult{
			Order:          committed,
			GatewayOrderID: gatewayOrder.ID,
			Amount:         gatewayOrder.Amount,
			Currency:       gatewayOrder.Currency,
		}
		return nil
	})
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil {
			return nil, typed
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "executing checkout")
	}
	return result, nil
}

// GetOrder loads one order scoped to its owner.
func (s *service) GetOrder(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, error) {
	if userID == uuid.Nil || orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id and order id are required")
	}
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading order")
	}
	if order.UserID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return order, nil
}

// ListOrders returns the user's order history, newest first.
func (s *service) ListOrders(ctx context.Context, userID uuid.UUID, params pagination.Params) (*ListResult, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	rows, err := s.orders.ListByUser(ctx, userID, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "listing orders")
	}

	limit := pagination.NormalizeLimit(params.Limit)
	result := &ListResult{Orders: rows}
	if len(rows) > limit {
		result.Orders = rows[:limit]
		last := result.Orders[limit-1]
		result.NextCursor = pagination.EncodeCursor(pagination.Cursor{
			CreatedAt: last.CreatedAt,
			ID:        last.ID,
		})
	}
	return result, nil
}

func outcomeLabel(err error) string {
	if err == nil {
		return "success"
	}
	if typed := pkgerrors.As(err); typed != nil {
		switch typed.Code() {
		case pkgerrors.CodeConflict:
			return "out_of_stock"
		case pkgerrors.CodeValidation:
			return "rejected"
		case pkgerrors.CodeDependency:
			return "gateway_error"
		}
	}
	return "error"
}
