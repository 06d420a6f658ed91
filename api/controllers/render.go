package controllers

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/oscodesolution-devops/gift-ginnie-server/internal/pricing"
	"github.com/oscodesolution-devops/gift-ginnie-server/pkg/db/models"
	"github.com/oscodesolution-devops/gift-ginnie-server/pkg/types"
)

type productResponse struct {
	ID          uuid.UUID       `json:"id"`
	Name        string          `json:"name"`
	Description *string         `json:"description,omitempty"`
	Brand       *string         `json:"brand,omitempty"`
	ProductType *string         `json:"product_type,omitempty"`
	Price       decimal.Decimal `json:"price"`
	InStock     bool            `json:"in_stock"`
	CreatedAt   time.Time       `json:"created_at"`
}

func newProductResponse(p *models.Product) productResponse {
	return productResponse{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Brand:       p.Brand,
		ProductType: p.ProductType,
		Price:       p.Price,
		InStock:     p.InStock(1),
		CreatedAt:   p.CreatedAt,
	}
}

type cartItemResponse struct {
	ID        uuid.UUID        `json:"id"`
	ProductID uuid.UUID        `json:"product_id"`
	Product   *productResponse `json:"product,omitempty"`
	Quantity  int              `json:"quantity"`
	Price     decimal.Decimal  `json:"price"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}

type couponResponse struct {
	ID            uuid.UUID       `json:"id"`
	Code          string          `json:"code"`
	Title         *string         `json:"title,omitempty"`
	Description   *string         `json:"description,omitempty"`
	DiscountType  string          `json:"discount_type"`
	DiscountValue decimal.Decimal `json:"discount_value"`
	ValidFrom     time.Time       `json:"valid_from"`
	ValidUntil    time.Time       `json:"valid_until"`
}

func newCouponResponse(c *models.Coupon) *couponResponse {
	if c == nil {
		return nil
	}
	return &couponResponse{
		ID:            c.ID,
		Code:          c.Code,
		Title:         c.Title,
		Description:   c.Description,
		DiscountType:  string(c.DiscountType),
		DiscountValue: c.DiscountValue,
		ValidFrom:     c.ValidFrom,
		ValidUntil:    c.ValidUntil,
	}
}

type cartResponse struct {
	ID              uuid.UUID          `json:"id"`
	Items           []cartItemResponse `json:"items"`
	Coupon          *couponResponse    `json:"coupon,omitempty"`
	TotalPrice      decimal.Decimal    `json:"total_price"`
	DiscountApplied decimal.Decimal    `json:"discount_applied"`
	FinalPrice      decimal.Decimal    `json:"final_price"`
	CreatedAt       time.Time          `json:"created_at"`
	UpdatedAt       time.Time          `json:"updated_at"`
}

func newCartResponse(record *models.Cart) cartResponse {
	items := make([]cartItemResponse, 0, len(record.Items))
	for _, item := range record.Items {
		rendered := cartItemResponse{
			ID:        item.ID,
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Price:     item.Price,
			CreatedAt: item.CreatedAt,
			UpdatedAt: item.UpdatedAt,
		}
		if item.Product != nil {
			product := newProductResponse(item.Product)
			rendered.Product = &product
		}
		items = append(items, rendered)
	}

	quote := pricing.PriceCart(record, time.Now())

	return cartResponse{
		ID:              record.ID,
		Items:           items,
		Coupon:          newCouponResponse(record.Coupon),
		TotalPrice:      quote.TotalPrice,
		DiscountApplied: quote.DiscountApplied,
		FinalPrice:      quote.FinalPrice,
		CreatedAt:       record.CreatedAt,
		UpdatedAt:       record.UpdatedAt,
	}
}

type orderItemResponse struct {
	ID        uuid.UUID       `json:"id"`
	ProductID uuid.UUID       `json:"product_id"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}

type orderResponse struct {
	ID                uuid.UUID           `json:"id"`
	Status            string              `json:"status"`
	TotalPrice        decimal.Decimal     `json:"total_price"`
	DiscountApplied   decimal.Decimal     `json:"discount_applied"`
	FinalPrice        decimal.Decimal     `json:"final_price"`
	DeliveryAddress   types.Address       `json:"delivery_address"`
	RazorpayOrderID   *string             `json:"razorpay_order_id,omitempty"`
	RazorpayPaymentID *string             `json:"razorpay_payment_id,omitempty"`
	Items             []orderItemResponse `json:"items"`
	CreatedAt         time.Time           `json:"created_at"`
	UpdatedAt         time.Time           `json:"updated_at"`
}

func newOrderResponse(order *models.Order) orderResponse {
	items := make([]orderItemResponse, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, orderItemResponse{
			ID:        item.ID,
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Price:     item.Price,
		})
	}

	return orderResponse{
		ID:                order.ID,
		Status:            string(order.Status),
		TotalPrice:        order.TotalPrice,
		DiscountApplied:   order.DiscountApplied,
		FinalPrice:        order.FinalPrice,
		DeliveryAddress:   order.DeliveryAddress,
		RazorpayOrderID:   order.RazorpayOrderID,
		RazorpayPaymentID: order.RazorpayPaymentID,
		Items:             items,
		CreatedAt:         order.CreatedAt,
		UpdatedAt:         order.UpdatedAt,
	}
}

type addressResponse struct {
	ID          uuid.UUID `json:"id"`
	AddressType string    `json:"address_type"`
	Line1       string    `json:"address_line_1"`
	Line2       *string   `json:"address_line_2,omitempty"`
	City        string    `json:"city"`
	State       string    `json:"state"`
	Country     string    `json:"country"`
	Pincode     string    `json:"pincode"`
	CreatedAt   time.Time `json:"created_at"`
}

func newAddressResponse(a *models.CustomerAddress) addressResponse {
	return addressResponse{
		ID:          a.ID,
		AddressType: string(a.AddressType),
		Line1:       a.Line1,
		Line2:       a.Line2,
		City:        a.City,
		State:       a.State,
		Country:     a.Country,
		Pincode:     a.Pincode,
		CreatedAt:   a.CreatedAt,
	}
}
