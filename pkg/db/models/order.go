package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/oscodesolution-devops/gift-ginnie-server/pkg/enums"
	"github.com/oscodesolution-devops/gift-ginnie-server/pkg/types"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Order is the immutable snapshot of a completed checkout. After creation the
// only mutation path is the status transition applied by the payment
// reconciler; orders are never deleted.
type Order struct {
	ID                uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	UserID            uuid.UUID         `gorm:"column:user_id;type:uuid;not null;index"`
	Status            enums.OrderStatus `gorm:"column:status;not null;default:'PENDING'"`
	TotalPrice        decimal.Decimal   `gorm:"column:total_price;type:numeric(10,2);not null"`
	DiscountApplied   decimal.Decimal   `gorm:"column:discount_applied;type:numeric(10,2);not null"`
	FinalPrice        decimal.Decimal   `gorm:"column:final_price;type:numeric(10,2);not null"`
	DeliveryAddress   types.Address     `gorm:"column:delivery_address;type:jsonb;serializer:json"`
	RazorpayOrderID   *string           `gorm:"column:razorpay_order_id;uniqueIndex"`
	RazorpayPaymentID *string           `gorm:"column:razorpay_payment_id"`
	Items             []OrderItem       `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt         time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

func (o *Order) BeforeCreate(tx *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}
