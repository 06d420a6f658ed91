package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/oscodesolution-devops/gift-ginnie-server/pkg/enums"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Coupon is a discount rule with a validity window and optional usage caps.
// UsageCount is the atomic counter backing the global cap; it only ever grows.
type Coupon struct {
	ID              uuid.UUID          `gorm:"column:id;type:uuid;primaryKey"`
	Code            string             `gorm:"column:code;not null;uniqueIndex"`
	Title           *string            `gorm:"column:title"`
	Description     *string            `gorm:"column:description"`
	DiscountType    enums.DiscountType `gorm:"column:discount_type;not null"`
	DiscountValue   decimal.Decimal    `gorm:"column:discount_value;type:numeric(10,2);not null"`
	IsActive        bool               `gorm:"column:is_active;not null;default:true"`
	ValidFrom       time.Time          `gorm:"column:valid_from;not null"`
	ValidUntil      time.Time          `gorm:"column:valid_until;not null"`
	MaxUsage        *int               `gorm:"column:max_usage"`
	MaxUsagePerUser *int               `gorm:"column:max_usage_per_user"`
	UsageCount      int                `gorm:"column:usage_count;not null;default:0"`
	CreatedAt       time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}

func (c *Coupon) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// ValidAt reports whether the coupon window covers the given instant.
func (c *Coupon) ValidAt(now time.Time) bool {
	return !c.ValidFrom.After(now) && !c.ValidUntil.Before(now)
}
