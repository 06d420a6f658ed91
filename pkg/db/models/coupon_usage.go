package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CouponUsage is the append-only audit record of one redemption. The unique
// (user, coupon) pair enforces the single-redemption business rule.
type CouponUsage struct {
	ID       uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	UserID   uuid.UUID `gorm:"column:user_id;type:uuid;not null;uniqueIndex:uq_coupon_usages_user_coupon"`
	CouponID uuid.UUID `gorm:"column:coupon_id;type:uuid;not null;uniqueIndex:uq_coupon_usages_user_coupon"`
	UsedAt   time.Time `gorm:"column:used_at;autoCreateTime"`
}

func (u *CouponUsage) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}
