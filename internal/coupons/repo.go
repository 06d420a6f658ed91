package coupons

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/oscodesolution-devops/gift-ginnie-server/pkg/db/models"
)

// CouponRepository exposes persistence operations for the coupon ledger.
type CouponRepository interface {
	WithTx(tx *gorm.DB) CouponRepository
	FindByCode(ctx context.Context, code string) (*models.Coupon, error)
	IncrementUsage(ctx context.Context, couponID uuid.UUID) (bool, error)
	RecordUsage(ctx context.Context, userID, couponID uuid.UUID) error
	UserUsageCount(ctx context.Context, userID, couponID uuid.UUID) (int64, error)
}

// Repository is the GORM-backed CouponRepository.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a coupon repository bound to the provided DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx binds the repository to a transaction.
func (r *Repository) WithTx(tx *gorm.DB) CouponRepository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// FindByCode loads one coupon by its public code.
func (r *Repository) FindByCode(ctx context.Context, code string) (*models.Coupon, error) {
	var coupon models.Coupon
	if err := r.db.WithContext(ctx).First(&coupon, "code = ?", code).Error; err != nil {
		return nil, err
	}
	return &coupon, nil
}

// IncrementUsage consumes one unit of the global cap. The guarded UPDATE is
// the only writer of usage_count, so concurrent redeemers serialize on the
// row and at most max_usage of them see RowsAffected == 1.
func (r *Repository) IncrementUsage(ctx context.Context, couponID uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Coupon{}).
		Where("id = ? AND (max_usage IS NULL OR usage_count < max_usage)", couponID).
		UpdateColumn("usage_count", gorm.Expr("usage_count + 1"))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// RecordUsage appends the redemption audit row. The unique (user, coupon)
// index surfaces duplicate redemptions as a constraint error.
func (r *Repository) RecordUsage(ctx context.Context, userID, couponID uuid.UUID) error {
	return r.db.WithContext(ctx).Create(&models.CouponUsage{
		UserID:   userID,
		CouponID: couponID,
	}).Error
}

// UserUsageCount reports how many times the user redeemed the coupon.
func (r *Repository) UserUsageCount(ctx context.Context, userID, couponID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.CouponUsage{}).
		Where("user_id = ? AND coupon_id = ?", userID, couponID).
		Count(&count).Error
	return count, err
}
