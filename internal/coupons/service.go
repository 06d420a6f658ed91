package coupons

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/oscodesolution-devops/gift-ginnie-server/internal/cart"
	"github.com/oscodesolution-devops/gift-ginnie-server/pkg/db"
	"github.com/oscodesolution-devops/gift-ginnie-server/pkg/db/models"
	pkgerrors "github.com/oscodesolution-devops/gift-ginnie-server/pkg/errors"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service exposes coupon reads and redemption.
type Service interface {
	GetByCode(ctx context.Context, code string) (*models.Coupon, error)
	Apply(ctx context.Context, userID uuid.UUID, code string) (*models.Cart, error)
	Remove(ctx context.Context, userID uuid.UUID) (*models.Cart, error)
}

type service struct {
	repo  CouponRepository
	carts cart.CartRepository
	tx    txRunner
	now   func() time.Time
}

// NewService builds a coupon service backed by the provided stack.
func NewService(repo CouponRepository, carts cart.CartRepository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("coupon repository required")
	}
	if carts == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, carts: carts, tx: tx, now: time.Now}, nil
}

// GetByCode returns coupon details for the public lookup endpoint.
func (s *service) GetByCode(ctx context.Context, code string) (*models.Coupon, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "coupon code is required")
	}
	coupon, err := s.repo.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "coupon not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading coupon")
	}
	return coupon, nil
}

// Apply redeems the coupon against the user's cart. The eligibility ladder
// runs inside one transaction so the usage counter, the audit row, and the
// cart attachment commit or roll back together.
func (s *service) Apply(ctx context.Context, userID uuid.UUID, code string) (*models.Cart, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "coupon code is required")
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		carts := s.carts.WithTx(tx)

		coupon, err := repo.FindByCode(ctx, code)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "coupon not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading coupon")
		}
		if !coupon.IsActive {
			return pkgerrors.New(pkgerrors.CodeConflict, "coupon is not active")
		}
		if !coupon.ValidAt(s.now()) {
			return pkgerrors.New(pkgerrors.CodeConflict, "coupon is not valid at this time")
		}

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

		if coupon.MaxUsagePerUser != nil {
			used, err := repo.UserUsageCount(ctx, userID, coupon.ID)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "counting coupon usage")
			}
			if used >= int64(*coupon.MaxUsagePerUser) {
				return pkgerrors.New(pkgerrors.CodeConflict, "coupon usage limit reached for this user")
			}
		}

		claimed, err := repo.IncrementUsage(ctx, coupon.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "claiming coupon usage")
		}
		if !claimed {
			return pkgerrors.New(pkgerrors.CodeConflict, "coupon usage limit exhausted")
		}

		if err := repo.RecordUsage(ctx, userID, coupon.ID); err != nil {
			if db.IsUniqueViolation(err, "") {
				return pkgerrors.New(pkgerrors.CodeConflict, "coupon already redeemed by this user")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "recording coupon usage")
		}

		return carts.AttachCoupon(ctx, record.ID, coupon.ID)
	})
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil {
			return nil, typed
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "applying coupon")
	}

	return s.reload(ctx, userID)
}

// Remove detaches the coupon from the cart. The redemption audit row stays:
// a redeemed cap slot is not returned to the pool.
func (s *service) Remove(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}

	record, err := s.carts.FindByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading cart")
	}
	if record.CouponID == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "no coupon applied to this cart")
	}

	if err := s.carts.DetachCoupon(ctx, record.ID); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "removing coupon")
	}
	return s.reload(ctx, userID)
}

func (s *service) reload(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	record, err := s.carts.FindByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reloading cart")
	}
	return record, nil
}
