package coupons

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/oscodesolution-devops/gift-ginnie-server/internal/cart"
	"github.com/oscodesolution-devops/gift-ginnie-server/pkg/db/models"
	pkgerrors "github.com/oscodesolution-devops/gift-ginnie-server/pkg/errors"
)

type fixture struct {
	conn *gorm.DB
	svc  Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	conn := openTestDB(t)
	svc, err := NewService(NewRepository(conn), cart.NewRepository(conn), testTxRunner{conn: conn})
	require.NoError(t, err)
	return &fixture{conn: conn, svc: svc}
}

func (f *fixture) cartWithItem(t *testing.T, userID uuid.UUID) *models.Cart {
	t.Helper()
	product := &models.Product{
		Name:     "Gift Box " + uuid.NewString(),
		Price:    decimal.RequireFromString("150.00"),
		Stock:    10,
		IsActive: true,
	}
	require.NoError(t, f.conn.Create(product).Error)

	record := &models.Cart{UserID: userID}
	require.NoError(t, f.conn.Create(record).Error)
	require.NoError(t, f.conn.Create(&models.CartItem{
		CartID:    record.ID,
		ProductID: product.ID,
		Quantity:  2,
		Price:     decimal.RequireFromString("300.00"),
	}).Error)
	return record
}

func requireCode(t *testing.T, err error, code pkgerrors.Code) {
	t.Helper()
	typed := pkgerrors.As(err)
	require.NotNil(t, typed, "expected typed error, got %v", err)
	assert.Equal(t, code, typed.Code())
}

func TestApplyUnknownCoupon(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Apply(context.Background(), uuid.New(), "NOPE")
	requireCode(t, err, pkgerrors.CodeNotFound)
}

func TestApplyInactiveCoupon(t *testing.T) {
	f := newFixture(t)
	userID := uuid.New()
	f.cartWithItem(t, userID)
	mustCreateCoupon(t, f.conn, "OFF", func(c *models.Coupon) { c.IsActive = false })

	_, err := f.svc.Apply(context.Background(), userID, "OFF")
	requireCode(t, err, pkgerrors.CodeConflict)
}

func TestApplyExpiredCoupon(t *testing.T) {
	f := newFixture(t)
	userID := uuid.New()
	f.cartWithItem(t, userID)
	mustCreateCoupon(t, f.conn, "OLD", func(c *models.Coupon) {
		c.ValidFrom = time.Now().Add(-48 * time.Hour)
		c.ValidUntil = time.Now().Add(-24 * time.Hour)
	})

	_, err := f.svc.Apply(context.Background(), userID, "OLD")
	requireCode(t, err, pkgerrors.CodeConflict)
}

func TestApplyNotYetValidCoupon(t *testing.T) {
	f := newFixture(t)
	userID := uuid.New()
	f.cartWithItem(t, userID)
	mustCreateCoupon(t, f.conn, "SOON", func(c *models.Coupon) {
		c.ValidFrom = time.Now().Add(24 * time.Hour)
		c.ValidUntil = time.Now().Add(48 * time.Hour)
	})

	_, err := f.svc.Apply(context.Background(), userID, "SOON")
	requireCode(t, err, pkgerrors.CodeConflict)
}

func TestApplyEmptyCart(t *testing.T) {
	f := newFixture(t)
	userID := uuid.New()
	mustCreateCoupon(t, f.conn, "SAVE", nil)

	_, err := f.svc.Apply(context.Background(), userID, "SAVE")
	requireCode(t, err, pkgerrors.CodeValidation)

	require.NoError(t, f.conn.Create(&models.Cart{UserID: userID}).Error)
	_, err = f.svc.Apply(context.Background(), userID, "SAVE")
	requireCode(t, err, pkgerrors.CodeValidation)
}

func TestApplySuccessAttachesCouponAndRecordsUsage(t *testing.T) {
	f := newFixture(t)
	userID := uuid.New()
	f.cartWithItem(t, userID)
	coupon := mustCreateCoupon(t, f.conn, "SAVE50", nil)

	record, err := f.svc.Apply(context.Background(), userID, "SAVE50")
	require.NoError(t, err)
	require.NotNil(t, record.CouponID)
	assert.Equal(t, coupon.ID, *record.CouponID)

	var reloaded models.Coupon
	require.NoError(t, f.conn.First(&reloaded, "id = ?", coupon.ID).Error)
	assert.Equal(t, 1, reloaded.UsageCount)

	var usages int64
	require.NoError(t, f.conn.Model(&models.CouponUsage{}).
		Where("user_id = ? AND coupon_id = ?", userID, coupon.ID).Count(&usages).Error)
	assert.Equal(t, int64(1), usages)
}

func TestApplyDuplicateRedemptionRollsBackCounter(t *testing.T) {
	f := newFixture(t)
	userID := uuid.New()
	f.cartWithItem(t, userID)
	coupon := mustCreateCoupon(t, f.conn, "ONE", nil)

	_, err := f.svc.Apply(context.Background(), userID, "ONE")
	require.NoError(t, err)

	_, err = f.svc.Apply(context.Background(), userID, "ONE")
	requireCode(t, err, pkgerrors.CodeConflict)

	// the failed second apply must not leak a counter increment
	var reloaded models.Coupon
	require.NoError(t, f.conn.First(&reloaded, "id = ?", coupon.ID).Error)
	assert.Equal(t, 1, reloaded.UsageCount)
}

func TestApplyExhaustedCap(t *testing.T) {
	f := newFixture(t)
	maxUsage := 2
	mustCreateCoupon(t, f.conn, "CAP2", func(c *models.Coupon) { c.MaxUsage = &maxUsage })

	for i := 0; i < 2; i++ {
		userID := uuid.New()
		f.cartWithItem(t, userID)
		_, err := f.svc.Apply(context.Background(), userID, "CAP2")
		require.NoError(t, err)
	}

	lateUser := uuid.New()
	f.cartWithItem(t, lateUser)
	_, err := f.svc.Apply(context.Background(), lateUser, "CAP2")
	requireCode(t, err, pkgerrors.CodeConflict)
}

func TestApplyPerUserLimit(t *testing.T) {
	f := newFixture(t)
	perUser := 1
	mustCreateCoupon(t, f.conn, "PU1", func(c *models.Coupon) { c.MaxUsagePerUser = &perUser })

	userID := uuid.New()
	f.cartWithItem(t, userID)
	_, err := f.svc.Apply(context.Background(), userID, "PU1")
	require.NoError(t, err)

	_, err = f.svc.Apply(context.Background(), userID, "PU1")
	requireCode(t, err, pkgerrors.CodeConflict)
}

func TestRemoveCouponKeepsUsage(t *testing.T) {
	f := newFixture(t)
	userID := uuid.New()
	f.cartWithItem(t, userID)
	coupon := mustCreateCoupon(t, f.conn, "KEEP", nil)

	_, err := f.svc.Apply(context.Background(), userID, "KEEP")
	require.NoError(t, err)

	record, err := f.svc.Remove(context.Background(), userID)
	require.NoError(t, err)
	assert.Nil(t, record.CouponID)

	// redemption audit survives removal
	var usages int64
	require.NoError(t, f.conn.Model(&models.CouponUsage{}).
		Where("user_id = ? AND coupon_id = ?", userID, coupon.ID).Count(&usages).Error)
	assert.Equal(t, int64(1), usages)
}

func TestRemoveWithoutCoupon(t *testing.T) {
	f := newFixture(t)
	userID := uuid.New()
	f.cartWithItem(t, userID)

	_, err := f.svc.Remove(context.Background(), userID)
	requireCode(t, err, pkgerrors.CodeValidation)
}

func TestGetByCode(t *testing.T) {
	f := newFixture(t)
	mustCreateCoupon(t, f.conn, "LOOKUP", nil)

	coupon, err := f.svc.GetByCode(context.Background(), "LOOKUP")
	require.NoError(t, err)
	assert.Equal(t, "LOOKUP", coupon.Code)

	_, err = f.svc.GetByCode(context.Background(), "MISSING")
	requireCode(t, err, pkgerrors.CodeNotFound)

	_, err = f.svc.GetByCode(context.Background(), "  ")
	requireCode(t, err, pkgerrors.CodeValidation)
}

func TestApplyConcurrentLastRedemption(t *testing.T) {
	f := newFixture(t)
	maxUsage := 1
	coupon := mustCreateCoupon(t, f.conn, "LAST1", func(c *models.Coupon) { c.MaxUsage = &maxUsage })

	users := []uuid.UUID{uuid.New(), uuid.New()}
	for _, userID := range users {
		f.cartWithItem(t, userID)
	}

	errs := make([]error, len(users))
	var wg sync.WaitGroup
	for i, userID := range users {
		wg.Add(1)
		go func(i int, userID uuid.UUID) {
			defer wg.Done()
			_, errs[i] = f.svc.Apply(context.Background(), userID, "LAST1")
		}(i, userID)
	}
	wg.Wait()

	var won, lost int
	for _, applyErr := range errs {
		if applyErr == nil {
			won++
			continue
		}
		lost++
		typed := pkgerrors.As(applyErr)
		require.NotNil(t, typed)
		assert.Equal(t, pkgerrors.CodeConflict, typed.Code())
	}
	assert.Equal(t, 1, won, "the cap admits exactly one redemption")
	assert.Equal(t, 1, lost)

	var reloaded models.Coupon
	require.NoError(t, f.conn.First(&reloaded, "id = ?", coupon.ID).Error)
	assert.Equal(t, 1, reloaded.UsageCount)
}
