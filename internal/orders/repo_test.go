package orders

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/oscodesolution-devops/gift-ginnie-server/pkg/db/models"
	"github.com/oscodesolution-devops/gift-ginnie-server/pkg/enums"
	"github.com/oscodesolution-devops/gift-ginnie-server/pkg/pagination"
	"github.com/oscodesolution-devops/gift-ginnie-server/pkg/types"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}

	sqlDB, err := conn.DB()
	if err != nil {
		t.Fatalf("sql db handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := conn.AutoMigrate(&models.Product{}, &models.Order{}, &models.OrderItem{}); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return conn
}

func mustCreateOrder(t *testing.T, repo *Repository, userID uuid.UUID) *models.Order {
	t.Helper()
	order, err := repo.Create(context.Background(), &models.Order{
		UserID:          userID,
		TotalPrice:      decimal.RequireFromString("300.00"),
		DiscountApplied: decimal.RequireFromString("50.00"),
		FinalPrice:      decimal.RequireFromString("250.00"),
		DeliveryAddress: types.Address{Line1: "1 Main St", City: "Mumbai", State: "MH", Country: "India", Pincode: "400001"},
	})
	require.NoError(t, err)
	return order
}

func TestCreateDefaultsToPending(t *testing.T) {
	conn := openTestDB(t)
	repo := NewRepository(conn)

	order := mustCreateOrder(t, repo, uuid.New())
	assert.Equal(t, enums.OrderStatusPending, order.Status)
}

func TestTransitionStatusCAS(t *testing.T) {
	conn := openTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	order := mustCreateOrder(t, repo, uuid.New())
	paymentID := "pay_123"

	ok, err := repo.TransitionStatus(ctx, order.ID, enums.OrderStatusPending, enums.OrderStatusCompleted, &paymentID)
	require.NoError(t, err)
	assert.True(t, ok)

	// the losing writer observes a missed swap, not an error
	ok, err = repo.TransitionStatus(ctx, order.ID, enums.OrderStatusPending, enums.OrderStatusPaymentFailed, nil)
	require.NoError(t, err)
	assert.False(t, ok)

	reloaded, err := repo.FindByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusCompleted, reloaded.Status)
	require.NotNil(t, reloaded.RazorpayPaymentID)
	assert.Equal(t, "pay_123", *reloaded.RazorpayPaymentID)
}

func TestFindByGatewayOrderID(t *testing.T) {
	conn := openTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	order := mustCreateOrder(t, repo, uuid.New())
	require.NoError(t, repo.AttachGatewayOrder(ctx, order.ID, "order_rzp_1"))
	require.NoError(t, repo.CreateItems(ctx, []models.OrderItem{
		{OrderID: order.ID, ProductID: uuid.New(), Quantity: 2, Price: decimal.RequireFromString("250.00")},
	}))

	found, err := repo.FindByGatewayOrderID(ctx, "order_rzp_1")
	require.NoError(t, err)
	assert.Equal(t, order.ID, found.ID)
	require.Len(t, found.Items, 1)
	assert.Equal(t, 2, found.Items[0].Quantity)

	_, err = repo.FindByGatewayOrderID(ctx, "order_unknown")
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestListByUserPaginates(t *testing.T) {
	conn := openTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()
	userID := uuid.New()

	for i := 0; i < 3; i++ {
		mustCreateOrder(t, repo, userID)
	}
	mustCreateOrder(t, repo, uuid.New())

	rows, err := repo.ListByUser(ctx, userID, pagination.Params{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, rows, 3, "limit buffer returns one extra row for cursor detection")
	for _, row := range rows {
		assert.Equal(t, userID, row.UserID)
	}
}
