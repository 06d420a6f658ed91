package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/oscodesolution-devops/gift-ginnie-server/pkg/db/models"
	pkgerrors "github.com/oscodesolution-devops/gift-ginnie-server/pkg/errors"
)

const maxItemQuantity = 100

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type productLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

// Service exposes cart mutations and reads.
type Service interface {
	GetCart(ctx context.Context, userID uuid.UUID) (*models.Cart, error)
	AddItem(ctx context.Context, userID uuid.UUID, input AddItemInput) (*models.Cart, error)
	UpdateItem(ctx context.Context, userID uuid.UUID, itemID uuid.UUID, quantity int) (*models.Cart, error)
	RemoveItem(ctx context.Context, userID uuid.UUID, itemID uuid.UUID) (*models.Cart, error)
}

// AddItemInput captures a line addition request.
type AddItemInput struct {
	ProductID uuid.UUID
	Quantity  int
}

type service struct {
	repo     CartRepository
	tx       txRunner
	products productLoader
}

// NewService builds a cart service backed by the provided stack.
func NewService(repo CartRepository, tx txRunner, products productLoader) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if products == nil {
		return nil, fmt.Errorf("product loader required")
	}
	return &service{repo: repo, tx: tx, products: products}, nil
}

// GetCart returns the user's cart, creating an empty one on first access.
func (s *service) GetCart(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	record, err := s.repo.FindByUser(ctx, userID)
	if err == nil {
		return record, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading cart")
	}
	created, err := s.repo.Create(ctx, &models.Cart{UserID: userID})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "creating cart")
	}
	return created, nil
}

// AddItem puts a product into the cart, merging quantities when the line
// already exists. The line price snapshots unit price x quantity at the
// moment of the write.
func (s *service) AddItem(ctx context.Context, userID uuid.UUID, input AddItemInput) (*models.Cart, error) {
	if input.ProductID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	if input.Quantity <= 0 || input.Quantity > maxItemQuantity {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be between 1 and 100")
	}

	product, err := s.products.FindByID(ctx, input.ProductID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading product")
	}
	if !product.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product is not available")
	}
	if !product.InStock(input.Quantity) {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "product is out of stock")
	}

	record, err := s.GetCart(ctx, userID)
	if err != nil {
		return nil, err
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		item, err := repo.FindItem(ctx, record.ID, input.ProductID)
		switch {
		case err == nil:
			item.Quantity += input.Quantity
			if item.Quantity > maxItemQuantity {
				return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be between 1 and 100")
			}
			item.Price = snapshotPrice(product.Price, item.Quantity)
			return repo.SaveItem(ctx, item)
		case errors.Is(err, gorm.ErrRecordNotFound):
			return repo.SaveItem(ctx, &models.CartItem{
				CartID:    record.ID,
				ProductID: input.ProductID,
				Quantity:  input.Quantity,
				Price:     snapshotPrice(product.Price, input.Quantity),
			})
		default:
			return err
		}
	})
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil {
			return nil, typed
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "saving cart item")
	}

	return s.reload(ctx, userID)
}

// UpdateItem replaces the line quantity and re-snapshots the price.
func (s *service) UpdateItem(ctx context.Context, userID uuid.UUID, itemID uuid.UUID, quantity int) (*models.Cart, error) {
	if itemID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "item id is required")
	}
	if quantity <= 0 || quantity > maxItemQuantity {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be between 1 and 100")
	}

	record, err := s.requireCart(ctx, userID)
	if err != nil {
		return nil, err
	}

	var target *models.CartItem
	for i := range record.Items {
		if record.Items[i].ID == itemID {
			target = &record.Items[i]
			break
		}
	}
	if target == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
	}

	product, err := s.products.FindByID(ctx, target.ProductID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading product")
	}
	if !product.InStock(quantity) {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "product is out of stock")
	}

	target.Quantity = quantity
	target.Price = snapshotPrice(product.Price, quantity)
	if err := s.repo.SaveItem(ctx, target); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "saving cart item")
	}

	return s.reload(ctx, userID)
}

// RemoveItem drops one line from the cart.
func (s *service) RemoveItem(ctx context.Context, userID uuid.UUID, itemID uuid.UUID) (*models.Cart, error) {
	if itemID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "item id is required")
	}

	record, err := s.requireCart(ctx, userID)
	if err != nil {
		return nil, err
	}

	removed, err := s.repo.DeleteItem(ctx, record.ID, itemID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "removing cart item")
	}
	if !removed {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
	}

	return s.reload(ctx, userID)
}

func (s *service) requireCart(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	record, err := s.repo.FindByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading cart")
	}
	return record, nil
}

func (s *service) reload(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	record, err := s.repo.FindByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reloading cart")
	}
	return record, nil
}

func snapshotPrice(unitPrice decimal.Decimal, quantity int) decimal.Decimal {
	return unitPrice.Mul(decimal.NewFromInt(int64(quantity))).Round(2)
}

// Subtotal sums the snapshot prices of all lines.
func Subtotal(record *models.Cart) decimal.Decimal {
	total := decimal.Zero
	if record == nil {
		return total
	}
	for _, item := range record.Items {
		total = total.Add(item.Price)
	}
	return total
}
