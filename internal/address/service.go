package address

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/oscodesolution-devops/gift-ginnie-server/pkg/db/models"
	"github.com/oscodesolution-devops/gift-ginnie-server/pkg/enums"
	pkgerrors "github.com/oscodesolution-devops/gift-ginnie-server/pkg/errors"
)

// Service manages saved delivery addresses.
type Service interface {
	Create(ctx context.Context, userID uuid.UUID, input CreateInput) (*models.CustomerAddress, error)
	ListForUser(ctx context.Context, userID uuid.UUID) ([]models.CustomerAddress, error)
	FindForUser(ctx context.Context, userID, addressID uuid.UUID) (*models.CustomerAddress, error)
	Delete(ctx context.Context, userID, addressID uuid.UUID) error
}

// CreateInput captures a new delivery address.
type CreateInput struct {
	AddressType enums.AddressType
	Line1       string
	Line2       *string
	City        string
	State       string
	Country     string
	Pincode     string
}

type service struct {
	db *gorm.DB
}

// NewService builds an address service on the provided DB.
func NewService(db *gorm.DB) (Service, error) {
	if db == nil {
		return nil, fmt.Errorf("db required")
	}
	return &service{db: db}, nil
}

func (s *service) Create(ctx context.Context, userID uuid.UUID, input CreateInput) (*models.CustomerAddress, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	addressType := input.AddressType
	if addressType == "" {
		addressType = enums.AddressTypeHome
	}
	if !addressType.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid address type")
	}

	record := &models.CustomerAddress{
		UserID:      userID,
		AddressType: addressType,
		Line1:       input.Line1,
		Line2:       input.Line2,
		City:        input.City,
		State:       input.State,
		Country:     input.Country,
		Pincode:     input.Pincode,
	}
	if err := s.db.WithContext(ctx).Create(record).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "creating address")
	}
	return record, nil
}

func (s *service) ListForUser(ctx context.Context, userID uuid.UUID) ([]models.CustomerAddress, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	var rows []models.CustomerAddress
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "listing addresses")
	}
	return rows, nil
}

func (s *service) FindForUser(ctx context.Context, userID, addressID uuid.UUID) (*models.CustomerAddress, error) {
	if userID == uuid.Nil || addressID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id and address id are required")
	}
	var record models.CustomerAddress
	err := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", addressID, userID).
		First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "address not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading address")
	}
	return &record, nil
}

func (s *service) Delete(ctx context.Context, userID, addressID uuid.UUID) error {
	if userID == uuid.Nil || addressID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "user id and address id are required")
	}
	res := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", addressID, userID).
		Delete(&models.CustomerAddress{})
	if res.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "deleting address")
	}
	if res.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "address not found")
	}
	return nil
}
