package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/oscodesolution-devops/gift-ginnie-server/pkg/enums"
	"github.com/oscodesolution-devops/gift-ginnie-server/pkg/types"
	"gorm.io/gorm"
)

// CustomerAddress is a saved delivery address owned by one user.
type CustomerAddress struct {
	ID          uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	UserID      uuid.UUID         `gorm:"column:user_id;type:uuid;not null;index"`
	AddressType enums.AddressType `gorm:"column:address_type;not null;default:'HOME'"`
	Line1       string            `gorm:"column:address_line_1;not null"`
	Line2       *string           `gorm:"column:address_line_2"`
	City        string            `gorm:"column:city;not null"`
	State       string            `gorm:"column:state;not null"`
	Country     string            `gorm:"column:country;not null"`
	Pincode     string            `gorm:"column:pincode;not null"`
	CreatedAt   time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

func (a *CustomerAddress) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

// Snapshot freezes the address into the form embedded on orders.
func (a *CustomerAddress) Snapshot() types.Address {
	snap := types.Address{
		Line1:       a.Line1,
		City:        a.City,
		State:       a.State,
		Country:     a.Country,
		Pincode:     a.Pincode,
		AddressType: string(a.AddressType),
	}
	if a.Line2 != nil {
		snap.Line2 = *a.Line2
	}
	return snap
}
