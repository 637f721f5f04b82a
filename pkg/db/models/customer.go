package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/collette-backend/pkg/types"
)

// Customer is the directory entry used to snapshot billing details.
type Customer struct {
	ID        uuid.UUID             `gorm:"column:id;type:uuid;primaryKey"`
	Name      string                `gorm:"column:name;not null"`
	Email     string                `gorm:"column:email;not null"`
	Phone     string                `gorm:"column:phone;not null;default:''"`
	Address   *types.BillingAddress `gorm:"column:address;type:jsonb;serializer:json"`
	CreatedAt time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}

func (c *Customer) BeforeCreate(*gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
