package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/collette-backend/pkg/enums"
)

// Notification is an append-only message scoped to one or more audiences.
// Only IsResolved and ResolvedAt ever change after insert.
type Notification struct {
	ID                uuid.UUID              `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	Kind              enums.NotificationKind `gorm:"column:kind;type:text;not null;default:'general'" json:"kind"`
	Message           string                 `gorm:"column:message;type:text;not null" json:"message"`
	VisibleToCustomer bool                   `gorm:"column:visible_to_customer;not null;default:false" json:"visible_to_customer"`
	VisibleToVendor   bool                   `gorm:"column:visible_to_vendor;not null;default:false" json:"visible_to_vendor"`
	VisibleToAdmin    bool                   `gorm:"column:visible_to_admin;not null;default:false" json:"visible_to_admin"`
	VisibleToCSR      bool                   `gorm:"column:visible_to_csr;not null;default:false" json:"visible_to_csr"`
	IsResolved        bool                   `gorm:"column:is_resolved;not null;default:false" json:"is_resolved"`
	CustomerID        *uuid.UUID             `gorm:"column:customer_id;type:uuid" json:"customer_id,omitempty"`
	VendorID          *uuid.UUID             `gorm:"column:vendor_id;type:uuid" json:"vendor_id,omitempty"`
	OrderID           *uuid.UUID             `gorm:"column:order_id;type:uuid;index" json:"order_id,omitempty"`
	ProductID         *uuid.UUID             `gorm:"column:product_id;type:uuid;index" json:"product_id,omitempty"`
	CreatedAt         time.Time              `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	ResolvedAt        *time.Time             `gorm:"column:resolved_at" json:"resolved_at,omitempty"`
}

func (n *Notification) BeforeCreate(*gorm.DB) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	return nil
}

// VisibleTo reports whether the audience flag is set.
func (n *Notification) VisibleTo(audience enums.NotificationAudience) bool {
	switch audience {
	case enums.AudienceCustomer:
		return n.VisibleToCustomer
	case enums.AudienceVendor:
		return n.VisibleToVendor
	case enums.AudienceAdmin:
		return n.VisibleToAdmin
	case enums.AudienceCSR:
		return n.VisibleToCSR
	default:
		return false
	}
}
