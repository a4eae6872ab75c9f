package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Store represents a seller account on the marketplace. Stores own the
// commission transactions recorded against their orders and the payouts
// batched from them.
type Store struct {
	ID   uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	UUID uuid.UUID `gorm:"type:uuid;uniqueIndex;not null;default:gen_random_uuid()" json:"uuid"`

	Name  string `gorm:"type:varchar(255);not null" json:"name"`
	Email string `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`

	// Owner credentials are managed by the external auth collaborator; the
	// hash is stored here only so fixtures and admin tooling stay realistic.
	PasswordHash string `gorm:"type:varchar(255);not null" json:"-"`

	IsActive *bool `gorm:"not null;default:true;index" json:"is_active"`

	// Audit fields
	CreatedAt time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	// Relationships
	Subscription *Subscription `gorm:"foreignKey:StoreID" json:"subscription,omitempty"`
}

// BeforeCreate ensures UUID is set
func (s *Store) BeforeCreate(tx *gorm.DB) error {
	if s.UUID == uuid.Nil {
		s.UUID = uuid.New()
	}
	return nil
}

// TableName specifies the table name for GORM
func (Store) TableName() string {
	return "stores"
}

// StoreFilter represents filter criteria for store queries
type StoreFilter struct {
	ID       *uint      `json:"id,omitempty"`
	UUID     *uuid.UUID `json:"uuid,omitempty"`
	Email    *string    `json:"email,omitempty"`
	IsActive *bool      `json:"is_active,omitempty"`
}
