package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// InsurerType enum constants
const (
	InsurerTypeBasic         = "BASIC"
	InsurerTypeSupplementary = "SUPPLEMENTARY"
	InsurerTypeGovernment    = "GOVERNMENT"
)

// Insurer is one insurance organization the clinic has a contract with
type Insurer struct {
	ID          uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name        string         `gorm:"type:varchar(255);not null" json:"name"`
	InsurerType string         `gorm:"type:varchar(20);not null;index" json:"insurer_type"` // BASIC, SUPPLEMENTARY, GOVERNMENT
	IsActive    bool           `gorm:"not null;default:true" json:"is_active"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

// InsurancePlan is a named coverage plan offered by one insurer.
// Business rules may be scoped to a plan.
type InsurancePlan struct {
	ID        uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	InsurerID uuid.UUID      `gorm:"type:uuid;not null;index" json:"insurer_id"`
	Insurer   *Insurer       `gorm:"foreignKey:InsurerID" json:"insurer,omitempty"`
	Name      string         `gorm:"type:varchar(255);not null" json:"name"`
	IsActive  bool           `gorm:"not null;default:true" json:"is_active"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}
