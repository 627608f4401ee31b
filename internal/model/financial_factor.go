package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// FactorType enum constants
const (
	FactorTypeTechnical    = "TECHNICAL"
	FactorTypeProfessional = "PROFESSIONAL"
	FactorTypeGeneral      = "GENERAL"
)

// FactorScope enum constants
const (
	FactorScopePublic  = "PUBLIC"
	FactorScopePrivate = "PRIVATE"
	FactorScopeCharity = "CHARITY"
)

// FinancialFactor stores the government-announced coefficient base value for one
// financial year and tariff scope. Once frozen the row is append-only: a new
// year gets a new row, the old one is never edited or hard-deleted.
type FinancialFactor struct {
	ID            uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	FactorType    string          `gorm:"type:varchar(20);not null;index" json:"factor_type"` // TECHNICAL, PROFESSIONAL, GENERAL
	Scope         string          `gorm:"type:varchar(20);not null;index" json:"scope"`       // PUBLIC, PRIVATE, CHARITY
	FinancialYear int             `gorm:"not null;index" json:"financial_year"`
	Value         decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"value"` // Rials per coefficient unit
	EffectiveFrom time.Time       `gorm:"type:date;not null" json:"effective_from"`
	EffectiveTo   *time.Time      `gorm:"type:date" json:"effective_to"` // nullable = open-ended
	IsFrozen      bool            `gorm:"not null;default:false" json:"is_frozen"`
	FrozenAt      *time.Time      `json:"frozen_at"`
	Version       int             `gorm:"not null;default:1" json:"version"` // bumped on every admin edit
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
	DeletedAt     gorm.DeletedAt  `gorm:"index" json:"-"` // GORM soft delete
}
