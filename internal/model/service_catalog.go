package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ServiceCategory groups medical services (visit, lab, imaging, surgery...)
type ServiceCategory struct {
	ID        uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Code      string         `gorm:"type:varchar(30);uniqueIndex;not null" json:"code"`
	Name      string         `gorm:"type:varchar(255);not null" json:"name"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// Department is a billing unit of the clinic (radiology, cardiology...)
type Department struct {
	ID        uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Code      string         `gorm:"type:varchar(30);uniqueIndex;not null" json:"code"`
	Name      string         `gorm:"type:varchar(255);not null" json:"name"`
	IsActive  bool           `gorm:"not null;default:true" json:"is_active"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// MedicalService is one billable clinical service and its price specification.
// Exactly one of FlatPrice or the coefficient pair is populated, consistent
// with IsCoefficientPriced.
type MedicalService struct {
	ID                      uuid.UUID        `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Code                    string           `gorm:"type:varchar(30);uniqueIndex;not null" json:"code"` // national service code
	Name                    string           `gorm:"type:varchar(255);not null" json:"name"`
	CategoryID              uuid.UUID        `gorm:"type:uuid;not null;index" json:"category_id"`
	Category                *ServiceCategory `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
	IsCoefficientPriced     bool             `gorm:"not null;default:false" json:"is_coefficient_priced"`
	FlatPrice               *decimal.Decimal `gorm:"type:decimal(18,0)" json:"flat_price"`               // Rials, flat-priced services only
	TechnicalCoefficient    *decimal.Decimal `gorm:"type:decimal(10,4)" json:"technical_coefficient"`    // coefficient-priced services only
	ProfessionalCoefficient *decimal.Decimal `gorm:"type:decimal(10,4)" json:"professional_coefficient"` // coefficient-priced services only
	FactorScope             string           `gorm:"type:varchar(20);not null;default:'PUBLIC'" json:"factor_scope"`
	IsActive                bool             `gorm:"not null;default:true" json:"is_active"`
	CreatedAt               time.Time        `json:"created_at"`
	UpdatedAt               time.Time        `json:"updated_at"`
	DeletedAt               gorm.DeletedAt   `gorm:"index" json:"-"`
}

// DepartmentServiceCoefficient overrides a service's coefficient pair for one
// department. Single association keyed by the natural (service, department)
// pair; there is deliberately no second navigation shape for this relation.
type DepartmentServiceCoefficient struct {
	ID                      uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ServiceID               uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_dept_service" json:"service_id"`
	DepartmentID            uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_dept_service" json:"department_id"`
	TechnicalCoefficient    decimal.Decimal `gorm:"type:decimal(10,4);not null" json:"technical_coefficient"`
	ProfessionalCoefficient decimal.Decimal `gorm:"type:decimal(10,4);not null" json:"professional_coefficient"`
	CreatedAt               time.Time       `json:"created_at"`
	UpdatedAt               time.Time       `json:"updated_at"`
	DeletedAt               gorm.DeletedAt  `gorm:"index" json:"-"`
}
