package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CalculationType enum constants
const (
	CalculationTypeFlat        = "FLAT"
	CalculationTypeCoefficient = "COEFFICIENT"
)

// InsuranceCalculation is the persisted, immutable snapshot of one
// adjudication. It is never updated in place: recomputation inserts a new row
// and flips the superseded row's IsValid to false in the same transaction,
// which is the only mutation this table ever sees.
type InsuranceCalculation struct {
	ID                uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ReceptionItemID   uuid.UUID       `gorm:"type:uuid;not null;index" json:"reception_item_id"` // billing line this quote belongs to
	PatientID         uuid.UUID       `gorm:"type:uuid;not null;index" json:"patient_id"`
	ServiceID         uuid.UUID       `gorm:"type:uuid;not null;index" json:"service_id"`
	DepartmentID      uuid.UUID       `gorm:"type:uuid;not null" json:"department_id"`
	AsOf              time.Time       `gorm:"type:date;not null" json:"as_of"`
	ServiceAmount     decimal.Decimal `gorm:"type:decimal(18,0);not null" json:"service_amount"` // Rials
	TotalInsurerShare decimal.Decimal `gorm:"type:decimal(18,0);not null" json:"total_insurer_share"`
	FinalPatientShare decimal.Decimal `gorm:"type:decimal(18,0);not null" json:"final_patient_share"`
	DeductibleApplied decimal.Decimal `gorm:"type:decimal(18,0);not null;default:0" json:"deductible_applied"`
	CalculationType   string          `gorm:"type:varchar(20);not null" json:"calculation_type"` // FLAT, COEFFICIENT
	IsValid           bool            `gorm:"not null;default:true;index" json:"is_valid"`
	SourceVersions    string          `gorm:"type:jsonb;not null" json:"source_versions"` // version tokens of every tariff/rule/factor read
	Lines             []CoverageLine  `gorm:"foreignKey:CalculationID" json:"lines"`
	CreatedAt         time.Time       `json:"created_at"`
}

// CoverageLine is one insurer's allocation inside a calculation. Owned
// exclusively by its InsuranceCalculation, never shared or reused.
type CoverageLine struct {
	ID              uuid.UUID        `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	CalculationID   uuid.UUID        `gorm:"type:uuid;not null;index" json:"calculation_id"`
	Sequence        int              `gorm:"not null" json:"sequence"` // payer order, 0 = primary
	InsurerID       uuid.UUID        `gorm:"type:uuid;not null" json:"insurer_id"`
	AppliedTariffID *uuid.UUID       `gorm:"type:uuid" json:"applied_tariff_id"` // nil on a no-coverage line
	GrossAllocation decimal.Decimal  `gorm:"type:decimal(18,0);not null" json:"gross_allocation"`
	CappedAllocation decimal.Decimal `gorm:"type:decimal(18,0);not null" json:"capped_allocation"`
	PercentApplied  *decimal.Decimal `gorm:"type:decimal(5,2)" json:"percent_applied"`
	NoCoverage      bool             `gorm:"not null;default:false" json:"no_coverage"`
	CreatedAt       time.Time        `json:"created_at"`
}
