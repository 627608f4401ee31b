package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Tariff is one insurer's time-boxed agreement for covering one service.
// Within overlapping validity windows of the same (insurer, service) pair,
// Priority must be unique; lower priority = more specific, preferred row.
// Rows are soft-deleted only so historical bills stay explainable.
type Tariff struct {
	ID                  uuid.UUID        `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	InsurerID           uuid.UUID        `gorm:"type:uuid;not null;index:idx_tariff_insurer_service" json:"insurer_id"`
	Insurer             *Insurer         `gorm:"foreignKey:InsurerID" json:"insurer,omitempty"`
	ServiceID           uuid.UUID        `gorm:"type:uuid;not null;index:idx_tariff_insurer_service" json:"service_id"`
	Service             *MedicalService  `gorm:"foreignKey:ServiceID" json:"service,omitempty"`
	Priority            int              `gorm:"not null;default:100" json:"priority"`
	TariffPrice         *decimal.Decimal `gorm:"type:decimal(18,0)" json:"tariff_price"`          // agreed price basis, Rials
	PatientSharePercent *decimal.Decimal `gorm:"type:decimal(5,2)" json:"patient_share_percent"`  // 0..100
	InsurerSharePercent *decimal.Decimal `gorm:"type:decimal(5,2)" json:"insurer_share_percent"`  // 0..100
	MinPatientCopay     *decimal.Decimal `gorm:"type:decimal(18,0)" json:"min_patient_copay"`     // floor on patient residual share, Rials
	MaxInsurerPayment   *decimal.Decimal `gorm:"type:decimal(18,0)" json:"max_insurer_payment"`   // cap per line, Rials
	Deductible          *decimal.Decimal `gorm:"type:decimal(18,0)" json:"deductible"`            // subtracted from basis first, Rials
	StartDate           *time.Time       `gorm:"type:date;index" json:"start_date"`               // nil = unbounded past
	EndDate             *time.Time       `gorm:"type:date;index" json:"end_date"`                 // nil = unbounded future, exclusive
	IsActive            bool             `gorm:"not null;default:true;index" json:"is_active"`
	Version             int              `gorm:"not null;default:1" json:"version"`
	CreatedAt           time.Time        `json:"created_at"`
	UpdatedAt           time.Time        `json:"updated_at"`
	DeletedAt           gorm.DeletedAt   `gorm:"index" json:"-"`
}
