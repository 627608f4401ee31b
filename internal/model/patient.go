package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Patient holds the minimal registry fields billing needs. The full patient
// record lives in the clinical subsystem.
type Patient struct {
	ID           uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	FirstName    string         `gorm:"type:varchar(100);not null" json:"first_name"`
	LastName     string         `gorm:"type:varchar(100);not null" json:"last_name"`
	NationalCode string         `gorm:"type:varchar(20);uniqueIndex;not null" json:"national_code"`
	BirthDate    time.Time      `gorm:"type:date;not null" json:"birth_date"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

// PatientInsuranceEnrollment links a patient to an insurer/plan with a payer
// priority. The active set ordered by Priority ascending defines payer order;
// the lowest priority is the primary payer. A row may additionally name a
// supplementary insurer that pays right after it.
type PatientInsuranceEnrollment struct {
	ID                    uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	PatientID             uuid.UUID      `gorm:"type:uuid;not null;index" json:"patient_id"`
	Patient               *Patient       `gorm:"foreignKey:PatientID" json:"patient,omitempty"`
	InsurerID             uuid.UUID      `gorm:"type:uuid;not null;index" json:"insurer_id"`
	Insurer               *Insurer       `gorm:"foreignKey:InsurerID" json:"insurer,omitempty"`
	PlanID                uuid.UUID      `gorm:"type:uuid;not null;index" json:"plan_id"`
	Plan                  *InsurancePlan `gorm:"foreignKey:PlanID" json:"plan,omitempty"`
	Priority              int            `gorm:"not null;default:1" json:"priority"` // 1 = primary
	IsActive              bool           `gorm:"not null;default:true;index" json:"is_active"`
	StartDate             time.Time      `gorm:"type:date;not null" json:"start_date"`
	EndDate               *time.Time     `gorm:"type:date" json:"end_date"`
	SupplementaryInsurerID *uuid.UUID    `gorm:"type:uuid" json:"supplementary_insurer_id"`
	SupplementaryPlanID    *uuid.UUID    `gorm:"type:uuid" json:"supplementary_plan_id"`
	CreatedAt             time.Time      `json:"created_at"`
	UpdatedAt             time.Time      `json:"updated_at"`
	DeletedAt             gorm.DeletedAt `gorm:"index" json:"-"`
}
