package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RuleType enum constants
const (
	RuleTypeAdjustment = "ADJUSTMENT" // overrides percent/cap/deductible
	RuleTypeRejection  = "REJECTION"  // terminal, short-circuits
)

// BusinessRule is a declarative coverage override scoped to an insurance plan,
// a service, or a service category (nil scope field = wildcard). Conditions
// and Actions hold the JSON form of the predicate/effect AST; they are parsed
// once at load time, never executed as code. Evaluation order is Priority
// descending; the first matching REJECTION rule wins.
type BusinessRule struct {
	ID                uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name              string         `gorm:"type:varchar(255);not null" json:"name"`
	RuleType          string         `gorm:"type:varchar(20);not null;index" json:"rule_type"` // ADJUSTMENT, REJECTION
	Priority          int            `gorm:"not null;default:0" json:"priority"`
	InsurancePlanID   *uuid.UUID     `gorm:"type:uuid;index" json:"insurance_plan_id"`
	ServiceCategoryID *uuid.UUID     `gorm:"type:uuid;index" json:"service_category_id"`
	ServiceID         *uuid.UUID     `gorm:"type:uuid;index" json:"service_id"`
	Conditions        string         `gorm:"type:jsonb;not null" json:"conditions"`
	Actions           string         `gorm:"type:jsonb;not null" json:"actions"`
	StartDate         *time.Time     `gorm:"type:date" json:"start_date"`
	EndDate           *time.Time     `gorm:"type:date" json:"end_date"`
	IsActive          bool           `gorm:"not null;default:true;index" json:"is_active"`
	Version           int            `gorm:"not null;default:1" json:"version"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
	DeletedAt         gorm.DeletedAt `gorm:"index" json:"-"`
}
