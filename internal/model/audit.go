package model

import (
	"time"

	"github.com/google/uuid"
)

const (
	ActionCreateTariff = "CREATE_TARIFF"
	ActionUpdateTariff = "UPDATE_TARIFF"
	ActionDeleteTariff = "DELETE_TARIFF"

	ActionCreateFactor = "CREATE_FINANCIAL_FACTOR"
	ActionUpdateFactor = "UPDATE_FINANCIAL_FACTOR"
	ActionFreezeFactor = "FREEZE_FINANCIAL_FACTOR"

	ActionCreateRule = "CREATE_BUSINESS_RULE"
	ActionUpdateRule = "UPDATE_BUSINESS_RULE"
	ActionDeleteRule = "DELETE_BUSINESS_RULE"

	ActionCreateEnrollment = "CREATE_ENROLLMENT"
	ActionUpdateEnrollment = "UPDATE_ENROLLMENT"
	ActionDeleteEnrollment = "DELETE_ENROLLMENT"

	ActionCreateService        = "CREATE_SERVICE"
	ActionUpdateService        = "UPDATE_SERVICE"
	ActionUpsertDeptCoefficient = "UPSERT_DEPARTMENT_COEFFICIENT"

	ActionRecordCalculation = "RECORD_CALCULATION"
)

// AuditLog tracks Who, What, and When for critical system changes
type AuditLog struct {
	ID         uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID     *uuid.UUID `gorm:"type:uuid;index" json:"user_id"` // Nullable gracefully if automated bot
	User       *User      `gorm:"foreignKey:UserID" json:"user"`
	Action     string     `gorm:"type:varchar(50);not null;index" json:"action"`
	EntityID   string     `gorm:"type:varchar(50);index" json:"entity_id"`        // Reference string (uuid/code)
	EntityName string     `gorm:"type:varchar(255)" json:"entity_name,omitempty"` // Human readable name
	Details    string     `gorm:"type:jsonb" json:"details"`                      // Serialized JSON payload of the action
	CreatedAt  time.Time  `gorm:"index" json:"created_at"`
}
