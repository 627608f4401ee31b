package service

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jiroftsoft/ClinicApp-sub008/internal/model"
)

// writeAuditLog records who changed what. Best-effort: a failed audit write
// never fails the operation itself.
func writeAuditLog(ctx context.Context, db *gorm.DB, userID, action, entityID, entityName string, details interface{}) {
	detailsJSON, _ := json.Marshal(details)

	entry := model.AuditLog{
		Action:     action,
		EntityID:   entityID,
		EntityName: entityName,
		Details:    string(detailsJSON),
	}

	if userID != "" {
		parsed, err := uuid.Parse(userID)
		if err == nil {
			entry.UserID = &parsed
		}
	}

	_ = db.WithContext(ctx).Create(&entry).Error
}
