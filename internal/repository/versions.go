package repository

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type versionRow struct {
	ID      uuid.UUID
	Version int
}

// currentVersions reads the live version token of the given rows. Soft-deleted
// rows are intentionally absent from the result: a record deleted mid
// computation must read as a conflict, not as unchanged.
func currentVersions(db *gorm.DB, mdl interface{}, ids []uuid.UUID) (map[uuid.UUID]int, error) {
	out := make(map[uuid.UUID]int, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	var rows []versionRow
	if err := db.Model(mdl).Select("id, version").Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.ID] = row.Version
	}
	return out, nil
}
