package repository

import (
	"time"

	"gorm.io/gorm"
)

// ActiveWindow filters rows that are active and whose [start_date, end_date)
// validity window contains asOf; a NULL bound is unbounded on that side.
// Soft-deleted rows are already excluded by gorm's DeletedAt handling. This is
// the one ambient predicate of the schema, expressed as a composable scope
// rather than hidden global state.
func ActiveWindow(asOf time.Time) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("is_active = ?", true).
			Where("(start_date IS NULL OR start_date <= ?)", asOf).
			Where("(end_date IS NULL OR end_date > ?)", asOf)
	}
}

// EffectiveWindow is ActiveWindow for tables using effective_from/effective_to
// column names and an inclusive upper bound (financial factors).
func EffectiveWindow(asOf time.Time) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("effective_from <= ?", asOf).
			Where("(effective_to IS NULL OR effective_to >= ?)", asOf)
	}
}
