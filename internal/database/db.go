package database

import (
	"log"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/jiroftsoft/ClinicApp-sub008/internal/model"
)

// NewConnection initializes a new connection pool using GORM
func NewConnection(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	// Auto-migrate core models
	err = db.AutoMigrate(
		&model.User{},
		&model.RefreshToken{},
		&model.AuditLog{},
		&model.Patient{},
		&model.Insurer{},
		&model.InsurancePlan{},
		&model.ServiceCategory{},
		&model.Department{},
		&model.MedicalService{},
		&model.DepartmentServiceCoefficient{},
		&model.FinancialFactor{},
		&model.Tariff{},
		&model.BusinessRule{},
		&model.PatientInsuranceEnrollment{},
		&model.InsuranceCalculation{},
		&model.CoverageLine{},
	)
	if err != nil {
		log.Println("WARNING: Failed to auto-migrate models:", err)
	}

	return db, nil
}
