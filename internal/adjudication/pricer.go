package adjudication

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jiroftsoft/ClinicApp-sub008/internal/model"
)

// PriceResult is the base price of one service instance before any payer
// allocation.
type PriceResult struct {
	Amount          decimal.Decimal
	CalculationType string // FLAT or COEFFICIENT
}

// Price resolves the base amount of a service. Flat-priced services return
// their stored price; coefficient-priced services compute
// (technical + professional) × frozen factor value, using the department
// override pair when one exists for the service+department. The result is
// rounded half-to-even to integer Rials.
func Price(svc model.MedicalService, override *model.DepartmentServiceCoefficient, factors *FactorRegistry, asOf time.Time) (PriceResult, error) {
	if !svc.IsCoefficientPriced {
		if svc.FlatPrice == nil {
			return PriceResult{}, fmt.Errorf("%w: service %s is flat-priced but has no flat price", ErrInvalidCoverageConfiguration, svc.Code)
		}
		return PriceResult{Amount: roundRial(*svc.FlatPrice), CalculationType: model.CalculationTypeFlat}, nil
	}

	technical, professional := svc.TechnicalCoefficient, svc.ProfessionalCoefficient
	if override != nil {
		technical, professional = &override.TechnicalCoefficient, &override.ProfessionalCoefficient
	}
	if technical == nil || professional == nil {
		return PriceResult{}, fmt.Errorf("%w: service %s is coefficient-priced but has no coefficient pair", ErrInvalidCoverageConfiguration, svc.Code)
	}

	factorValue, err := factors.Resolve(model.FactorTypeGeneral, svc.FactorScope, asOf.Year())
	if err != nil {
		return PriceResult{}, err
	}

	amount := roundRial(technical.Add(*professional).Mul(factorValue))
	return PriceResult{Amount: amount, CalculationType: model.CalculationTypeCoefficient}, nil
}
