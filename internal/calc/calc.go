// Package calc implements the financial calculators behind the conversation
// wizards. Every function is pure: validated numeric inputs in, structured
// results out, no I/O.
package calc

import "math"

// EMIResult breaks down a home-loan EMI computation.
type EMIResult struct {
	LoanAmount     float64
	DownPayment    float64
	MonthlyEMI     float64
	TotalInterest  float64
	TotalPayable   float64
	TenureMonths   int
	AnnualRatePct  float64
	DownPaymentPct float64
}

// EMI computes the equated monthly installment for a property purchase using
// the standard amortization formula. downPaymentPct is in [0,100],
// tenureYears in whole years, annualRatePct e.g. 8.5.
func EMI(price, downPaymentPct, tenureYears, annualRatePct float64) EMIResult {
	downPayment := price * downPaymentPct / 100
	principal := price - downPayment
	months := int(tenureYears * 12)
	monthlyRate := annualRatePct / 12 / 100

	var emi float64
	if monthlyRate == 0 {
		emi = principal / float64(months)
	} else {
		factor := math.Pow(1+monthlyRate, float64(months))
		emi = principal * monthlyRate * factor / (factor - 1)
	}

	totalPayable := emi * float64(months)
	return EMIResult{
		LoanAmount:     principal,
		DownPayment:    downPayment,
		MonthlyEMI:     emi,
		TotalInterest:  totalPayable - principal,
		TotalPayable:   totalPayable,
		TenureMonths:   months,
		AnnualRatePct:  annualRatePct,
		DownPaymentPct: downPaymentPct,
	}
}

// ValuationResult estimates a property's market value.
type ValuationResult struct {
	BaseValue       float64
	AgeDepreciation float64
	FloorPremium    float64
	EstimatedValue  float64
}

// Valuation estimates market value from carpet area and locality rate,
// depreciating 1% per year of age (capped at 30%) and adding a 0.5% premium
// per floor above ground (capped at 10%).
func Valuation(areaSqft, ratePerSqft, ageYears, floor float64) ValuationResult {
	base := areaSqft * ratePerSqft

	depPct := ageYears * 1.0
	if depPct > 30 {
		depPct = 30
	}
	depreciation := base * depPct / 100

	premiumPct := floor * 0.5
	if premiumPct > 10 {
		premiumPct = 10
	}
	premium := base * premiumPct / 100

	return ValuationResult{
		BaseValue:       base,
		AgeDepreciation: depreciation,
		FloorPremium:    premium,
		EstimatedValue:  base - depreciation + premium,
	}
}

// AffordabilityResult is the maximum purchase budget for a given income.
type AffordabilityResult struct {
	MaxMonthlyEMI float64
	MaxLoanAmount float64
	MaxBudget     float64
}

// Affordability derives a purchase budget assuming 50% of disposable monthly
// income (income minus obligations) can service an EMI, financed at the given
// rate and tenure with a 20% down payment on top of the loan.
func Affordability(monthlyIncome, monthlyObligations, tenureYears, annualRatePct float64) AffordabilityResult {
	disposable := monthlyIncome - monthlyObligations
	if disposable < 0 {
		disposable = 0
	}
	maxEMI := disposable * 0.5

	months := tenureYears * 12
	monthlyRate := annualRatePct / 12 / 100

	var maxLoan float64
	if monthlyRate == 0 {
		maxLoan = maxEMI * months
	} else {
		factor := math.Pow(1+monthlyRate, months)
		maxLoan = maxEMI * (factor - 1) / (monthlyRate * factor)
	}

	// Loan covers 80% of the property with a 20% down payment.
	return AffordabilityResult{
		MaxMonthlyEMI: maxEMI,
		MaxLoanAmount: maxLoan,
		MaxBudget:     maxLoan / 0.8,
	}
}

// RentalYieldResult is the gross annual rental yield for a property.
type RentalYieldResult struct {
	AnnualRent float64
	YieldPct   float64
}

// RentalYield computes gross annual yield as a percentage of purchase price.
func RentalYield(price, monthlyRent float64) RentalYieldResult {
	annual := monthlyRent * 12
	var yield float64
	if price > 0 {
		yield = annual / price * 100
	}
	return RentalYieldResult{AnnualRent: annual, YieldPct: yield}
}

// StampDutyResult breaks down registration charges on a purchase.
type StampDutyResult struct {
	StampDuty       float64
	RegistrationFee float64
	Total           float64
}

// stampDutySlabs: duty percentage by price band, highest band first.
var stampDutySlabs = []struct {
	above float64
	pct   float64
}{
	{10_000_000, 6.0},
	{5_000_000, 5.5},
	{0, 5.0},
}

// StampDuty computes stamp duty on a slab schedule plus a 1% registration fee
// capped at 30,000.
func StampDuty(price float64) StampDutyResult {
	var dutyPct float64
	for _, slab := range stampDutySlabs {
		if price > slab.above {
			dutyPct = slab.pct
			break
		}
	}

	duty := price * dutyPct / 100
	registration := price * 1 / 100
	if registration > 30_000 {
		registration = 30_000
	}
	return StampDutyResult{
		StampDuty:       duty,
		RegistrationFee: registration,
		Total:           duty + registration,
	}
}

// ROIResult summarizes total return on a property investment.
type ROIResult struct {
	CapitalGain       float64
	TotalRentalIncome float64
	TotalReturnPct    float64
	AnnualizedPct     float64
}

// ROI computes total and annualized return from capital appreciation plus
// rental income over the holding period.
func ROI(purchasePrice, currentValue, monthlyRent, years float64) ROIResult {
	gain := currentValue - purchasePrice
	rental := monthlyRent * 12 * years

	var totalPct, annualPct float64
	if purchasePrice > 0 {
		totalPct = (gain + rental) / purchasePrice * 100
		if years > 0 {
			annualPct = math.Pow(1+(gain+rental)/purchasePrice, 1/years) - 1
			annualPct *= 100
		}
	}
	return ROIResult{
		CapitalGain:       gain,
		TotalRentalIncome: rental,
		TotalReturnPct:    totalPct,
		AnnualizedPct:     annualPct,
	}
}
