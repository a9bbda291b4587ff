package flow

import (
	"fmt"

	"github.com/NiveshSarthi/RealNex-sub001/internal/calc"
	"github.com/NiveshSarthi/RealNex-sub001/internal/conversation"
	"github.com/NiveshSarthi/RealNex-sub001/internal/messaging"
)

// wizardStep is one scalar-input step of a calculator wizard: prompt, parse,
// range-check, store under key.
type wizardStep struct {
	key      string
	prompt   string
	reprompt string
	min      float64
	max      float64
}

// calculatorWizards defines each wizard as an ordered step table. The
// terminal transition (last step answered → compute → reset) is shared code
// in handleCalculatorStep.
var calculatorWizards = map[conversation.CalculatorKind][]wizardStep{
	conversation.CalcEMI: {
		{
			key:      "price",
			prompt:   "Let's work out your EMI. What's the property price? (e.g. 95,00,000 or 95L)",
			reprompt: "Please share the property price as a number, e.g. 9500000 or 95L.",
			min:      100_000, max: 1_000_000_000,
		},
		{
			key:      "down_pct",
			prompt:   "How much down payment will you make, as a percentage? (0-100)",
			reprompt: "The down payment should be a percentage between 0 and 100, e.g. 20.",
			min:      0, max: 100,
		},
		{
			key:      "tenure_years",
			prompt:   "Over how many years will you repay the loan? (1-30)",
			reprompt: "Loan tenure should be between 1 and 30 years.",
			min:      1, max: 30,
		},
		{
			key:      "rate_pct",
			prompt:   "What annual interest rate are you expecting? (e.g. 8.5)",
			reprompt: "Interest rate should be between 0.1% and 20%.",
			min:      0.1, max: 20,
		},
	},
	conversation.CalcValuation: {
		{
			key:      "area_sqft",
			prompt:   "Let's estimate the property value. What's the carpet area in sq ft?",
			reprompt: "Please share the carpet area in sq ft, e.g. 1050.",
			min:      100, max: 100_000,
		},
		{
			key:      "rate_psf",
			prompt:   "What's the going rate per sq ft in that locality?",
			reprompt: "Rate per sq ft should be a number, e.g. 8500.",
			min:      500, max: 200_000,
		},
		{
			key:      "age_years",
			prompt:   "How old is the building, in years? (0 for new)",
			reprompt: "Building age should be between 0 and 100 years.",
			min:      0, max: 100,
		},
		{
			key:      "floor",
			prompt:   "Which floor is the unit on? (0 for ground)",
			reprompt: "Floor should be between 0 and 60.",
			min:      0, max: 60,
		},
	},
	conversation.CalcAffordability: {
		{
			key:      "monthly_income",
			prompt:   "Let's find your budget. What's your monthly take-home income?",
			reprompt: "Please share your monthly income as a number, e.g. 150000 or 1.5L.",
			min:      10_000, max: 10_000_000,
		},
		{
			key:      "obligations",
			prompt:   "How much goes to existing EMIs or obligations each month? (0 if none)",
			reprompt: "Monthly obligations should be a number, e.g. 25000.",
			min:      0, max: 10_000_000,
		},
		{
			key:      "tenure_years",
			prompt:   "Over how many years would you take the loan? (1-30)",
			reprompt: "Loan tenure should be between 1 and 30 years.",
			min:      1, max: 30,
		},
		{
			key:      "rate_pct",
			prompt:   "What interest rate should I assume? (e.g. 8.5)",
			reprompt: "Interest rate should be between 0.1% and 20%.",
			min:      0.1, max: 20,
		},
	},
	conversation.CalcRentalYield: {
		{
			key:      "price",
			prompt:   "What's the property's purchase price?",
			reprompt: "Please share the purchase price as a number, e.g. 1.2cr.",
			min:      100_000, max: 1_000_000_000,
		},
		{
			key:      "monthly_rent",
			prompt:   "What monthly rent do you expect it to fetch?",
			reprompt: "Monthly rent should be a number, e.g. 35000.",
			min:      1_000, max: 10_000_000,
		},
	},
	conversation.CalcStampDuty: {
		{
			key:      "price",
			prompt:   "What's the agreement value of the property?",
			reprompt: "Please share the agreement value as a number, e.g. 8000000 or 80L.",
			min:      100_000, max: 1_000_000_000,
		},
	},
	conversation.CalcROI: {
		{
			key:      "purchase_price",
			prompt:   "Let's compute your returns. What did you buy the property for?",
			reprompt: "Please share the purchase price as a number.",
			min:      100_000, max: 1_000_000_000,
		},
		{
			key:      "current_value",
			prompt:   "What's it worth today?",
			reprompt: "Current value should be a number.",
			min:      100_000, max: 10_000_000_000,
		},
		{
			key:      "monthly_rent",
			prompt:   "What monthly rent has it earned, on average? (0 if self-occupied)",
			reprompt: "Monthly rent should be a number, 0 if none.",
			min:      0, max: 10_000_000,
		},
		{
			key:      "years",
			prompt:   "How many years have you held it?",
			reprompt: "Holding period should be between 1 and 50 years.",
			min:      1, max: 50,
		},
	},
}

// startCalculator puts the context into the wizard's first step and returns
// its prompt.
func startCalculator(c *conversation.Context, kind conversation.CalculatorKind) []messaging.Outbound {
	steps := calculatorWizards[kind]
	c.ResetFlow()
	c.Flow = conversation.FlowCalculator
	c.Calculator = kind
	c.Step = steps[0].key
	return []messaging.Outbound{messaging.Text(steps[0].prompt)}
}

// handleCalculatorStep advances the active wizard by one turn. Invalid input
// re-prompts the same step: state only moves forward on a valid answer.
func handleCalculatorStep(c *conversation.Context, text string) []messaging.Outbound {
	steps, ok := calculatorWizards[c.Calculator]
	if !ok {
		// Unknown wizard in stored state; recover by resetting.
		c.ResetFlow()
		return []messaging.Outbound{whatNextMenu()}
	}

	idx := stepIndex(steps, c.Step)
	if idx < 0 {
		c.ResetFlow()
		return []messaging.Outbound{whatNextMenu()}
	}
	step := steps[idx]

	value, parsed := ParseNumber(text)
	if !parsed || value < step.min || value > step.max {
		c.FailedAttempts++
		return []messaging.Outbound{messaging.Text(step.reprompt)}
	}

	c.SetData(step.key, value)
	c.FailedAttempts = 0

	if idx+1 < len(steps) {
		c.Step = steps[idx+1].key
		return []messaging.Outbound{messaging.Text(steps[idx+1].prompt)}
	}

	result := formatCalculatorResult(c.Calculator, c.Data)
	c.ResetFlow()
	return []messaging.Outbound{result, whatNextMenu()}
}

func stepIndex(steps []wizardStep, key string) int {
	for i, s := range steps {
		if s.key == key {
			return i
		}
	}
	return -1
}

// formatCalculatorResult invokes the pure calculator for the wizard and
// renders the outcome.
func formatCalculatorResult(kind conversation.CalculatorKind, data map[string]float64) messaging.Outbound {
	switch kind {
	case conversation.CalcEMI:
		r := calc.EMI(data["price"], data["down_pct"], data["tenure_years"], data["rate_pct"])
		return messaging.Text(fmt.Sprintf(
			"Here's your EMI breakdown:\n\n"+
				"Loan amount: %s\n"+
				"Down payment: %s\n"+
				"Monthly EMI: %s\n"+
				"Total interest: %s\n"+
				"Total payable: %s\n\n"+
				"(%d months at %.2f%% p.a.)",
			formatINR(r.LoanAmount), formatINR(r.DownPayment), formatINR(r.MonthlyEMI),
			formatINR(r.TotalInterest), formatINR(r.TotalPayable),
			r.TenureMonths, r.AnnualRatePct,
		))
	case conversation.CalcValuation:
		r := calc.Valuation(data["area_sqft"], data["rate_psf"], data["age_years"], data["floor"])
		return messaging.Text(fmt.Sprintf(
			"Estimated valuation:\n\n"+
				"Base value: %s\n"+
				"Age depreciation: -%s\n"+
				"Floor premium: +%s\n"+
				"Estimated market value: %s",
			formatINR(r.BaseValue), formatINR(r.AgeDepreciation),
			formatINR(r.FloorPremium), formatINR(r.EstimatedValue),
		))
	case conversation.CalcAffordability:
		r := calc.Affordability(data["monthly_income"], data["obligations"], data["tenure_years"], data["rate_pct"])
		return messaging.Text(fmt.Sprintf(
			"Based on your income:\n\n"+
				"Comfortable EMI: %s/month\n"+
				"Maximum loan: %s\n"+
				"Property budget: %s\n\n"+
				"(assuming a 20%% down payment)",
			formatINR(r.MaxMonthlyEMI), formatINR(r.MaxLoanAmount), formatINR(r.MaxBudget),
		))
	case conversation.CalcRentalYield:
		r := calc.RentalYield(data["price"], data["monthly_rent"])
		return messaging.Text(fmt.Sprintf(
			"Rental yield:\n\n"+
				"Annual rent: %s\n"+
				"Gross yield: %.2f%% per year",
			formatINR(r.AnnualRent), r.YieldPct,
		))
	case conversation.CalcStampDuty:
		r := calc.StampDuty(data["price"])
		return messaging.Text(fmt.Sprintf(
			"Registration charges:\n\n"+
				"Stamp duty: %s\n"+
				"Registration fee: %s\n"+
				"Total: %s",
			formatINR(r.StampDuty), formatINR(r.RegistrationFee), formatINR(r.Total),
		))
	case conversation.CalcROI:
		r := calc.ROI(data["purchase_price"], data["current_value"], data["monthly_rent"], data["years"])
		return messaging.Text(fmt.Sprintf(
			"Your investment returns:\n\n"+
				"Capital gain: %s\n"+
				"Rental income: %s\n"+
				"Total return: %.1f%%\n"+
				"Annualized: %.1f%% per year",
			formatINR(r.CapitalGain), formatINR(r.TotalRentalIncome),
			r.TotalReturnPct, r.AnnualizedPct,
		))
	}
	return whatNextMenu()
}
