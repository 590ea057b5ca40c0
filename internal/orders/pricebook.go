package orders

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Lab prices come from a fixed name -> price table rather than free-form
// input from the ordering clinician.
var labPrices = map[string]decimal.Decimal{
	"complete blood count":   decimal.NewFromInt(25),
	"basic metabolic panel":  decimal.NewFromInt(35),
	"lipid panel":            decimal.NewFromInt(45),
	"liver function test":    decimal.NewFromInt(40),
	"thyroid panel":          decimal.NewFromInt(55),
	"hba1c":                  decimal.NewFromInt(30),
	"urinalysis":             decimal.NewFromInt(15),
	"blood culture":          decimal.NewFromInt(60),
	"chest x-ray":            decimal.NewFromInt(80),
	"ecg":                    decimal.NewFromInt(50),
	"covid-19 pcr":           decimal.NewFromInt(70),
	"vitamin d":              decimal.NewFromInt(42),
}

// LookupTestPrice resolves a test name to its list price. Names are matched
// case-insensitively.
func LookupTestPrice(testName string) (decimal.Decimal, bool) {
	price, ok := labPrices[strings.ToLower(strings.TrimSpace(testName))]
	return price, ok
}
