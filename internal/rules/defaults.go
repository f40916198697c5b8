package rules

// DefaultRuleset returns the curated starter tables. They are written to the
// rules file on first run so the tables stay externally editable data, not
// code.
func DefaultRuleset() *Ruleset {
	rs := &Ruleset{
		Version: "1",
		Merchants: []MerchantRule{
			// Home improvement & repairs
			{Name: "home depot", Category: "repairs"},
			{Name: "homedepot", Category: "repairs"},
			{Name: "lowes", Category: "repairs"},
			{Name: "lowe's", Category: "repairs"},
			{Name: "ace hardware", Category: "repairs"},
			{Name: "menards", Category: "repairs"},
			{Name: "true value", Category: "repairs"},

			// Insurance
			{Name: "state farm", Category: "insurance"},
			{Name: "allstate", Category: "insurance"},
			{Name: "geico", Category: "insurance"},
			{Name: "progressive", Category: "insurance"},
			{Name: "farmers insurance", Category: "insurance"},
			{Name: "liberty mutual", Category: "insurance"},
			{Name: "nationwide", Category: "insurance"},
			{Name: "usaa", Category: "insurance"},

			// Mortgage & financing
			{Name: "rocket mortgage", Category: "mortgage_interest"},
			{Name: "quicken loans", Category: "mortgage_interest"},
			{Name: "wells fargo mortgage", Category: "mortgage_interest"},
			{Name: "chase mortgage", Category: "mortgage_interest"},
			{Name: "bank of america mortgage", Category: "mortgage_interest"},
			{Name: "us bank mortgage", Category: "mortgage_interest"},

			// Utilities
			{Name: "electric", Category: "utilities"},
			{Name: "electricity", Category: "utilities"},
			{Name: "power company", Category: "utilities"},
			{Name: "gas company", Category: "utilities"},
			{Name: "natural gas", Category: "utilities"},
			{Name: "water", Category: "utilities"},
			{Name: "sewer", Category: "utilities"},
			{Name: "aep", Category: "utilities"},
			{Name: "duke energy", Category: "utilities"},
			{Name: "national grid", Category: "utilities"},
			{Name: "pg&e", Category: "utilities"},

			// Trades & maintenance
			{Name: "plumbing", Category: "repairs"},
			{Name: "plumber", Category: "repairs"},
			{Name: "hvac", Category: "repairs"},
			{Name: "heating", Category: "repairs"},
			{Name: "roto-rooter", Category: "repairs"},
			{Name: "handyman", Category: "repairs"},
			{Name: "appliance repair", Category: "repairs"},
			{Name: "locksmith", Category: "repairs"},

			// Legal & professional
			{Name: "attorney", Category: "legal"},
			{Name: "law office", Category: "legal"},
			{Name: "law firm", Category: "legal"},
			{Name: "legal services", Category: "legal"},

			// Property management
			{Name: "property management", Category: "management_fees"},
			{Name: "property manager", Category: "management_fees"},

			// Cleaning
			{Name: "cleaning service", Category: "cleaning"},
			{Name: "molly maid", Category: "cleaning"},
			{Name: "merry maids", Category: "cleaning"},
			{Name: "janitorial", Category: "cleaning"},

			// Landscaping
			{Name: "landscaping", Category: "landscaping"},
			{Name: "landscape", Category: "landscaping"},
			{Name: "tree service", Category: "landscaping"},
			{Name: "lawn care", Category: "landscaping"},
			{Name: "trugreen", Category: "landscaping"},

			// Pest control
			{Name: "pest control", Category: "pest_control"},
			{Name: "exterminator", Category: "pest_control"},
			{Name: "terminix", Category: "pest_control"},
			{Name: "orkin", Category: "pest_control"},

			// HOA
			{Name: "homeowners association", Category: "hoa"},
			{Name: "condo association", Category: "hoa"},

			// Taxes
			{Name: "property tax", Category: "taxes"},
			{Name: "county treasurer", Category: "taxes"},
			{Name: "tax collector", Category: "taxes"},

			// Advertising
			{Name: "zillow", Category: "advertising"},
			{Name: "trulia", Category: "advertising"},
			{Name: "craigslist", Category: "advertising"},
			{Name: "apartments.com", Category: "advertising"},

			// Supplies
			{Name: "supplies", Category: "supplies"},
			{Name: "hardware", Category: "supplies"},
		},
		Patterns: []PatternRule{
			{Pattern: `mortgage.*\d{4,}`, Category: "mortgage_interest", Confidence: 0.90, Description: "mortgage with account number"},
			{Pattern: `\bpayment\s*\d+\s*of\s*\d+`, Category: "mortgage_interest", Confidence: 0.85, Description: "payment X of Y"},
			{Pattern: `loan.*payment`, Category: "mortgage_interest", Confidence: 0.80, Description: "loan payment"},
			{Pattern: `insurance.*policy`, Category: "insurance", Confidence: 0.90, Description: "insurance policy reference"},
			{Pattern: `policy\s*#?\s*\d+`, Category: "insurance", Confidence: 0.85, Description: "policy number"},
			{Pattern: `repair.*invoice`, Category: "repairs", Confidence: 0.85, Description: "repair invoice"},
			{Pattern: `emergency.*repair`, Category: "repairs", Confidence: 0.90, Description: "emergency repair"},
			{Pattern: `service.*call`, Category: "repairs", Confidence: 0.80, Description: "service call"},
			{Pattern: `property\s*tax`, Category: "taxes", Confidence: 0.95, Description: "property tax"},
			{Pattern: `real\s*estate\s*tax`, Category: "taxes", Confidence: 0.95, Description: "real estate tax"},
			{Pattern: `electric.*bill`, Category: "utilities", Confidence: 0.90, Description: "electric bill"},
			{Pattern: `water.*bill`, Category: "utilities", Confidence: 0.90, Description: "water bill"},
			{Pattern: `gas.*bill`, Category: "utilities", Confidence: 0.90, Description: "gas bill"},
			{Pattern: `hoa.*dues`, Category: "hoa", Confidence: 0.95, Description: "HOA dues"},
			{Pattern: `association.*fee`, Category: "hoa", Confidence: 0.85, Description: "association fee"},
		},
		Keywords: []KeywordRule{
			{Keyword: "hoa", Category: "hoa", Confidence: 0.75},
			{Keyword: "taxes", Category: "taxes", Confidence: 0.75},
			{Keyword: "tax", Category: "taxes", Confidence: 0.75},
			{Keyword: "cleaning", Category: "cleaning", Confidence: 0.75},
			{Keyword: "pest", Category: "pest_control", Confidence: 0.75},
			{Keyword: "legal", Category: "legal", Confidence: 0.75},
			{Keyword: "advertising", Category: "advertising", Confidence: 0.75},
			{Keyword: "insurance", Category: "insurance", Confidence: 0.70},
			{Keyword: "mortgage", Category: "mortgage_interest", Confidence: 0.70},
			{Keyword: "utilities", Category: "utilities", Confidence: 0.70},
			{Keyword: "landscape", Category: "landscaping", Confidence: 0.70},
			{Keyword: "management", Category: "management_fees", Confidence: 0.70},
			{Keyword: "repair", Category: "repairs", Confidence: 0.65},
			{Keyword: "utility", Category: "utilities", Confidence: 0.65},
			{Keyword: "fix", Category: "repairs", Confidence: 0.60},
		},
		Amounts: []AmountRule{
			{
				MinCents:    100_000,
				AnyKeyword:  []string{"pmt", "payment"},
				Category:    "mortgage_interest",
				Confidence:  0.60,
				Description: "large recurring payment",
			},
			{
				MinCents:    5_000,
				MaxCents:    50_000,
				AnyKeyword:  []string{"monthly", "bill"},
				Category:    "utilities",
				Confidence:  0.55,
				Description: "monthly bill amount",
			},
		},
	}
	if err := rs.Compile(); err != nil {
		// default patterns are fixed strings; a failure here is a programming error
		panic(err)
	}
	return rs
}
