package money

// Supported lists the currencies the rate feed requests by default.
var Supported = []string{"USD", "EUR", "GBP", "THB", "JPY", "AUD", "SGD", "MYR", "INR", "CNY"}

var symbols = map[string]string{
	"USD": "$",
	"EUR": "€",
	"GBP": "£",
	"THB": "฿",
	"JPY": "¥",
	"AUD": "A$",
	"SGD": "S$",
	"MYR": "RM",
	"INR": "₹",
	"CNY": "¥",
}

// Symbol returns the display symbol for code, or the code itself when unknown.
func Symbol(code string) string {
	if s, ok := symbols[code]; ok {
		return s
	}
	return code
}

// IsSupported reports whether code is in Supported.
func IsSupported(code string) bool {
	for _, c := range Supported {
		if c == code {
			return true
		}
	}
	return false
}
