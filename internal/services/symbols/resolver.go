package symbols

import (
	"strings"
)

// builtinTable maps Tunis exchange tickers to their ISIN instrument
// codes. Config can extend or override it.
var builtinTable = map[string]string{
	"BIAT":   "TN0001800457",
	"BT":     "TN0001100254",
	"BH":     "TN0001900604",
	"ATB":    "TN0001400704",
	"ATTIJARI": "TN0001600154",
	"STB":    "TN0002200053",
	"UIB":    "TN0003900107",
	"AMENBANK": "TN0001000652",
	"BNA":    "TN0003100609",
	"SFBT":   "TN0007570015",
	"DELICE": "TN0007610017",
	"SAH":    "TN0007530030",
	"TUNISAIR": "TN0006530018",
	"PGH":    "TN0007400013",
	"OTH":    "TN0007540096",
	"EUROCYCLES": "TN0007440019",
	"TPR":    "TN0007270012",
	"SOTUVER": "TN0003200300",
	"CARTHAGECEMENT": "TN0007480015",
	"MONOPRIX": "TN0003400058",
}

// Resolver translates user-facing tickers to the instrument codes the
// history store indexes on, and back.
type Resolver struct {
	bySymbol map[string]string
	byCode   map[string]string
}

// NewResolver merges overrides on top of the builtin table. Override keys
// are tickers, values are codes.
func NewResolver(overrides map[string]string) *Resolver {
	r := &Resolver{
		bySymbol: make(map[string]string, len(builtinTable)+len(overrides)),
		byCode:   make(map[string]string, len(builtinTable)+len(overrides)),
	}
	for sym, code := range builtinTable {
		r.add(sym, code)
	}
	for sym, code := range overrides {
		r.add(sym, code)
	}
	return r
}

func (r *Resolver) add(symbol, code string) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	r.bySymbol[symbol] = code
	r.byCode[code] = symbol
}

// Resolve returns the instrument code for a ticker. Inputs that already
// are known codes pass through unchanged, so callers can use either form.
// Unmapped inputs fall back to the raw symbol as the code: an unknown
// ticker is not an error here, it simply finds no history downstream.
// mapped reports whether the table knew the input.
func (r *Resolver) Resolve(symbol string) (code string, mapped bool) {
	key := strings.ToUpper(strings.TrimSpace(symbol))
	if code, ok := r.bySymbol[key]; ok {
		return code, true
	}
	if _, ok := r.byCode[key]; ok {
		return key, true
	}
	return key, false
}

// Symbol returns the ticker for a code, or the code itself when unmapped.
func (r *Resolver) Symbol(code string) string {
	if sym, ok := r.byCode[code]; ok {
		return sym
	}
	return code
}

// Symbols lists all known tickers.
func (r *Resolver) Symbols() []string {
	out := make([]string, 0, len(r.bySymbol))
	for sym := range r.bySymbol {
		out = append(out, sym)
	}
	return out
}
