package valueobject

import (
	"fmt"
)

// ---------------------------------------------------------------------------
// AmortizationMode – immutable value object
// ---------------------------------------------------------------------------

// AmortizationMode selects how principal is spread across the schedule.
type AmortizationMode struct {
	value string
}

const (
	modeAnnuity           = "ANNUITY"
	modeConstantPrincipal = "CONSTANT_PRINCIPAL"
	modeInterestOnly      = "INTEREST_ONLY"
	modeBalloon           = "BALLOON"
)

var (
	ModeAnnuity           = AmortizationMode{value: modeAnnuity}
	ModeConstantPrincipal = AmortizationMode{value: modeConstantPrincipal}
	ModeInterestOnly      = AmortizationMode{value: modeInterestOnly}
	ModeBalloon           = AmortizationMode{value: modeBalloon}
)

var validAmortizationModes = map[string]AmortizationMode{
	modeAnnuity:           ModeAnnuity,
	modeConstantPrincipal: ModeConstantPrincipal,
	modeInterestOnly:      ModeInterestOnly,
	modeBalloon:           ModeBalloon,
}

// NewAmortizationMode creates an AmortizationMode from a raw string.
func NewAmortizationMode(s string) (AmortizationMode, error) {
	v, ok := validAmortizationModes[s]
	if !ok {
		return AmortizationMode{}, fmt.Errorf("invalid amortization mode: %q", s)
	}
	return v, nil
}

func (m AmortizationMode) String() string                    { return m.value }
func (m AmortizationMode) IsZero() bool                      { return m.value == "" }
func (m AmortizationMode) Equal(other AmortizationMode) bool { return m.value == other.value }

// ---------------------------------------------------------------------------
// RateType – immutable value object
// ---------------------------------------------------------------------------

// RateType distinguishes fixed-rate loans from loans re-priced by rate revisions.
type RateType struct {
	value string
}

const (
	rateTypeFixed    = "FIXED"
	rateTypeVariable = "VARIABLE"
)

var (
	RateTypeFixed    = RateType{value: rateTypeFixed}
	RateTypeVariable = RateType{value: rateTypeVariable}
)

// NewRateType creates a RateType from a raw string.
func NewRateType(s string) (RateType, error) {
	switch s {
	case rateTypeFixed:
		return RateTypeFixed, nil
	case rateTypeVariable:
		return RateTypeVariable, nil
	default:
		return RateType{}, fmt.Errorf("invalid rate type: %q", s)
	}
}

func (r RateType) String() string            { return r.value }
func (r RateType) IsZero() bool              { return r.value == "" }
func (r RateType) Equal(other RateType) bool { return r.value == other.value }

// ---------------------------------------------------------------------------
// InstallmentPolicy – immutable value object
// ---------------------------------------------------------------------------

// InstallmentPolicy records how the builder treated the constant installment.
//
// FROZEN_ON_RATE_CHANGE is the variable-rate, no-recalculation behaviour:
// interest re-prices every period but the installment computed at origination
// is kept, so principal reduction drifts and the final line absorbs whatever
// principal is left.
type InstallmentPolicy struct {
	value string
}

var (
	InstallmentNone               = InstallmentPolicy{value: "NONE"}
	InstallmentFixed              = InstallmentPolicy{value: "FIXED"}
	InstallmentRecalculated       = InstallmentPolicy{value: "RECALCULATED"}
	InstallmentFrozenOnRateChange = InstallmentPolicy{value: "FROZEN_ON_RATE_CHANGE"}
)

// NewInstallmentPolicy creates an InstallmentPolicy from a raw string.
func NewInstallmentPolicy(s string) (InstallmentPolicy, error) {
	for _, p := range []InstallmentPolicy{
		InstallmentNone, InstallmentFixed, InstallmentRecalculated, InstallmentFrozenOnRateChange,
	} {
		if p.value == s {
			return p, nil
		}
	}
	return InstallmentPolicy{}, fmt.Errorf("invalid installment policy: %q", s)
}

func (p InstallmentPolicy) String() string                     { return p.value }
func (p InstallmentPolicy) Equal(other InstallmentPolicy) bool { return p.value == other.value }

// ---------------------------------------------------------------------------
// PrepaymentMode – immutable value object
// ---------------------------------------------------------------------------

// PrepaymentMode selects what a prepayment shortens: the installment or the term.
type PrepaymentMode struct {
	value string
}

const (
	prepaymentReAmortize  = "RE_AMORTIZE"
	prepaymentShortenTerm = "SHORTEN_TERM"
)

var (
	PrepaymentReAmortize  = PrepaymentMode{value: prepaymentReAmortize}
	PrepaymentShortenTerm = PrepaymentMode{value: prepaymentShortenTerm}
)

// NewPrepaymentMode creates a PrepaymentMode from a raw string.
func NewPrepaymentMode(s string) (PrepaymentMode, error) {
	switch s {
	case prepaymentReAmortize:
		return PrepaymentReAmortize, nil
	case prepaymentShortenTerm:
		return PrepaymentShortenTerm, nil
	default:
		return PrepaymentMode{}, fmt.Errorf("invalid prepayment mode: %q", s)
	}
}

func (m PrepaymentMode) String() string                  { return m.value }
func (m PrepaymentMode) IsZero() bool                    { return m.value == "" }
func (m PrepaymentMode) Equal(other PrepaymentMode) bool { return m.value == other.value }
