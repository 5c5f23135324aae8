package model

import (
	"fmt"
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/bibbank/debt-service/internal/domain/event"
	"github.com/bibbank/debt-service/internal/domain/valueobject"
	"github.com/bibbank/debt-service/pkg/money"
)

// ---------------------------------------------------------------------------
// Installment
// ---------------------------------------------------------------------------

// Installment is a schedule line together with what has been paid against it.
type Installment struct {
	ScheduleLine
	Paid Dues
}

// Outstanding returns what is still owed on the installment.
func (i Installment) Outstanding() Dues { return i.Dues().Sub(i.Paid) }

// IsSettled reports whether nothing is owed on the installment.
func (i Installment) IsSettled() bool { return !i.Outstanding().Total().IsPositive() }

// HasPayments reports whether any amount has been applied to the installment.
func (i Installment) HasPayments() bool { return i.Paid.Total().IsPositive() }

// Payment is a cash amount received against a loan.
type Payment struct {
	// PeriodIndex targets an installment. Zero targets the oldest unpaid one.
	PeriodIndex     int
	PaidAt          civil.Date
	Amount          money.Money
	FXRate          decimal.NullDecimal
	Method          string
	SourceAccountID string
}

// ---------------------------------------------------------------------------
// Loan aggregate root
// ---------------------------------------------------------------------------

// Loan is an immutable aggregate. Mutations return a new copy.
//
// The installments are the schedule the loan is serviced against. Terms are
// the inputs of the installments from termsOffset onwards; a prepayment
// replaces both from the first unsettled installment.
type Loan struct {
	id                 string
	ownerID            string
	currency           money.Currency
	originalPrincipal  decimal.Decimal
	terms              LoanTerms
	termsOffset        int
	installments       []Installment
	installment        decimal.Decimal
	policy             valueobject.InstallmentPolicy
	status             valueobject.LoanStatus
	remainingPrincipal decimal.Decimal
	credit             decimal.Decimal
	predecessorID      string
	successorID        string
	version            int
	createdAt          time.Time
	updatedAt          time.Time
	domainEvents       []event.DomainEvent
}

// LoanSnapshot carries the persisted state of a loan.
type LoanSnapshot struct {
	ID                 string
	OwnerID            string
	Currency           money.Currency
	OriginalPrincipal  decimal.Decimal
	Terms              LoanTerms
	TermsOffset        int
	Installments       []Installment
	Installment        decimal.Decimal
	Policy             valueobject.InstallmentPolicy
	Status             valueobject.LoanStatus
	RemainingPrincipal decimal.Decimal
	Credit             decimal.Decimal
	PredecessorID      string
	SuccessorID        string
	Version            int
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// ---------------------------------------------------------------------------
// Constructors
// ---------------------------------------------------------------------------

// NewLoan validates the terms, builds the first schedule and returns an
// ACTIVE loan.
func NewLoan(ownerID string, currency money.Currency, terms LoanTerms, now time.Time) (Loan, error) {
	if ownerID == "" {
		return Loan{}, ErrOwnerRequired
	}
	sched, err := BuildSchedule(terms)
	if err != nil {
		return Loan{}, err
	}

	id := uuid.New().String()
	loan := Loan{
		id:                 id,
		ownerID:            ownerID,
		currency:           currency,
		originalPrincipal:  terms.Principal.Round(2),
		terms:              terms,
		installments:       installmentsFrom(sched.Lines, 0),
		installment:        sched.Installment,
		policy:             sched.Policy,
		status:             valueobject.LoanStatusActive,
		remainingPrincipal: terms.Principal.Round(2),
		credit:             decimal.Zero,
		version:            1,
		createdAt:          now,
		updatedAt:          now,
	}

	loan.domainEvents = append(loan.domainEvents, event.NewLoanOriginated(
		id, ownerID, loan.originalPrincipal, currency.Code(), terms.Mode.String(),
		terms.TotalPeriods, loan.NextDueDate(), loan.NextDueAmount(), "",
	))
	return loan, nil
}

// ReconstructLoan rebuilds a Loan aggregate from persistence.
func ReconstructLoan(s LoanSnapshot) Loan {
	return Loan{
		id:                 s.ID,
		ownerID:            s.OwnerID,
		currency:           s.Currency,
		originalPrincipal:  s.OriginalPrincipal,
		terms:              s.Terms,
		termsOffset:        s.TermsOffset,
		installments:       s.Installments,
		installment:        s.Installment,
		policy:             s.Policy,
		status:             s.Status,
		remainingPrincipal: s.RemainingPrincipal,
		credit:             s.Credit,
		predecessorID:      s.PredecessorID,
		successorID:        s.SuccessorID,
		version:            s.Version,
		createdAt:          s.CreatedAt,
		updatedAt:          s.UpdatedAt,
	}
}

func installmentsFrom(lines []ScheduleLine, offset int) []Installment {
	out := make([]Installment, len(lines))
	for i, l := range lines {
		l.PeriodIndex += offset
		out[i] = Installment{ScheduleLine: l}
	}
	return out
}

// ---------------------------------------------------------------------------
// Behaviour
// ---------------------------------------------------------------------------

// RebuildSchedule regenerates the schedule from the current terms. Only a
// loan with no recorded payment may be rebuilt.
func (l Loan) RebuildSchedule(now time.Time) (Loan, error) {
	if l.status.IsTerminal() {
		return l, ErrTerminalState
	}
	if l.HasPayments() {
		return l, ErrScheduleLocked
	}
	sched, err := BuildSchedule(l.terms)
	if err != nil {
		return l, err
	}

	next := l
	next.installments = installmentsFrom(sched.Lines, l.termsOffset)
	next.installment = sched.Installment
	next.policy = sched.Policy
	next.remainingPrincipal = l.terms.Principal.Round(2)
	next.updatedAt = now
	next.domainEvents = copyEvents(l.domainEvents)
	next.domainEvents = append(next.domainEvents, event.NewScheduleRebuilt(
		l.id, l.ownerID, len(next.installments), next.NextDueDate(), next.NextDueAmount(),
	))
	return next, nil
}

// RecordPayment applies a payment to the targeted installment through the
// fixed allocation waterfall. Cash left over is carried onto later
// installments that are already due on PaidAt; anything beyond that is held
// as credit. The returned allocation aggregates every installment touched and
// its Remainder is the amount moved to credit.
func (l Loan) RecordPayment(p Payment, now time.Time) (Loan, PaymentAllocation, error) {
	if l.status.IsTerminal() {
		return l, PaymentAllocation{}, ErrTerminalState
	}
	if !p.Amount.IsPositive() {
		return l, PaymentAllocation{}, ErrInvalidPaymentAmount
	}
	if p.Amount.Currency() != l.currency {
		return l, PaymentAllocation{}, fmt.Errorf("%w: got %s, loan is in %s",
			ErrCurrencyMismatch, p.Amount.Currency(), l.currency)
	}

	start := l.firstUnsettled()
	if p.PeriodIndex > 0 {
		if p.PeriodIndex > len(l.installments) {
			return l, PaymentAllocation{}, fmt.Errorf("%w: period %d", ErrUnknownInstallment, p.PeriodIndex)
		}
		start = p.PeriodIndex - 1
	}

	next := l
	next.installments = copyInstallments(l.installments)

	cash := p.Amount.Amount()
	total := PaymentAllocation{}
	for i := start; i >= 0 && i < len(next.installments) && cash.IsPositive(); i++ {
		inst := next.installments[i]
		if i > start && inst.DueDate.After(p.PaidAt) {
			break
		}
		if inst.IsSettled() {
			continue
		}
		alloc := Allocate(cash, inst.Outstanding())
		inst.Paid = inst.Paid.Add(alloc.Paid())
		next.installments[i] = inst
		total = addAllocations(total, alloc)
		cash = alloc.Remainder
	}
	if cash.IsPositive() {
		total.Remainder = cash
		next.credit = l.credit.Add(cash)
	}

	next.remainingPrincipal = l.remainingPrincipal.Sub(total.PrincipalPaid)
	next.updatedAt = now
	next.domainEvents = copyEvents(l.domainEvents)

	periodIndex := p.PeriodIndex
	if periodIndex == 0 && start >= 0 {
		periodIndex = start + 1
	}
	next.domainEvents = append(next.domainEvents, event.NewPaymentRecorded(l.id, l.ownerID, event.PaymentRecordedParams{
		PeriodIndex:        periodIndex,
		PaidAt:             p.PaidAt,
		Amount:             p.Amount.Amount(),
		Currency:           p.Amount.Currency().Code(),
		FXRate:             p.FXRate,
		Method:             p.Method,
		SourceAccountID:    p.SourceAccountID,
		FeesPaid:           total.FeesPaid,
		InterestPaid:       total.InterestPaid,
		InsurancePaid:      total.InsurancePaid,
		PrincipalPaid:      total.PrincipalPaid,
		Credit:             next.credit,
		RemainingPrincipal: next.remainingPrincipal,
	}))

	switch {
	case next.isPaidUp():
		next = next.settle()
	case next.status.Equal(valueobject.LoanStatusLate) && !next.HasArrears(p.PaidAt):
		next.status = valueobject.LoanStatusActive
		next.domainEvents = append(next.domainEvents, event.NewLoanCured(l.id, l.ownerID, p.PaidAt))
	}
	return next, total, nil
}

// MarkLate transitions ACTIVE -> LATE when an installment due before asOf is
// unpaid.
func (l Loan) MarkLate(asOf civil.Date, now time.Time) (Loan, error) {
	if l.status.IsTerminal() {
		return l, ErrTerminalState
	}
	if !l.status.CanTransitionTo(valueobject.LoanStatusLate) {
		return l, valueobject.ErrInvalidStatusTransition
	}
	arrears := l.Arrears(asOf)
	if !arrears.IsPositive() {
		return l, ErrNoArrears
	}

	next := l
	next.status = valueobject.LoanStatusLate
	next.updatedAt = now
	next.domainEvents = copyEvents(l.domainEvents)
	next.domainEvents = append(next.domainEvents, event.NewLoanLate(l.id, l.ownerID, asOf, arrears))
	return next, nil
}

// PrepaymentBasis returns the state a prepayment made on asOf is planned
// against. Installments due on or before asOf must be settled and no later
// installment may carry a payment, since the rebuilt schedule replaces them.
func (l Loan) PrepaymentBasis(asOf civil.Date) (PrepaymentBasis, error) {
	if l.status.IsTerminal() {
		return PrepaymentBasis{}, ErrTerminalState
	}
	elapsed := l.SettledPeriods()
	for _, inst := range l.installments[elapsed:] {
		if inst.DueDate.After(asOf) {
			break
		}
		if !inst.IsSettled() {
			return PrepaymentBasis{}, fmt.Errorf("%w: period %d due %s", ErrArrearsOutstanding, inst.PeriodIndex, inst.DueDate)
		}
	}
	if inst, ok := l.firstPaidAfter(elapsed); ok {
		return PrepaymentBasis{}, fmt.Errorf("%w: period %d", ErrInstallmentPartiallyPaid, inst.PeriodIndex)
	}

	graceLeft := l.terms.GracePeriods - (elapsed - l.termsOffset)
	if graceLeft < 0 {
		graceLeft = 0
	}

	lines := make([]ScheduleLine, 0, len(l.installments)-elapsed)
	for _, inst := range l.installments[elapsed:] {
		lines = append(lines, inst.ScheduleLine)
	}

	return PrepaymentBasis{
		LoanID:             l.id,
		AsOf:               asOf,
		Terms:              l.terms,
		RemainingLines:     lines,
		RemainingPrincipal: l.remainingPrincipal,
		ElapsedPeriods:     elapsed,
		GraceLeft:          graceLeft,
		Installment:        l.installment,
		PeriodOffset:       l.terms.PeriodOffset + elapsed - l.termsOffset,
	}, nil
}

// ApplyPrepayment replaces the unsettled installments with the plan's new
// schedule and reduces the remaining principal. A plan computed against a
// different state of the loan is rejected.
func (l Loan) ApplyPrepayment(plan PrepaymentPlan, now time.Time) (Loan, error) {
	if l.status.IsTerminal() {
		return l, ErrTerminalState
	}
	if plan.LoanID != l.id ||
		plan.ElapsedPeriods != l.SettledPeriods() ||
		!plan.BasePrincipal.Equal(l.remainingPrincipal) {
		return l, ErrStalePlan
	}
	if l.HasArrears(plan.AsOf) {
		return l, ErrArrearsOutstanding
	}
	if inst, ok := l.firstPaidAfter(plan.ElapsedPeriods); ok {
		return l, fmt.Errorf("%w: period %d", ErrInstallmentPartiallyPaid, inst.PeriodIndex)
	}

	e := plan.ElapsedPeriods
	next := l
	next.installments = append(copyInstallments(l.installments[:e]), installmentsFrom(plan.NewSchedule.Lines, e)...)
	next.terms = plan.NewTerms
	next.termsOffset = e
	next.installment = plan.NewSchedule.Installment
	next.policy = plan.NewSchedule.Policy
	next.remainingPrincipal = plan.NewRemainingPrincipal
	next.updatedAt = now
	next.domainEvents = copyEvents(l.domainEvents)
	next.domainEvents = append(next.domainEvents, event.NewPrepaymentApplied(
		l.id, l.ownerID, plan.Mode.String(),
		plan.PrincipalApplied, plan.Penalty, plan.NewDuration,
		plan.NewInstallment, plan.InterestSaved, plan.NewRemainingPrincipal,
	))

	switch {
	case next.isPaidUp():
		next = next.settle()
	case next.status.Equal(valueobject.LoanStatusLate):
		next.status = valueobject.LoanStatusActive
		next.domainEvents = append(next.domainEvents, event.NewLoanCured(l.id, l.ownerID, plan.AsOf))
	}
	return next, nil
}

// Restructure closes the loan and opens a successor under newTerms. The
// closed loan keeps its remaining principal frozen; the successor links back
// to it.
func (l Loan) Restructure(newTerms LoanTerms, now time.Time) (closed Loan, successor Loan, err error) {
	if l.status.IsTerminal() {
		return l, Loan{}, ErrTerminalState
	}
	successor, err = NewLoan(l.ownerID, l.currency, newTerms, now)
	if err != nil {
		return l, Loan{}, err
	}
	successor.predecessorID = l.id
	successor.domainEvents = []event.DomainEvent{event.NewLoanOriginated(
		successor.id, l.ownerID, successor.originalPrincipal, l.currency.Code(), newTerms.Mode.String(),
		newTerms.TotalPeriods, successor.NextDueDate(), successor.NextDueAmount(), l.id,
	)}

	closed = l
	closed.status = valueobject.LoanStatusRestructured
	closed.successorID = successor.id
	closed.updatedAt = now
	closed.domainEvents = copyEvents(l.domainEvents)
	closed.domainEvents = append(closed.domainEvents, event.NewLoanRestructured(
		l.id, l.ownerID, successor.id, l.remainingPrincipal,
	))
	return closed, successor, nil
}

func (l Loan) settle() Loan {
	l.status = valueobject.LoanStatusSettled
	l.remainingPrincipal = decimal.Zero
	l.domainEvents = append(l.domainEvents, event.NewLoanSettled(l.id, l.ownerID, l.credit))
	return l
}

func (l Loan) isPaidUp() bool {
	if l.remainingPrincipal.GreaterThanOrEqual(cent) {
		return false
	}
	for _, inst := range l.installments {
		if !inst.IsSettled() {
			return false
		}
	}
	return true
}

// ---------------------------------------------------------------------------
// Queries
// ---------------------------------------------------------------------------

// SettledPeriods counts the leading installments that are fully paid.
func (l Loan) SettledPeriods() int {
	n := 0
	for _, inst := range l.installments {
		if !inst.IsSettled() {
			break
		}
		n++
	}
	return n
}

// firstPaidAfter returns the first installment from index from onwards that
// carries a payment.
func (l Loan) firstPaidAfter(from int) (Installment, bool) {
	for _, inst := range l.installments[from:] {
		if inst.HasPayments() {
			return inst, true
		}
	}
	return Installment{}, false
}

// HasPayments reports whether any payment was applied to the installments.
func (l Loan) HasPayments() bool {
	for _, inst := range l.installments {
		if inst.HasPayments() {
			return true
		}
	}
	return false
}

// Arrears sums what is owed on installments due strictly before asOf.
func (l Loan) Arrears(asOf civil.Date) decimal.Decimal {
	total := decimal.Zero
	for _, inst := range l.installments {
		if !inst.DueDate.Before(asOf) {
			break
		}
		total = total.Add(inst.Outstanding().Total())
	}
	return total
}

// HasArrears reports whether an installment due before asOf is unpaid.
func (l Loan) HasArrears(asOf civil.Date) bool {
	return l.Arrears(asOf).IsPositive()
}

// NextDueDate is the due date of the oldest unpaid installment, or the zero
// date when none is left.
func (l Loan) NextDueDate() civil.Date {
	if i := l.firstUnsettled(); i >= 0 {
		return l.installments[i].DueDate
	}
	return civil.Date{}
}

// NextDueAmount is what is still owed on the oldest unpaid installment.
func (l Loan) NextDueAmount() decimal.Decimal {
	if i := l.firstUnsettled(); i >= 0 {
		return l.installments[i].Outstanding().Total()
	}
	return decimal.Zero
}

func (l Loan) firstUnsettled() int {
	for i, inst := range l.installments {
		if !inst.IsSettled() {
			return i
		}
	}
	return -1
}

// ---------------------------------------------------------------------------
// Accessors
// ---------------------------------------------------------------------------

func (l Loan) ID() string                                       { return l.id }
func (l Loan) OwnerID() string                                  { return l.ownerID }
func (l Loan) Currency() money.Currency                         { return l.currency }
func (l Loan) OriginalPrincipal() decimal.Decimal               { return l.originalPrincipal }
func (l Loan) Terms() LoanTerms                                 { return l.terms }
func (l Loan) TermsOffset() int                                 { return l.termsOffset }
func (l Loan) Installment() decimal.Decimal                     { return l.installment }
func (l Loan) InstallmentPolicy() valueobject.InstallmentPolicy { return l.policy }
func (l Loan) Status() valueobject.LoanStatus                   { return l.status }
func (l Loan) RemainingPrincipal() decimal.Decimal              { return l.remainingPrincipal }
func (l Loan) Credit() decimal.Decimal                          { return l.credit }
func (l Loan) PredecessorID() string                            { return l.predecessorID }
func (l Loan) SuccessorID() string                              { return l.successorID }
func (l Loan) Version() int                                     { return l.version }
func (l Loan) CreatedAt() time.Time                             { return l.createdAt }
func (l Loan) UpdatedAt() time.Time                             { return l.updatedAt }
func (l Loan) DomainEvents() []event.DomainEvent                { return l.domainEvents }

// Installments returns a copy of the installments.
func (l Loan) Installments() []Installment {
	return copyInstallments(l.installments)
}

// ClearEvents returns a copy with an empty event list.
func (l Loan) ClearEvents() Loan {
	next := l
	next.domainEvents = nil
	return next
}

func copyInstallments(src []Installment) []Installment {
	if src == nil {
		return nil
	}
	out := make([]Installment, len(src))
	copy(out, src)
	return out
}

func copyEvents(src []event.DomainEvent) []event.DomainEvent {
	if src == nil {
		return nil
	}
	out := make([]event.DomainEvent, len(src))
	copy(out, src)
	return out
}

func addAllocations(a, b PaymentAllocation) PaymentAllocation {
	return PaymentAllocation{
		FeesPaid:      a.FeesPaid.Add(b.FeesPaid),
		InterestPaid:  a.InterestPaid.Add(b.InterestPaid),
		InsurancePaid: a.InsurancePaid.Add(b.InsurancePaid),
		PrincipalPaid: a.PrincipalPaid.Add(b.PrincipalPaid),
	}
}
