package model

import "github.com/shopspring/decimal"

// Dues are the per-bucket amounts owed on an installment.
type Dues struct {
	Fees      decimal.Decimal
	Interest  decimal.Decimal
	Insurance decimal.Decimal
	Principal decimal.Decimal
}

// Total returns the sum of all buckets.
func (d Dues) Total() decimal.Decimal {
	return d.Fees.Add(d.Interest).Add(d.Insurance).Add(d.Principal)
}

// Sub returns d minus the amounts already paid, floored at zero per bucket.
func (d Dues) Sub(paid Dues) Dues {
	return Dues{
		Fees:      clampAmount(d.Fees.Sub(paid.Fees), d.Fees),
		Interest:  clampAmount(d.Interest.Sub(paid.Interest), d.Interest),
		Insurance: clampAmount(d.Insurance.Sub(paid.Insurance), d.Insurance),
		Principal: clampAmount(d.Principal.Sub(paid.Principal), d.Principal),
	}
}

// Add returns the bucket-wise sum of d and other.
func (d Dues) Add(other Dues) Dues {
	return Dues{
		Fees:      d.Fees.Add(other.Fees),
		Interest:  d.Interest.Add(other.Interest),
		Insurance: d.Insurance.Add(other.Insurance),
		Principal: d.Principal.Add(other.Principal),
	}
}

// PaymentAllocation is the split of a cash amount across the buckets of a
// single installment. Remainder is the cash left once every bucket is covered.
type PaymentAllocation struct {
	FeesPaid      decimal.Decimal
	InterestPaid  decimal.Decimal
	InsurancePaid decimal.Decimal
	PrincipalPaid decimal.Decimal
	Remainder     decimal.Decimal
}

// Applied returns the cash consumed by the installment.
func (a PaymentAllocation) Applied() decimal.Decimal {
	return a.FeesPaid.Add(a.InterestPaid).Add(a.InsurancePaid).Add(a.PrincipalPaid)
}

// Paid returns the allocation as Dues, for accumulation on an installment.
func (a PaymentAllocation) Paid() Dues {
	return Dues{
		Fees:      a.FeesPaid,
		Interest:  a.InterestPaid,
		Insurance: a.InsurancePaid,
		Principal: a.PrincipalPaid,
	}
}

// Allocate splits cash over dues in the fixed order fees, interest,
// insurance, principal. Each bucket takes min(due, cash left). Negative dues
// count as zero, and a non-positive cash amount allocates nothing.
func Allocate(cash decimal.Decimal, dues Dues) PaymentAllocation {
	if !cash.IsPositive() {
		return PaymentAllocation{Remainder: cash}
	}

	left := cash
	take := func(due decimal.Decimal) decimal.Decimal {
		if !due.IsPositive() || !left.IsPositive() {
			return decimal.Zero
		}
		paid := decimal.Min(due, left).Round(2)
		if paid.GreaterThan(left) {
			paid = left
		}
		left = left.Sub(paid)
		return paid
	}

	alloc := PaymentAllocation{
		FeesPaid:      take(dues.Fees),
		InterestPaid:  take(dues.Interest),
		InsurancePaid: take(dues.Insurance),
		PrincipalPaid: take(dues.Principal),
	}
	alloc.Remainder = cash.Sub(alloc.Applied())
	return alloc
}
