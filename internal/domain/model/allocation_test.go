package model_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/bibbank/debt-service/internal/domain/model"
)

func TestAllocate_Waterfall(t *testing.T) {
	dues := model.Dues{
		Fees:      dec("200"),
		Interest:  dec("500"),
		Insurance: dec("100"),
		Principal: dec("300"),
	}

	alloc := model.Allocate(dec("1000"), dues)

	assert.True(t, alloc.FeesPaid.Equal(dec("200")))
	assert.True(t, alloc.InterestPaid.Equal(dec("500")))
	assert.True(t, alloc.InsurancePaid.Equal(dec("100")))
	assert.True(t, alloc.PrincipalPaid.Equal(dec("200")))
	assert.True(t, alloc.Remainder.IsZero())
}

func TestAllocate_Cases(t *testing.T) {
	tests := []struct {
		name      string
		cash      string
		dues      model.Dues
		fees      string
		interest  string
		insurance string
		principal string
		remainder string
	}{
		{
			name: "fees before interest",
			cash: "150",
			dues: model.Dues{Fees: dec("100"), Interest: dec("100"), Principal: dec("100")},
			fees: "100", interest: "50", insurance: "0", principal: "0", remainder: "0",
		},
		{
			name: "overpayment leaves remainder",
			cash: "1000",
			dues: model.Dues{Interest: dec("40.5"), Insurance: dec("9.5"), Principal: dec("250")},
			fees: "0", interest: "40.5", insurance: "9.5", principal: "250", remainder: "700",
		},
		{
			name: "negative dues count as zero",
			cash: "100",
			dues: model.Dues{Fees: dec("-20"), Interest: dec("30"), Principal: dec("-5")},
			fees: "0", interest: "30", insurance: "0", principal: "0", remainder: "70",
		},
		{
			name: "zero cash",
			cash: "0",
			dues: model.Dues{Interest: dec("30")},
			fees: "0", interest: "0", insurance: "0", principal: "0", remainder: "0",
		},
		{
			name: "negative cash",
			cash: "-10",
			dues: model.Dues{Interest: dec("30")},
			fees: "0", interest: "0", insurance: "0", principal: "0", remainder: "-10",
		},
		{
			name: "nothing due",
			cash: "42.17",
			dues: model.Dues{},
			fees: "0", interest: "0", insurance: "0", principal: "0", remainder: "42.17",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			alloc := model.Allocate(dec(tc.cash), tc.dues)

			assert.True(t, alloc.FeesPaid.Equal(dec(tc.fees)), "fees %s", alloc.FeesPaid)
			assert.True(t, alloc.InterestPaid.Equal(dec(tc.interest)), "interest %s", alloc.InterestPaid)
			assert.True(t, alloc.InsurancePaid.Equal(dec(tc.insurance)), "insurance %s", alloc.InsurancePaid)
			assert.True(t, alloc.PrincipalPaid.Equal(dec(tc.principal)), "principal %s", alloc.PrincipalPaid)
			assert.True(t, alloc.Remainder.Equal(dec(tc.remainder)), "remainder %s", alloc.Remainder)
		})
	}
}

func TestAllocate_Conservation(t *testing.T) {
	dues := model.Dues{
		Fees:      dec("12.34"),
		Interest:  dec("456.78"),
		Insurance: dec("9.99"),
		Principal: dec("1500"),
	}

	for cents := int64(1); cents <= 250_000; cents += 1_337 {
		cash := decimal.New(cents, -2)
		alloc := model.Allocate(cash, dues)

		assert.True(t, alloc.Applied().Add(alloc.Remainder).Equal(cash), "cash %s not conserved", cash)
		assert.False(t, alloc.FeesPaid.GreaterThan(dues.Fees))
		assert.False(t, alloc.InterestPaid.GreaterThan(dues.Interest))
		assert.False(t, alloc.InsurancePaid.GreaterThan(dues.Insurance))
		assert.False(t, alloc.PrincipalPaid.GreaterThan(dues.Principal))
		assert.False(t, alloc.Remainder.IsNegative())
		if alloc.InterestPaid.IsPositive() {
			assert.True(t, alloc.FeesPaid.Equal(dues.Fees), "interest paid before fees were covered")
		}
		if alloc.PrincipalPaid.IsPositive() {
			assert.True(t, alloc.InsurancePaid.Equal(dues.Insurance), "principal paid before insurance was covered")
		}
	}
}

func TestDues_Sub(t *testing.T) {
	due := model.Dues{Fees: dec("10"), Interest: dec("20"), Insurance: dec("5"), Principal: dec("100")}
	paid := model.Dues{Fees: dec("10"), Interest: dec("25"), Principal: dec("40")}

	left := due.Sub(paid)

	assert.True(t, left.Fees.IsZero())
	assert.True(t, left.Interest.IsZero())
	assert.True(t, left.Insurance.Equal(dec("5")))
	assert.True(t, left.Principal.Equal(dec("60")))
	assert.True(t, left.Total().Equal(dec("65")))
}
