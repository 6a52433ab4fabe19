package domain

import "github.com/shopspring/decimal"

// Pricing доставка и налог поверх суммы корзины
type Pricing struct {
	FreeShippingOver decimal.Decimal
	ShippingFee      decimal.Decimal
	TaxRate          decimal.Decimal
}

// DefaultPricing бесплатная доставка от 100 (строго больше), иначе 10; налог 15%
func DefaultPricing() Pricing {
	return Pricing{
		FreeShippingOver: decimal.NewFromInt(100),
		ShippingFee:      decimal.NewFromInt(10),
		TaxRate:          decimal.RequireFromString("0.15"),
	}
}

type Totals struct {
	TotalPrice    float64
	ShippingPrice float64
	TaxPrice      float64
	TotalAmount   float64
}

func (p Pricing) Compute(itemsPrice float64) Totals {
	items := decimal.NewFromFloat(itemsPrice).Round(2)
	shipping := p.ShippingFee
	if items.GreaterThan(p.FreeShippingOver) {
		shipping = decimal.Zero
	}
	tax := items.Mul(p.TaxRate).Round(2)
	return Totals{
		TotalPrice:    RoundMoney(items),
		ShippingPrice: RoundMoney(shipping),
		TaxPrice:      RoundMoney(tax),
		TotalAmount:   RoundMoney(items.Add(shipping).Add(tax)),
	}
}

// ToMinorUnits сумма в минимальных единицах валюты (пайсы, центы)
func ToMinorUnits(amount float64) int64 {
	return decimal.NewFromFloat(amount).Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

func RoundMoney(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}

func SumMoney(amounts ...float64) float64 {
	sum := decimal.Zero
	for _, a := range amounts {
		sum = sum.Add(decimal.NewFromFloat(a))
	}
	return RoundMoney(sum)
}
