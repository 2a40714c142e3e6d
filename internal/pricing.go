package internal

import (
	"github.com/shopspring/decimal"

	"github.com/abualakbar/deliverybot/internal/model"
)

// handlingFeeTable maps places count to the surcharge in dinars. Counts of
// ten and above are capped at eight. Business rule, keep the table literal.
var handlingFeeTable = map[int]int64{
	0: 0,
	1: 0,
	2: 0,
	3: 1,
	4: 2,
	5: 3,
	6: 4,
	7: 5,
	8: 6,
	9: 7,
}

const handlingFeeCap = 8

// ProductTotals sums buy and sell over the fully priced products only.
// Unpriced positions contribute nothing and are reported back by index so
// the caller can flag them.
func ProductTotals(order *model.Order, pricing []model.ProductPrice) (totalBuy, totalSell decimal.Decimal, unpriced []int) {
	totalBuy, totalSell = decimal.Zero, decimal.Zero

	for i := range order.Products {
		if i >= len(pricing) || !pricing[i].Priced() {
			unpriced = append(unpriced, i)
			continue
		}
		totalBuy = totalBuy.Add(*pricing[i].Buy)
		totalSell = totalSell.Add(*pricing[i].Sell)
	}
	return totalBuy, totalSell, unpriced
}

func HandlingFee(placesCount int) decimal.Decimal {
	if placesCount >= 10 {
		return decimal.NewFromInt(handlingFeeCap)
	}
	fee, ok := handlingFeeTable[placesCount]
	if !ok {
		return decimal.Zero
	}
	return decimal.NewFromInt(fee)
}

func GrandTotal(totalSell, handlingFee, deliveryFee decimal.Decimal) decimal.Decimal {
	return totalSell.Add(handlingFee).Add(deliveryFee)
}
