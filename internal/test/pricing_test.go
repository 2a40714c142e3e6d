package test

import (
	"github.com/shopspring/decimal"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"github.com/abualakbar/deliverybot/internal"
	"github.com/abualakbar/deliverybot/internal/model"
)

func dec(v int64) decimal.Decimal {
	return decimal.NewFromInt(v)
}

func price(buy, sell int64) model.ProductPrice {
	b, s := dec(buy), dec(sell)
	return model.ProductPrice{Buy: &b, Sell: &s}
}

var _ = Describe("Pricing", func() {
	Context("HandlingFee", func() {
		It("follows the tier table", func() {
			for places, want := range map[int]int64{
				0:  0,
				1:  0,
				2:  0,
				3:  1,
				6:  4,
				10: 8,
				15: 8,
			} {
				Expect(internal.HandlingFee(places).String()).To(Equal(dec(want).String()),
					"places=%d", places)
			}
		})
	})

	Context("ProductTotals", func() {
		It("sums only fully priced products and flags the rest", func() {
			order := &model.Order{Products: []string{"Pepsi", "Chips", "Water"}}
			pricing := []model.ProductPrice{
				price(500, 750),
				{},
				price(250, 400),
			}

			totalBuy, totalSell, unpriced := internal.ProductTotals(order, pricing)
			Expect(totalBuy.String()).To(Equal("750"))
			Expect(totalSell.String()).To(Equal("1150"))
			Expect(unpriced).To(Equal([]int{1}))
		})

		It("treats a short pricing slice as unpriced tail", func() {
			order := &model.Order{Products: []string{"Pepsi", "Chips"}}
			pricing := []model.ProductPrice{price(500, 750)}

			_, _, unpriced := internal.ProductTotals(order, pricing)
			Expect(unpriced).To(Equal([]int{1}))
		})
	})

	Context("GrandTotal", func() {
		It("adds sell total, handling fee and delivery fee", func() {
			got := internal.GrandTotal(dec(1150), dec(1), dec(3))
			Expect(got.String()).To(Equal("1154"))
		})
	})
})
