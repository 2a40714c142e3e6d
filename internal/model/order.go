package model

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	OrderStatusDraft           = "DRAFT"
	OrderStatusPartiallyPriced = "PARTIALLY_PRICED"
	OrderStatusAwaitingPlaces  = "AWAITING_PLACES"
	OrderStatusFinalized       = "FINALIZED"
)

type Order struct {
	ID             string          `json:"id"`
	Title          string          `json:"title"`
	Phone          string          `json:"phone"`
	Products       []string        `json:"products"`
	PlacesCount    int             `json:"placesCount"`
	InvoiceNumber  int64           `json:"invoiceNumber"`
	SupplierID     int64           `json:"supplierID"`
	CustomerID     int64           `json:"customerID"`
	CreatedAt      time.Time       `json:"createdAt"`
	FinalizedAt    time.Time       `json:"finalizedAt,omitempty"`
	CreditedProfit decimal.Decimal `json:"creditedProfit"`
}

// ProductPrice holds the prices for one positional product of an order.
// The product is priced only when both values are present; a buy price on
// its own is never visible here, it waits in the conversation session.
type ProductPrice struct {
	Buy  *decimal.Decimal `json:"buy,omitempty"`
	Sell *decimal.Decimal `json:"sell,omitempty"`
}

func (p ProductPrice) Priced() bool {
	return p.Buy != nil && p.Sell != nil
}

// Status derives the order state from its pricing slice. The pricing slice
// is kept aligned index-for-index with Products by the state machine. A
// fully priced order that is not finalized always awaits a places count;
// an edit after finalization may leave an old count behind, but the count
// is only confirmed by the finalization step itself.
func (o *Order) Status(pricing []ProductPrice) string {
	if !o.FinalizedAt.IsZero() {
		return OrderStatusFinalized
	}

	priced := 0
	for _, p := range pricing {
		if p.Priced() {
			priced++
		}
	}

	switch {
	case priced == 0:
		return OrderStatusDraft
	case priced < len(o.Products):
		return OrderStatusPartiallyPriced
	default:
		return OrderStatusAwaitingPlaces
	}
}

type OrderSnapshot struct {
	Order   Order          `json:"order"`
	Status  string         `json:"status"`
	Pricing []ProductPrice `json:"pricing"`
}

// UIMessageRef identifies a rendered chat message.
type UIMessageRef struct {
	ChatID    int64 `json:"chatID"`
	MessageID int   `json:"messageID"`
}

// PricePrompt seeds a pricing conversation for one product. Buy and Sell
// are filled when the product was priced before, so the prompt can show
// the current values.
type PricePrompt struct {
	OrderID      string           `json:"orderID"`
	ProductIndex int              `json:"productIndex"`
	Name         string           `json:"name"`
	Buy          *decimal.Decimal `json:"buy,omitempty"`
	Sell         *decimal.Decimal `json:"sell,omitempty"`
}

// NextStep tells the caller what to render after a committed price.
type NextStep struct {
	AllPriced bool `json:"allPriced"`
	Remaining int  `json:"remaining"`
}

type InvoiceLine struct {
	Name   string          `json:"name"`
	Buy    decimal.Decimal `json:"buy"`
	Sell   decimal.Decimal `json:"sell"`
	Profit decimal.Decimal `json:"profit"`
}

// Invoice is the breakdown computed at finalization, ready for rendering.
type Invoice struct {
	OrderID     string          `json:"orderID"`
	Number      int64           `json:"number"`
	Title       string          `json:"title"`
	Phone       string          `json:"phone"`
	PlacesCount int             `json:"placesCount"`
	Lines       []InvoiceLine   `json:"lines"`
	TotalBuy    decimal.Decimal `json:"totalBuy"`
	TotalSell   decimal.Decimal `json:"totalSell"`
	NetProfit   decimal.Decimal `json:"netProfit"`
	HandlingFee decimal.Decimal `json:"handlingFee"`
	DeliveryFee decimal.Decimal `json:"deliveryFee"`
	GrandTotal  decimal.Decimal `json:"grandTotal"`
}
