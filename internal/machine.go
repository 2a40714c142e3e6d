package internal

import (
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/abualakbar/deliverybot/internal/model"
)

type IMachine interface {
	CreateOrUpdateOrder(customerID int64, source model.UIMessageRef, title, phone string, productLines []string) (string, bool, error)
	SelectProduct(orderID string, index int) (model.PricePrompt, error)
	RecordBuyPrice(orderID string, index int, value decimal.Decimal) error
	RecordSellPrice(supplierID int64, orderID string, index int, buy, sell decimal.Decimal) (model.NextStep, error)
	SetPlacesCount(orderID string, count int) (model.Invoice, error)
	AddProduct(orderID, name string) error
	RemoveProduct(orderID string, index int) error
	ResetAll() error
	ProfitTotal() decimal.Decimal
	GetOrderSnapshot(orderID string) (model.OrderSnapshot, error)
	ListIncompleteOrders() []model.OrderSnapshot
	ListOrdersBySupplier(supplierID int64) ([]model.OrderSnapshot, error)
	ResetSupplierWindow(supplierID int64)
}

// Machine owns every transition of an order. All mutation of the durable
// collections funnels through here (and the Sequencer), always under the
// store lock, so the invariants hold in one place.
type Machine struct {
	store  *Store
	saver  *Saver
	seq    *Sequencer
	zones  IZones
	uiRefs *UIRefs
	logger *zap.SugaredLogger
}

func NewMachine(store *Store, saver *Saver, seq *Sequencer, zones IZones, uiRefs *UIRefs, logger *zap.SugaredLogger) *Machine {
	return &Machine{store: store, saver: saver, seq: seq, zones: zones, uiRefs: uiRefs, logger: logger}
}

// CreateOrUpdateOrder registers a submission. When source matches a tracked
// submission message this is an edit of the existing order: title, phone
// and products are replaced, prices carry over to products that kept their
// name, removed products lose theirs. Otherwise a new order is created
// with a fresh id and invoice number. Reports back whether it created.
func (m *Machine) CreateOrUpdateOrder(customerID int64, source model.UIMessageRef, title, phone string, productLines []string) (string, bool, error) {
	title = strings.TrimSpace(title)
	phone = normalizePhone(phone)

	var products []string
	for _, line := range productLines {
		if p := strings.TrimSpace(line); p != "" {
			products = append(products, p)
		}
	}
	if title == "" || phone == "" || len(products) == 0 {
		return "", false, ErrEmptyOrder
	}

	m.store.mu.Lock()
	defer func() {
		m.store.mu.Unlock()
		m.saver.MarkDirty()
	}()

	if id, ok := m.uiRefs.orderForSourceLocked(source); ok {
		if order, exists := m.store.orders[id]; exists {
			m.updateLocked(order, title, phone, products)
			return id, false, nil
		}
	}

	order := &model.Order{
		ID:             newOrderID(),
		Title:          title,
		Phone:          phone,
		Products:       products,
		InvoiceNumber:  m.seq.nextLocked(),
		CustomerID:     customerID,
		CreatedAt:      time.Now().UTC(),
		CreditedProfit: decimal.Zero,
	}
	m.store.orders[order.ID] = order
	m.store.pricing[order.ID] = make([]model.ProductPrice, len(products))
	m.uiRefs.recordSourceLocked(order.ID, source)

	return order.ID, true, nil
}

// updateLocked replaces the mutable fields of an edited order. Pricing is
// carried over positionally by name: each new product takes the prices of
// the first not-yet-claimed old product with the same name.
func (m *Machine) updateLocked(order *model.Order, title, phone string, products []string) {
	old := m.store.pricing[order.ID]
	claimed := make([]bool, len(order.Products))

	next := make([]model.ProductPrice, len(products))
	for i, name := range products {
		for j, oldName := range order.Products {
			if claimed[j] || oldName != name || j >= len(old) {
				continue
			}
			next[i] = old[j]
			claimed[j] = true
			break
		}
	}

	order.Title = title
	order.Phone = phone
	order.Products = products
	// back into the pricing flow; the credited profit stays on the order
	// so a later re-finalization replaces, not repeats, its contribution
	order.FinalizedAt = time.Time{}
	m.store.pricing[order.ID] = next
}

// SelectProduct seeds a pricing conversation. Nothing transitions yet; the
// caller keeps the returned prompt in the participant session.
func (m *Machine) SelectProduct(orderID string, index int) (model.PricePrompt, error) {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()

	order, pricing, err := m.lookupLocked(orderID, index)
	if err != nil {
		return model.PricePrompt{}, err
	}

	return model.PricePrompt{
		OrderID:      orderID,
		ProductIndex: index,
		Name:         order.Products[index],
		Buy:          pricing[index].Buy,
		Sell:         pricing[index].Sell,
	}, nil
}

// RecordBuyPrice validates a buy price. The value itself stays in the
// participant session until the sell price arrives, so other components
// never observe a half-priced product.
func (m *Machine) RecordBuyPrice(orderID string, index int, value decimal.Decimal) error {
	if value.IsNegative() {
		return ErrInvalidInput
	}

	m.store.mu.Lock()
	defer m.store.mu.Unlock()

	_, _, err := m.lookupLocked(orderID, index)
	return err
}

// RecordSellPrice commits both prices atomically, claims the order for the
// supplier and reports whether the order is now fully priced.
func (m *Machine) RecordSellPrice(supplierID int64, orderID string, index int, buy, sell decimal.Decimal) (model.NextStep, error) {
	if buy.IsNegative() || sell.IsNegative() {
		return model.NextStep{}, ErrInvalidInput
	}

	m.store.mu.Lock()
	defer func() {
		m.store.mu.Unlock()
		m.saver.MarkDirty()
	}()

	order, pricing, err := m.lookupLocked(orderID, index)
	if err != nil {
		return model.NextStep{}, ErrStaleReference
	}

	pricing[index] = model.ProductPrice{Buy: &buy, Sell: &sell}
	order.SupplierID = supplierID

	remaining := 0
	for _, p := range pricing {
		if !p.Priced() {
			remaining++
		}
	}
	return model.NextStep{AllPriced: remaining == 0, Remaining: remaining}, nil
}

// SetPlacesCount finalizes the order: stores the places count, computes
// the invoice and credits the net profit. The accumulator moves by the
// difference against what this order credited before, so finalizing twice
// without an edit is a no-op and re-finalizing an edited order replaces
// its old contribution.
func (m *Machine) SetPlacesCount(orderID string, count int) (model.Invoice, error) {
	if count < 0 {
		return model.Invoice{}, ErrInvalidInput
	}

	m.store.mu.Lock()
	defer func() {
		m.store.mu.Unlock()
		m.saver.MarkDirty()
	}()

	order, exists := m.store.orders[orderID]
	if !exists {
		return model.Invoice{}, ErrNotFound
	}
	pricing := m.store.pricing[orderID]

	totalBuy, totalSell, unpriced := ProductTotals(order, pricing)
	if len(unpriced) > 0 {
		return model.Invoice{}, ErrInvalidInput
	}

	fee := HandlingFee(count)
	profit := totalSell.Sub(totalBuy).Add(fee)

	m.store.profit = m.store.profit.Add(profit.Sub(order.CreditedProfit))
	order.CreditedProfit = profit
	order.PlacesCount = count
	order.FinalizedAt = time.Now().UTC()

	deliveryFee := m.zones.DeliveryFeeFor(order.Title)

	inv := model.Invoice{
		OrderID:     order.ID,
		Number:      order.InvoiceNumber,
		Title:       order.Title,
		Phone:       order.Phone,
		PlacesCount: count,
		TotalBuy:    totalBuy,
		TotalSell:   totalSell,
		NetProfit:   profit,
		HandlingFee: fee,
		DeliveryFee: deliveryFee,
		GrandTotal:  GrandTotal(totalSell, fee, deliveryFee),
	}
	for i, name := range order.Products {
		inv.Lines = append(inv.Lines, model.InvoiceLine{
			Name:   name,
			Buy:    *pricing[i].Buy,
			Sell:   *pricing[i].Sell,
			Profit: pricing[i].Sell.Sub(*pricing[i].Buy),
		})
	}
	return inv, nil
}

func (m *Machine) AddProduct(orderID, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrInvalidInput
	}

	m.store.mu.Lock()
	defer func() {
		m.store.mu.Unlock()
		m.saver.MarkDirty()
	}()

	order, exists := m.store.orders[orderID]
	if !exists {
		return ErrNotFound
	}
	if !order.FinalizedAt.IsZero() {
		return ErrOrderFinalized
	}

	order.Products = append(order.Products, name)
	m.store.pricing[orderID] = append(m.store.pricing[orderID], model.ProductPrice{})
	return nil
}

func (m *Machine) RemoveProduct(orderID string, index int) error {
	m.store.mu.Lock()
	defer func() {
		m.store.mu.Unlock()
		m.saver.MarkDirty()
	}()

	order, pricing, err := m.lookupLocked(orderID, index)
	if err != nil {
		return err
	}
	if !order.FinalizedAt.IsZero() {
		return ErrOrderFinalized
	}

	order.Products = append(order.Products[:index], order.Products[index+1:]...)
	m.store.pricing[orderID] = append(pricing[:index], pricing[index+1:]...)
	return nil
}

// ResetAll wipes every collection, resets the invoice counter to 1 and the
// profit accumulator to 0, and flushes synchronously. The confirmation
// step lives at the caller.
func (m *Machine) ResetAll() error {
	m.store.mu.Lock()
	m.store.resetLocked()
	m.store.mu.Unlock()

	m.logger.Info("all collections reset, invoice counter back to 1")

	snap, err := m.store.Snapshot()
	if err != nil {
		return err
	}
	if err = m.store.WriteSnapshot(snap); err != nil {
		return err
	}

	// a flush that snapshotted before the reset may still land after the
	// write above; the mark queues one more flush behind it on the saver
	m.saver.MarkDirty()
	return nil
}

// ProfitTotal reports the running profit accumulator.
func (m *Machine) ProfitTotal() decimal.Decimal {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()

	return m.store.profit
}

func (m *Machine) GetOrderSnapshot(orderID string) (model.OrderSnapshot, error) {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()

	order, exists := m.store.orders[orderID]
	if !exists {
		return model.OrderSnapshot{}, ErrNotFound
	}
	return m.snapshotLocked(order), nil
}

func (m *Machine) ListIncompleteOrders() []model.OrderSnapshot {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()

	var out []model.OrderSnapshot
	for _, order := range m.store.orders {
		if order.FinalizedAt.IsZero() {
			out = append(out, m.snapshotLocked(order))
		}
	}
	sortSnapshots(out)
	return out
}

// ListOrdersBySupplier reports the supplier's finalized orders since their
// report window was last reset.
func (m *Machine) ListOrdersBySupplier(supplierID int64) ([]model.OrderSnapshot, error) {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()

	since := m.store.supplierResets[supplierID]

	var out []model.OrderSnapshot
	for _, order := range m.store.orders {
		if order.SupplierID != supplierID || order.FinalizedAt.IsZero() {
			continue
		}
		if order.FinalizedAt.Before(since) {
			continue
		}
		out = append(out, m.snapshotLocked(order))
	}
	if len(out) == 0 {
		return nil, ErrNoRecords
	}
	sortSnapshots(out)
	return out, nil
}

func (m *Machine) ResetSupplierWindow(supplierID int64) {
	m.store.mu.Lock()
	m.store.supplierResets[supplierID] = time.Now().UTC()
	m.store.mu.Unlock()

	m.saver.MarkDirty()
}

func (m *Machine) lookupLocked(orderID string, index int) (*model.Order, []model.ProductPrice, error) {
	order, exists := m.store.orders[orderID]
	if !exists {
		return nil, nil, ErrNotFound
	}
	pricing := m.store.pricing[orderID]
	if index < 0 || index >= len(order.Products) || index >= len(pricing) {
		return nil, nil, ErrNotFound
	}
	return order, pricing, nil
}

// snapshotLocked deep-copies an order so readers never alias the live data.
func (m *Machine) snapshotLocked(order *model.Order) model.OrderSnapshot {
	cp := *order
	cp.Products = append([]string(nil), order.Products...)

	pricing := append([]model.ProductPrice(nil), m.store.pricing[order.ID]...)
	return model.OrderSnapshot{
		Order:   cp,
		Status:  order.Status(pricing),
		Pricing: pricing,
	}
}

func sortSnapshots(snaps []model.OrderSnapshot) {
	sort.Slice(snaps, func(i, j int) bool {
		return snaps[i].Order.CreatedAt.Before(snaps[j].Order.CreatedAt)
	})
}

func newOrderID() string {
	return uuid.NewString()[:8]
}

// normalizePhone keeps digits and a leading plus.
func normalizePhone(s string) string {
	var b strings.Builder
	for i, r := range s {
		if r >= '0' && r <= '9' || r == '+' && i == 0 {
			b.WriteRune(r)
		}
	}
	return b.String()
}
