package internal

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/abualakbar/deliverybot/internal/model"
)

const (
	ordersFile         = "orders.json"
	pricingFile        = "pricing.json"
	invoiceFile        = "invoice.json"
	profitFile         = "profit.json"
	uiRefsFile         = "uirefs.json"
	supplierResetsFile = "supplier_resets.json"
)

// uiRefState groups the picker references (per order) with the reverse
// lookup from a submission message to its order.
type uiRefState struct {
	Pickers map[string]model.UIMessageRef `json:"pickers"`
	Sources map[string]string             `json:"sources"`
}

// Store owns the durable collections and the single lock every mutator
// shares. Files on disk are only ever written by WriteSnapshot; between
// flushes the in-memory maps are the source of truth.
type Store struct {
	mu     sync.Mutex
	dir    string
	logger *zap.SugaredLogger

	orders         map[string]*model.Order
	pricing        map[string][]model.ProductPrice
	invoiceNext    int64
	profit         decimal.Decimal
	uiRefs         uiRefState
	supplierResets map[int64]time.Time
}

func NewStore(dir string, logger *zap.SugaredLogger) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	s := &Store{
		dir:    dir,
		logger: logger,
	}
	s.resetLocked()
	s.load()
	return s, nil
}

// resetLocked reinstates the empty defaults. Callers hold s.mu (or, during
// construction, are the only reference).
func (s *Store) resetLocked() {
	s.orders = make(map[string]*model.Order)
	s.pricing = make(map[string][]model.ProductPrice)
	s.invoiceNext = 1
	s.profit = decimal.Zero
	s.uiRefs = uiRefState{
		Pickers: make(map[string]model.UIMessageRef),
		Sources: make(map[string]string),
	}
	s.supplierResets = make(map[int64]time.Time)
}

// load reads every collection from disk. A missing or corrupt file loads
// as its empty default so one bad collection never blocks the others.
func (s *Store) load() {
	if !s.loadCollection(ordersFile, &s.orders) {
		s.orders = make(map[string]*model.Order)
	}
	if !s.loadCollection(pricingFile, &s.pricing) {
		s.pricing = make(map[string][]model.ProductPrice)
	}
	if !s.loadCollection(invoiceFile, &s.invoiceNext) {
		s.invoiceNext = 1
	}
	if !s.loadCollection(profitFile, &s.profit) {
		s.profit = decimal.Zero
	}
	if !s.loadCollection(uiRefsFile, &s.uiRefs) {
		s.uiRefs = uiRefState{}
	}
	if !s.loadCollection(supplierResetsFile, &s.supplierResets) {
		s.supplierResets = make(map[int64]time.Time)
	}

	if s.invoiceNext < 1 {
		s.invoiceNext = 1
	}
	if s.orders == nil {
		s.orders = make(map[string]*model.Order)
	}
	if s.pricing == nil {
		s.pricing = make(map[string][]model.ProductPrice)
	}
	if s.supplierResets == nil {
		s.supplierResets = make(map[int64]time.Time)
	}
	if s.uiRefs.Pickers == nil {
		s.uiRefs.Pickers = make(map[string]model.UIMessageRef)
	}
	if s.uiRefs.Sources == nil {
		s.uiRefs.Sources = make(map[string]string)
	}
}

// loadCollection reports whether target still holds usable data. Unmarshal
// can bail out of a map mid-entry on a type error, so on false the caller
// must reinstate the empty default instead of keeping the half-decoded rest.
func (s *Store) loadCollection(name string, target interface{}) bool {
	b, err := os.ReadFile(filepath.Join(s.dir, name))
	if os.IsNotExist(err) {
		return true
	}
	if err != nil {
		s.logger.Errorf("read %s: %s", name, err.Error())
		return true
	}

	if err = json.Unmarshal(b, target); err != nil {
		s.logger.Errorf("decode %s, starting with empty collection: %s", name, err.Error())
		return false
	}
	return true
}

// Snapshot serializes every collection under the lock and returns the
// encoded bytes keyed by file name. The actual disk write happens outside
// the lock, on the saver's goroutine.
func (s *Store) Snapshot() (map[string][]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := make(map[string][]byte, 6)
	for name, v := range map[string]interface{}{
		ordersFile:         s.orders,
		pricingFile:        s.pricing,
		invoiceFile:        s.invoiceNext,
		profitFile:         s.profit,
		uiRefsFile:         s.uiRefs,
		supplierResetsFile: s.supplierResets,
	} {
		b, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return nil, err
		}
		snap[name] = b
	}
	return snap, nil
}

// WriteSnapshot writes each collection via a temp file in the same
// directory followed by a rename, so a crash mid-write leaves the previous
// durable state intact.
func (s *Store) WriteSnapshot(snap map[string][]byte) error {
	for name, b := range snap {
		if err := s.writeAtomic(name, b); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) writeAtomic(name string, b []byte) error {
	tmp, err := os.CreateTemp(s.dir, name+".tmp-")
	if err != nil {
		return err
	}

	if _, err = tmp.Write(b); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err = tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}

	return os.Rename(tmp.Name(), filepath.Join(s.dir, name))
}
