package internal

import (
	"encoding/json"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type IZones interface {
	DeliveryFeeFor(title string) decimal.Decimal
}

// Zones resolves a delivery fee from the customer title by substring match
// against the configured zone names. The zones file is maintained by hand,
// so a missing or broken file just means an empty table and fee 0.
type Zones struct {
	path   string
	logger *zap.SugaredLogger

	mu    sync.RWMutex
	fees  map[string]decimal.Decimal
	names []string
}

func NewZones(path string, logger *zap.SugaredLogger) *Zones {
	z := &Zones{path: path, logger: logger}
	z.Reload()
	return z
}

func (z *Zones) Reload() {
	fees := make(map[string]decimal.Decimal)

	b, err := os.ReadFile(z.path)
	if err != nil {
		z.logger.Errorf("read zones file %s: %s", z.path, err.Error())
	} else if err = json.Unmarshal(b, &fees); err != nil {
		z.logger.Errorf("decode zones file %s: %s", z.path, err.Error())
		fees = make(map[string]decimal.Decimal)
	}

	// longest name first, so a short zone never shadows a more specific one
	names := make([]string, 0, len(fees))
	for name := range fees {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		return len(names[i]) > len(names[j])
	})

	z.mu.Lock()
	z.fees = fees
	z.names = names
	z.mu.Unlock()

	z.logger.Infof("loaded %d delivery zones", len(fees))
}

func (z *Zones) DeliveryFeeFor(title string) decimal.Decimal {
	z.mu.RLock()
	defer z.mu.RUnlock()

	for _, name := range z.names {
		if strings.Contains(title, name) {
			return z.fees[name]
		}
	}
	return decimal.Zero
}
