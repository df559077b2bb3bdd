package flights

import (
	"context"
	"strings"

	"go.uber.org/zap"
)

var builtinCarriers = map[string]string{
	"DL": "Delta Airlines",
	"AA": "American Airlines",
	"UA": "United Airlines",
}

// CarrierNames lists carrier code -> display name from an external store.
type CarrierNames interface {
	Names(ctx context.Context) (map[string]string, error)
}

// CarrierTable maps validating carrier codes to display names. It is
// read-only after construction.
type CarrierTable struct {
	names map[string]string
}

// NewCarrierTable starts from the built-in codes; extra entries override them.
func NewCarrierTable(extra map[string]string) *CarrierTable {
	names := make(map[string]string, len(builtinCarriers)+len(extra))
	for code, name := range builtinCarriers {
		names[code] = name
	}
	for code, name := range extra {
		names[strings.ToUpper(code)] = name
	}
	return &CarrierTable{names: names}
}

// LoadCarrierTable extends the built-in table from store. A failing store
// leaves only the built-in codes.
func LoadCarrierTable(ctx context.Context, store CarrierNames, logger *zap.Logger) *CarrierTable {
	if store == nil {
		return NewCarrierTable(nil)
	}
	extra, err := store.Names(ctx)
	if err != nil {
		logger.Warn("Carrier table unavailable, using built-in names", zap.Error(err))
		return NewCarrierTable(nil)
	}
	logger.Info("Carrier table loaded", zap.Int("carriers", len(extra)))
	return NewCarrierTable(extra)
}

// DisplayName falls back to the raw code when unmapped.
func (t *CarrierTable) DisplayName(code string) string {
	if name, ok := t.names[strings.ToUpper(code)]; ok {
		return name
	}
	return code
}
