// Package analytics computes descriptive statistics over trade history.
// Series are addressed by typed fields rather than by matching column-name
// substrings, so a request for an unknown field fails loudly instead of
// silently picking the wrong column.
package analytics

import (
	"fmt"
	"sort"
	"time"

	"github.com/nftpulse/market-indexer/internal/store/schema"
)

// Field identifies one numeric column of the trade history
type Field int

const (
	FieldAvgPrice Field = iota
	FieldMaxPrice
	FieldMinPrice
	FieldNumTrades
	FieldUniqueBuyers
	FieldVolume
)

var fieldNames = map[Field]string{
	FieldAvgPrice:     "avg_price",
	FieldMaxPrice:     "max_price",
	FieldMinPrice:     "min_price",
	FieldNumTrades:    "num_trades",
	FieldUniqueBuyers: "unique_buyers",
	FieldVolume:       "volume",
}

// String returns the canonical column name of the field
func (f Field) String() string {
	if name, ok := fieldNames[f]; ok {
		return name
	}
	return fmt.Sprintf("Field(%d)", int(f))
}

// ParseField resolves a canonical column name into a Field. Unknown names are
// an error, never a silent fallback.
func ParseField(name string) (Field, error) {
	for field, fieldName := range fieldNames {
		if fieldName == name {
			return field, nil
		}
	}
	return 0, fmt.Errorf("unknown trade field %q", name)
}

// value extracts the field's value from a trade row
func (f Field) value(t *schema.Trade) float64 {
	switch f {
	case FieldAvgPrice:
		return t.AvgPrice
	case FieldMaxPrice:
		return t.MaxPrice
	case FieldMinPrice:
		return t.MinPrice
	case FieldNumTrades:
		return float64(t.NumTrades)
	case FieldUniqueBuyers:
		return float64(t.UniqueBuyers)
	case FieldVolume:
		return t.Volume
	default:
		return 0
	}
}

// Point is one observation of a series
type Point struct {
	Timestamp time.Time `json:"timestamp"`
	Value     float64   `json:"value"`
}

// Series is the time-ordered observations of one field for one contract
type Series struct {
	ContractID string  `json:"contract_id"`
	Field      Field   `json:"-"`
	FieldName  string  `json:"field"`
	Points     []Point `json:"points"`
}

// Values returns the series observations in time order
func (s Series) Values() []float64 {
	values := make([]float64, len(s.Points))
	for i, p := range s.Points {
		values[i] = p.Value
	}
	return values
}

// SeriesFromTrades projects one field out of a contract's trade rows. Rows
// must already be in timestamp order, as the store returns them.
func SeriesFromTrades(contractID string, field Field, trades []schema.Trade) Series {
	points := make([]Point, len(trades))
	for i := range trades {
		points[i] = Point{
			Timestamp: trades[i].Timestamp,
			Value:     field.value(&trades[i]),
		}
	}
	return Series{
		ContractID: contractID,
		Field:      field,
		FieldName:  field.String(),
		Points:     points,
	}
}

// Panel is a set of series over the same field, keyed by contract ID
type Panel struct {
	Field  Field
	Series map[string]Series
}

// PanelFromTrades projects one field out of several contracts' trade rows
func PanelFromTrades(field Field, tradesByContract map[string][]schema.Trade) Panel {
	series := make(map[string]Series, len(tradesByContract))
	for contractID, trades := range tradesByContract {
		series[contractID] = SeriesFromTrades(contractID, field, trades)
	}
	return Panel{Field: field, Series: series}
}

// ContractIDs returns the panel's contract IDs in deterministic order
func (p Panel) ContractIDs() []string {
	ids := make([]string, 0, len(p.Series))
	for id := range p.Series {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
