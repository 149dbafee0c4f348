package pricing

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/sangkips/bookshop-pos/pkg/apperror"
)

// System configuration keys read by the pricing engine
const (
	KeyUnitRate          = "UNIT_RATE"
	KeyTaxRate           = "TAX_RATE"
	KeyDeliveryCharge    = "DELIVERY_CHARGE"
	KeyLowStockThreshold = "LOW_STOCK_THRESHOLD"
)

// TierKeys returns the threshold and percent keys of discount level n (1-based).
func TierKeys(n int) (threshold, percent string) {
	return fmt.Sprintf("DISCOUNT_LEVEL_%d_THRESHOLD", n), fmt.Sprintf("DISCOUNT_LEVEL_%d_PERCENT", n)
}

// TierCount is the number of configured discount levels.
const TierCount = 3

// Tier grants Rate (a fraction, 0.05 = 5%) once Threshold units have been consumed.
type Tier struct {
	Threshold int             `json:"threshold"`
	Rate      decimal.Decimal `json:"rate"`
}

// Snapshot is an immutable view of the pricing configuration.
type Snapshot struct {
	UnitRate          decimal.Decimal `json:"unit_rate"`
	TaxRate           decimal.Decimal `json:"tax_rate"`
	DeliveryCharge    decimal.Decimal `json:"delivery_charge"`
	Tiers             []Tier          `json:"tiers"`
	LowStockThreshold int             `json:"low_stock_threshold"`
}

// DefaultSettings are the values a fresh installation is seeded with.
func DefaultSettings() map[string]string {
	return map[string]string{
		KeyUnitRate:                  "2.50",
		KeyTaxRate:                   "0.10",
		KeyDeliveryCharge:            "5.00",
		"DISCOUNT_LEVEL_1_THRESHOLD": "20",
		"DISCOUNT_LEVEL_1_PERCENT":   "0.05",
		"DISCOUNT_LEVEL_2_THRESHOLD": "50",
		"DISCOUNT_LEVEL_2_PERCENT":   "0.10",
		"DISCOUNT_LEVEL_3_THRESHOLD": "100",
		"DISCOUNT_LEVEL_3_PERCENT":   "0.15",
		KeyLowStockThreshold:         "5",
	}
}

// DefaultSnapshot is the snapshot built from DefaultSettings.
func DefaultSnapshot() Snapshot {
	snap, err := SnapshotFromSettings(DefaultSettings())
	if err != nil {
		panic(err)
	}
	return snap
}

// NumericKeys lists every setting that must parse as a number.
func NumericKeys() []string {
	keys := []string{KeyUnitRate, KeyTaxRate, KeyDeliveryCharge, KeyLowStockThreshold}
	for n := 1; n <= TierCount; n++ {
		threshold, percent := TierKeys(n)
		keys = append(keys, threshold, percent)
	}
	return keys
}

// SnapshotFromSettings parses raw key/value settings.
// A missing or unparseable key is a configuration error, never a silent zero.
func SnapshotFromSettings(values map[string]string) (Snapshot, error) {
	var snap Snapshot
	var err error

	if snap.UnitRate, err = decimalSetting(values, KeyUnitRate); err != nil {
		return Snapshot{}, err
	}
	if snap.TaxRate, err = decimalSetting(values, KeyTaxRate); err != nil {
		return Snapshot{}, err
	}
	if snap.DeliveryCharge, err = decimalSetting(values, KeyDeliveryCharge); err != nil {
		return Snapshot{}, err
	}
	if snap.LowStockThreshold, err = intSetting(values, KeyLowStockThreshold); err != nil {
		return Snapshot{}, err
	}

	snap.Tiers = make([]Tier, 0, TierCount)
	for n := 1; n <= TierCount; n++ {
		thresholdKey, percentKey := TierKeys(n)
		threshold, err := intSetting(values, thresholdKey)
		if err != nil {
			return Snapshot{}, err
		}
		rate, err := decimalSetting(values, percentKey)
		if err != nil {
			return Snapshot{}, err
		}
		if rate.GreaterThan(decimal.NewFromInt(1)) {
			return Snapshot{}, apperror.NewConfigurationError(percentKey, "must be a fraction between 0 and 1")
		}
		snap.Tiers = append(snap.Tiers, Tier{Threshold: threshold, Rate: rate})
	}
	sort.SliceStable(snap.Tiers, func(i, j int) bool {
		return snap.Tiers[i].Threshold < snap.Tiers[j].Threshold
	})

	return snap, nil
}

// ValidateSetting checks a single value the way SnapshotFromSettings would.
// Keys the pricing engine does not read are accepted as is.
func ValidateSetting(key, value string) error {
	for _, numeric := range NumericKeys() {
		if numeric != key {
			continue
		}
		values := map[string]string{key: value}
		if key == KeyLowStockThreshold || strings.HasSuffix(key, "_THRESHOLD") {
			_, err := intSetting(values, key)
			return err
		}
		d, err := decimalSetting(values, key)
		if err == nil && strings.HasSuffix(key, "_PERCENT") && d.GreaterThan(decimal.NewFromInt(1)) {
			return apperror.NewConfigurationError(key, "must be a fraction between 0 and 1")
		}
		return err
	}
	return nil
}

func decimalSetting(values map[string]string, key string) (decimal.Decimal, error) {
	raw, ok := values[key]
	if !ok || strings.TrimSpace(raw) == "" {
		return decimal.Zero, apperror.NewConfigurationError(key, "missing")
	}
	d, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Zero, apperror.NewConfigurationError(key, fmt.Sprintf("%q is not a number", raw))
	}
	if d.IsNegative() {
		return decimal.Zero, apperror.NewConfigurationError(key, "must not be negative")
	}
	return d, nil
}

func intSetting(values map[string]string, key string) (int, error) {
	raw, ok := values[key]
	if !ok || strings.TrimSpace(raw) == "" {
		return 0, apperror.NewConfigurationError(key, "missing")
	}
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, apperror.NewConfigurationError(key, fmt.Sprintf("%q is not an integer", raw))
	}
	if n < 0 {
		return 0, apperror.NewConfigurationError(key, "must not be negative")
	}
	return n, nil
}
