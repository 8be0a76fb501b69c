package modules

import (
	"github.com/shopspring/decimal"

	"baseintel/pkg/dextools"
)

var hundred = decimal.NewFromInt(100)

// Normalize merges the fragments of agg into a TokenRecord. Fields whose
// source endpoint is absent stay unknown. It performs no I/O.
func Normalize(agg *Aggregate) TokenRecord {
	rec := NewTokenRecord()
	if agg == nil {
		return rec
	}

	if f, ok := agg.Get(dextools.TokenInfo); ok {
		rec.Name = textAt(f.Data, "name")
		rec.Symbol = textAt(f.Data, "symbol")
		rec.Website = textAt(f.Data, "socialInfo", "website")
		rec.Twitter = textAt(f.Data, "socialInfo", "twitter")
		rec.Telegram = textAt(f.Data, "socialInfo", "telegram")
	}

	if f, ok := agg.Get(dextools.TokenPrice); ok {
		rec.Price = decimalAt(f.Data, "price")
		rec.Price1h = decimalAt(f.Data, "price1h")
		rec.Price6h = decimalAt(f.Data, "price6h")
		rec.Price24h = decimalAt(f.Data, "price24h")
		rec.PriceChange1h = PercentChange(rec.Price, rec.Price1h)
		rec.PriceChange6h = PercentChange(rec.Price, rec.Price6h)
		rec.PriceChange24h = PercentChange(rec.Price, rec.Price24h)
	}

	if f, ok := agg.Get(dextools.TokenMarket); ok {
		rec.MarketCap = decimalAt(f.Data, "mcap")
		if !rec.MarketCap.Valid {
			rec.MarketCap = decimalAt(f.Data, "fdv")
		}
		rec.Holders = decimalAt(f.Data, "holders")
	}

	if f, ok := agg.Get(dextools.TokenAudit); ok {
		for i := range rec.Audit {
			c := &rec.Audit[i]
			switch c.Kind {
			case CheckTax:
				c.Tax = taxAt(f.Data, c.Name)
			default:
				c.Flag = flagAt(f.Data, c.Name)
			}
		}
	}

	if f, ok := agg.Get(dextools.TokenLocks); ok {
		rec.LockedTokens = decimal.NewNullDecimal(sumLocks(f.Data))
	}

	if f, ok := agg.Get(dextools.PoolPrice); ok {
		rec.PoolPrice = decimalAt(f.Data, "price")
	}

	return rec
}

// PercentChange returns (current-baseline)/baseline*100 rounded to one
// decimal place. It is unknown when either side is unknown or the baseline
// is zero.
func PercentChange(current, baseline decimal.NullDecimal) decimal.NullDecimal {
	if !current.Valid || !baseline.Valid || baseline.Decimal.IsZero() {
		return decimal.NullDecimal{}
	}
	change := current.Decimal.Sub(baseline.Decimal).
		Div(baseline.Decimal).
		Mul(hundred).
		Round(1)
	return decimal.NewNullDecimal(change)
}

// sumLocks adds up locks[].amount. Entries without a usable non-negative
// amount contribute nothing; a missing list sums to zero.
func sumLocks(data map[string]any) decimal.Decimal {
	total := decimal.Zero
	v, ok := lookup(data, "locks")
	if !ok {
		return total
	}
	locks, ok := v.([]any)
	if !ok {
		return total
	}
	for _, l := range locks {
		entry, ok := l.(map[string]any)
		if !ok {
			continue
		}
		amount := decimalAt(entry, "amount")
		if !amount.Valid || amount.Decimal.IsNegative() {
			continue
		}
		total = total.Add(amount.Decimal)
	}
	return total.Truncate(0)
}
