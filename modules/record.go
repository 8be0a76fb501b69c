package modules

import (
	"github.com/shopspring/decimal"
)

// Placeholder is rendered for every unknown value.
const Placeholder = "N/A"

// Text is a string field that may be unknown.
type Text struct {
	String string
	Valid  bool
}

// KnownText returns a valid Text; an empty string stays unknown.
func KnownText(s string) Text {
	return Text{String: s, Valid: s != ""}
}

// Or returns the value, or def when unknown.
func (t Text) Or(def string) string {
	if !t.Valid {
		return def
	}
	return t.String
}

// Flag is a yes/no audit answer that may be unknown.
type Flag int8

const (
	FlagUnknown Flag = iota
	FlagNo
	FlagYes
)

func (f Flag) String() string {
	switch f {
	case FlagYes:
		return "yes"
	case FlagNo:
		return "no"
	default:
		return Placeholder
	}
}

// CheckKind tells how an audit check is valued.
type CheckKind int

const (
	CheckFlag CheckKind = iota
	CheckTax
)

// AuditCheck is one named entry of the audit block.
type AuditCheck struct {
	Name string
	Kind CheckKind
	Flag Flag
	Tax  decimal.NullDecimal
}

// Known reports whether the check has a value.
func (c AuditCheck) Known() bool {
	if c.Kind == CheckTax {
		return c.Tax.Valid
	}
	return c.Flag != FlagUnknown
}

// Value renders the check's value.
func (c AuditCheck) Value() string {
	if c.Kind == CheckTax {
		if !c.Tax.Valid {
			return Placeholder
		}
		return c.Tax.Decimal.String()
	}
	return c.Flag.String()
}

// auditChecks is the fixed order of the audit block.
var auditChecks = []struct {
	name string
	kind CheckKind
}{
	{"isOpenSource", CheckFlag},
	{"isHoneypot", CheckFlag},
	{"isMintable", CheckFlag},
	{"isProxy", CheckFlag},
	{"slippageModifiable", CheckFlag},
	{"isBlacklisted", CheckFlag},
	{"sellTax", CheckTax},
	{"buyTax", CheckTax},
	{"isContractRenounced", CheckFlag},
	{"isPotentiallyScam", CheckFlag},
}

// TokenRecord is the merged view of one token for one request. The zero
// value of every field means unknown; use NewTokenRecord so the audit block
// is populated with its fixed keys.
type TokenRecord struct {
	Name     Text
	Symbol   Text
	Website  Text
	Twitter  Text
	Telegram Text

	Price     decimal.NullDecimal
	Price1h   decimal.NullDecimal
	Price6h   decimal.NullDecimal
	Price24h  decimal.NullDecimal
	MarketCap decimal.NullDecimal
	Holders   decimal.NullDecimal
	PoolPrice decimal.NullDecimal

	// LockedTokens is a non-negative whole number.
	LockedTokens decimal.NullDecimal

	PriceChange1h  decimal.NullDecimal
	PriceChange6h  decimal.NullDecimal
	PriceChange24h decimal.NullDecimal

	Audit []AuditCheck
}

// NewTokenRecord returns a record with every field unknown.
func NewTokenRecord() TokenRecord {
	audit := make([]AuditCheck, len(auditChecks))
	for i, c := range auditChecks {
		audit[i] = AuditCheck{Name: c.name, Kind: c.kind}
	}
	return TokenRecord{Audit: audit}
}
