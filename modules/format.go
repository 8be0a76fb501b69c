package modules

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
)

// ActionLink is a labeled external tool reference shown next to a report.
type ActionLink struct {
	Label string
	URL   string
}

// actionLinks do not depend on the token being reported.
var actionLinks = []ActionLink{
	{Label: "Maestro", URL: "https://t.me/maestro"},
	{Label: "Banana Gun", URL: "https://t.me/BananaGunSniper_bot"},
	{Label: "DEXScreener", URL: "https://dexscreener.com/base"},
	{Label: "DEXTools", URL: "https://www.dextools.io/app/en/base"},
}

var one = decimal.NewFromInt(1)

// FormatValue renders a number truncated toward zero: six decimals below
// one in magnitude, a comma-grouped integer otherwise.
func FormatValue(v decimal.NullDecimal) string {
	if !v.Valid {
		return Placeholder
	}
	d := v.Decimal
	if d.Abs().LessThan(one) {
		return d.Truncate(6).StringFixed(6)
	}
	whole := d.Truncate(0).BigInt()
	if whole.IsInt64() {
		return humanize.Comma(whole.Int64())
	}
	return humanize.BigComma(whole)
}

// FormatChange renders a percentage change with an explicit sign.
func FormatChange(v decimal.NullDecimal) string {
	if !v.Valid {
		return Placeholder
	}
	s := v.Decimal.StringFixed(1)
	if v.Decimal.IsPositive() {
		s = "+" + s
	}
	return s + "%"
}

// Render builds the Markdown report for rec and the action links that go
// with it. It does not modify rec.
func Render(rec TokenRecord, tokenID string) (string, []ActionLink) {
	var b strings.Builder

	fmt.Fprintf(&b, "Name: %s\n", rec.Name.Or(Placeholder))
	fmt.Fprintf(&b, "🔍 Symbol: %s\n", rec.Symbol.Or(Placeholder))

	fmt.Fprintf(&b, "Website: %s\n", rec.Website.Or(Placeholder))
	fmt.Fprintf(&b, "Twitter: %s\n", rec.Twitter.Or(Placeholder))
	fmt.Fprintf(&b, "Telegram: %s\n", rec.Telegram.Or(Placeholder))

	fmt.Fprintf(&b, "Px: $%s\n", FormatValue(rec.Price))
	fmt.Fprintf(&b, "Market cap: $%s\n", FormatValue(rec.MarketCap))
	fmt.Fprintf(&b, "Holders: %s\n", FormatValue(rec.Holders))
	fmt.Fprintf(&b, "Locked tokens: %s\n", FormatValue(rec.LockedTokens))
	fmt.Fprintf(&b, "Pool Price: $%s\n", FormatValue(rec.PoolPrice))

	fmt.Fprintf(&b, "Price change 1h: %s\n", FormatChange(rec.PriceChange1h))
	fmt.Fprintf(&b, "Price change 6h: %s\n", FormatChange(rec.PriceChange6h))
	fmt.Fprintf(&b, "Price change 24h: %s\n", FormatChange(rec.PriceChange24h))

	b.WriteString("\nAudit Information:\n")
	for _, c := range rec.Audit {
		fmt.Fprintf(&b, "%s: %s\n", c.Name, c.Value())
	}

	fmt.Fprintf(&b, "\n[TweetScout](https://app.tweetscout.io/search?q=%s) | ", tokenID)
	fmt.Fprintf(&b, "[DEXTools](https://www.dextools.io/app/en/base/pair-explorer/%s) | ", tokenID)
	fmt.Fprintf(&b, "[Basescan](https://basescan.org/address/%s)\n", tokenID)
	fmt.Fprintf(&b, "\n**Contract Address:** %s\n", tokenID)

	links := make([]ActionLink, len(actionLinks))
	copy(links, actionLinks)
	return b.String(), links
}

// FormatActionLinks renders links as one Markdown line, for front ends
// without inline buttons.
func FormatActionLinks(links []ActionLink) string {
	parts := make([]string, 0, len(links))
	for _, l := range links {
		parts = append(parts, fmt.Sprintf("[%s](%s)", l.Label, l.URL))
	}
	return strings.Join(parts, " | ")
}
