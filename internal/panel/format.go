package panel

import (
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.English)

// fullNumber groups thousands: 1234567 -> "1,234,567"
func fullNumber(n int64) string {
	return printer.Sprintf("%d", n)
}

// compactNumber abbreviates large counts: 1200 -> "1.2K"
func compactNumber(n int64) string {
	units := []struct {
		size   float64
		suffix string
	}{{1e9, "B"}, {1e6, "M"}, {1e3, "K"}}

	abs := n
	if abs < 0 {
		abs = -abs
	}
	for _, u := range units {
		if float64(abs) >= u.size {
			s := printer.Sprintf("%.1f", float64(n)/u.size)
			return strings.TrimSuffix(s, ".0") + u.suffix
		}
	}
	return printer.Sprintf("%d", n)
}

// currency renders cents as dollars with a fixed number of decimals
func currency(cents int64, decimals int) string {
	sign := ""
	if cents < 0 {
		sign, cents = "-", -cents
	}
	if decimals == 0 {
		return sign + "$" + printer.Sprintf("%d", (cents+50)/100)
	}
	return sign + "$" + printer.Sprintf("%.2f", float64(cents)/100)
}

// revenue shows whole dollars, or cents when the amount has any
func revenue(cents int64) string {
	if cents%100 == 0 {
		return currency(cents, 0)
	}
	return currency(cents, 2)
}

// dash renders zero as "-"
func dash(n int64, format func(int64) string) string {
	if n == 0 {
		return "-"
	}
	return format(n)
}

// period renders a payout period: "Jan 1 - Jan 31, 2026", or across years "Dec 1, 2025 - Jan 31, 2026"
func period(start, end *time.Time) string {
	switch {
	case start == nil && end == nil:
		return "-"
	case start == nil:
		return end.Format("Jan 2, 2006")
	case end == nil:
		return start.Format("Jan 2, 2006")
	case start.Year() == end.Year():
		return start.Format("Jan 2") + " - " + end.Format("Jan 2, 2006")
	default:
		return start.Format("Jan 2, 2006") + " - " + end.Format("Jan 2, 2006")
	}
}

// countryName resolves an ISO region code, falling back to the code itself
func countryName(code string) string {
	if code == "" {
		return ""
	}
	region, err := language.ParseRegion(code)
	if err != nil {
		return code
	}
	if name := display.English.Regions().Name(region); name != "" {
		return name
	}
	return code
}

// prettyURL drops the scheme and a trailing slash
func prettyURL(u string) string {
	u = strings.TrimPrefix(strings.TrimPrefix(u, "https://"), "http://")
	return strings.TrimSuffix(u, "/")
}
