package dashboard

import (
	"fmt"
	"strings"
)

// FormatInt formats an integer with comma separators.
func FormatInt(n int64) string {
	neg := n < 0
	if neg {
		n = -n
	}
	s := fmt.Sprintf("%d", n)
	if len(s) > 3 {
		var b strings.Builder
		start := len(s) % 3
		if start > 0 {
			b.WriteString(s[:start])
		}
		for i := start; i < len(s); i += 3 {
			if b.Len() > 0 {
				b.WriteByte(',')
			}
			b.WriteString(s[i : i+3])
		}
		s = b.String()
	}
	if neg {
		return "-" + s
	}
	return s
}

// FormatVolume formats a share count with B/M/K suffixes.
func FormatVolume(n int64) string {
	v := float64(n)
	switch {
	case v >= 1e9:
		return fmt.Sprintf("%.2fB", v/1e9)
	case v >= 1e6:
		return fmt.Sprintf("%.2fM", v/1e6)
	case v >= 1e3:
		return fmt.Sprintf("%.1fK", v/1e3)
	default:
		return FormatInt(n)
	}
}

// FormatPrice formats a price value, or "-" for zero.
func FormatPrice(p float64) string {
	if p == 0 {
		return "-"
	}
	return fmt.Sprintf("%.2f", p)
}

// FormatChange renders a signed point change with its percent, e.g.
// "+1.23 (+0.45%)".
func FormatChange(change, pct float64) string {
	return fmt.Sprintf("%s (%s)", signed(change, "%.2f"), FormatPercent(pct))
}

// FormatPercent renders a signed percentage. Values at or above 100% drop
// the decimal to keep column width compact.
func FormatPercent(pct float64) string {
	if pct >= 100 || pct <= -100 {
		return signed(pct, "%.0f") + "%"
	}
	return signed(pct, "%.2f") + "%"
}

func signed(v float64, verb string) string {
	s := fmt.Sprintf(verb, v)
	if v > 0 {
		return "+" + s
	}
	return s
}

// FormatMoney renders a statement figure as compact dollars, e.g. "$94.68B"
// or "-$1.20M".
func FormatMoney(v float64) string {
	sign := ""
	if v < 0 {
		sign = "-"
		v = -v
	}
	switch {
	case v >= 1e12:
		return fmt.Sprintf("%s$%.2fT", sign, v/1e12)
	case v >= 1e9:
		return fmt.Sprintf("%s$%.2fB", sign, v/1e9)
	case v >= 1e6:
		return fmt.Sprintf("%s$%.2fM", sign, v/1e6)
	case v >= 1e3:
		return fmt.Sprintf("%s$%.1fK", sign, v/1e3)
	default:
		return fmt.Sprintf("%s$%.2f", sign, v)
	}
}

// FormatShares formats an offering share count with a suffix, or "-" when
// the filing omits it.
func FormatShares(n float64) string {
	switch {
	case n <= 0:
		return "-"
	case n >= 1e9:
		return fmt.Sprintf("%.2fB", n/1e9)
	case n >= 1e6:
		return fmt.Sprintf("%.2fM", n/1e6)
	case n >= 1e3:
		return fmt.Sprintf("%.1fK", n/1e3)
	default:
		return fmt.Sprintf("%.0f", n)
	}
}
