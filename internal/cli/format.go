package cli

import (
	"fmt"
	"math"
	"strings"
)

// FormatDollars formats an amount as US dollars with thousands separators.
func FormatDollars(amount float64) string {
	negative := amount < 0
	if negative {
		amount = -amount
	}

	str := fmt.Sprintf("%.2f", amount)
	parts := strings.Split(str, ".")

	result := "$" + groupThousands(parts[0]) + "." + parts[1]
	if negative && result != "$0.00" {
		result = "-" + result
	}
	return result
}

// groupThousands inserts a comma between every group of three digits.
func groupThousands(s string) string {
	n := len(s)
	if n <= 3 {
		return s
	}

	var b strings.Builder
	head := n % 3
	if head > 0 {
		b.WriteString(s[:head])
	}
	for i := head; i < n; i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}
	return b.String()
}

// FormatCost describes a net premium as a debit or a credit.
func FormatCost(cost float64) string {
	switch {
	case cost > 0:
		return FormatDollars(cost) + " debit"
	case cost < 0:
		return FormatDollars(-cost) + " credit"
	default:
		return FormatDollars(0)
	}
}

// FormatBound formats a max loss or max profit, honouring the unlimited flag.
func FormatBound(amount float64, unlimited bool) string {
	if unlimited {
		return "unlimited"
	}
	return FormatDollars(amount)
}

// FormatProbability formats a probability in [0, 1] as a percentage.
func FormatProbability(p float64) string {
	return fmt.Sprintf("%.1f%%", p*100)
}

// FormatPercent formats a percentage with sign.
func FormatPercent(value float64) string {
	sign := ""
	if value > 0 {
		sign = "+"
	}
	return fmt.Sprintf("%s%.2f%%", sign, value)
}

// FormatGreek formats a Greek value with a fixed precision.
func FormatGreek(v float64) string {
	if math.Abs(v) < 0.005 {
		v = 0
	}
	return fmt.Sprintf("%.2f", v)
}

// FormatOptional formats an optional check value.
func FormatOptional(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%.2f", *v)
}
