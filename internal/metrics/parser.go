package metrics

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	ccValueRe    = regexp.MustCompile(`([\d.]+)\s*CC`)
	estTrafficRe = regexp.MustCompile(`(?i)^est\.?\s*traffic$`)
)

// Parse scans rendered dashboard text for the three period headers and
// extracts the Gross and Est. Traffic values beneath each. Absence of a
// label or of a CC-suffixed number is data, not failure: the field stays
// nil and no error is ever returned.
func Parse(raw string) Snapshot {
	snap := Snapshot{}
	lines := strings.Split(raw, "\n")

	current := Period("")
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)

		if period, ok := matchHeader(trimmed); ok {
			if _, seen := snap[period]; seen {
				// first occurrence of a header wins; repeats are ignored
				continue
			}
			snap[period] = PeriodValues{}
			current = period
			continue
		}

		if current == "" {
			continue
		}

		values := snap[current]
		switch {
		case strings.EqualFold(trimmed, "Gross"):
			if values.Gross == nil {
				values.Gross = extractCC(nextNonEmpty(lines, i+1))
			}
		case estTrafficRe.MatchString(trimmed):
			if values.Traffic == nil {
				values.Traffic = extractCC(nextNonEmpty(lines, i+1))
			}
		}
		snap[current] = values
	}

	return snap
}

func matchHeader(line string) (Period, bool) {
	for _, p := range Periods {
		if line == string(p) {
			return p, true
		}
	}
	return "", false
}

func nextNonEmpty(lines []string, from int) string {
	for i := from; i < len(lines); i++ {
		if trimmed := strings.TrimSpace(lines[i]); trimmed != "" {
			return trimmed
		}
	}
	return ""
}

// extractCC pulls a decimal number immediately followed by the CC unit
// suffix out of a value line, e.g. "12.53 CC".
func extractCC(line string) *decimal.Decimal {
	match := ccValueRe.FindStringSubmatch(line)
	if match == nil {
		return nil
	}
	value, err := decimal.NewFromString(match[1])
	if err != nil {
		return nil
	}
	return &value
}
