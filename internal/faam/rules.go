package faam

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Rule triggers when the combined share of the top X providers reaches
// the threshold percentage.
type Rule struct {
	TopX         int
	ThresholdPct decimal.Decimal
}

// ParseRules parses a rule string like "2:50,3:60" into ordered rules.
func ParseRules(raw string) ([]Rule, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, fmt.Errorf("empty rule string")
	}

	parts := strings.Split(raw, ",")
	rules := make([]Rule, 0, len(parts))
	for _, part := range parts {
		fields := strings.SplitN(strings.TrimSpace(part), ":", 2)
		if len(fields) != 2 {
			return nil, fmt.Errorf("invalid rule %q, want topX:thresholdPct", part)
		}

		topX, err := strconv.Atoi(fields[0])
		if err != nil || topX <= 0 {
			return nil, fmt.Errorf("invalid topX in rule %q", part)
		}

		threshold, err := decimal.NewFromString(fields[1])
		if err != nil || threshold.Sign() < 0 {
			return nil, fmt.Errorf("invalid threshold in rule %q", part)
		}

		rules = append(rules, Rule{TopX: topX, ThresholdPct: threshold})
	}

	return rules, nil
}

// RuleResult is one rule evaluated against a stats snapshot.
type RuleResult struct {
	Rule          Rule
	Concentration decimal.Decimal
	Triggered     bool
	Providers     []Provider // the top-X slice the concentration covers
}

// CheckRules evaluates every rule against the provider leaderboard. The
// providers are assumed ordered by descending share, as the API returns
// them.
func CheckRules(stats Stats, rules []Rule) []RuleResult {
	results := make([]RuleResult, 0, len(rules))
	for _, rule := range rules {
		top := stats.Providers
		if rule.TopX < len(top) {
			top = top[:rule.TopX]
		}

		concentration := decimal.Zero
		for _, p := range top {
			concentration = concentration.Add(p.PercentOfTotal)
		}

		results = append(results, RuleResult{
			Rule:          rule,
			Concentration: concentration,
			Triggered:     concentration.GreaterThanOrEqual(rule.ThresholdPct),
			Providers:     top,
		})
	}
	return results
}

// AnyTriggered reports whether at least one rule breached.
func AnyTriggered(results []RuleResult) bool {
	for _, r := range results {
		if r.Triggered {
			return true
		}
	}
	return false
}
