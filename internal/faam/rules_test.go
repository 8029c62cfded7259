package faam

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseRules(t *testing.T) {
	cases := []struct {
		raw  string
		want []Rule
	}{
		{"2:50", []Rule{{2, decimal.NewFromInt(50)}}},
		{"2:50,3:60", []Rule{{2, decimal.NewFromInt(50)}, {3, decimal.NewFromInt(60)}}},
		{"2:50, 3:60, 5:75", []Rule{{2, decimal.NewFromInt(50)}, {3, decimal.NewFromInt(60)}, {5, decimal.NewFromInt(75)}}},
		{"5:75,10:90", []Rule{{5, decimal.NewFromInt(75)}, {10, decimal.NewFromInt(90)}}},
	}

	for _, tc := range cases {
		got, err := ParseRules(tc.raw)
		if err != nil {
			t.Fatalf("ParseRules(%q) error: %v", tc.raw, err)
		}
		if len(got) != len(tc.want) {
			t.Fatalf("ParseRules(%q) = %v, want %v", tc.raw, got, tc.want)
		}
		for i := range got {
			if got[i].TopX != tc.want[i].TopX || !got[i].ThresholdPct.Equal(tc.want[i].ThresholdPct) {
				t.Fatalf("ParseRules(%q)[%d] = %v, want %v", tc.raw, i, got[i], tc.want[i])
			}
		}
	}
}

func TestParseRulesInvalid(t *testing.T) {
	for _, raw := range []string{"", "2", "x:50", "2:abc", "0:50", "2:-1"} {
		if _, err := ParseRules(raw); err == nil {
			t.Fatalf("ParseRules(%q) should fail", raw)
		}
	}
}

func testStats() Stats {
	provider := func(name, pct string) Provider {
		p, _ := decimal.NewFromString(pct)
		return Provider{Name: name, PercentOfTotal: p}
	}
	total, _ := decimal.NewFromString("9449838.10")
	return Stats{
		Providers: []Provider{
			provider("provider1", "26.05"),
			provider("provider2", "14.19"),
			provider("provider3", "10.50"),
			provider("provider4", "8.20"),
			provider("provider5", "7.15"),
		},
		NetworkTotal: total,
		TimeWindow:   TimeWindow{From: "2025-12-09T11:00:00Z", To: "2025-12-10T11:00:00Z"},
	}
}

func TestCheckRules(t *testing.T) {
	results := CheckRules(testStats(), []Rule{
		{2, decimal.NewFromInt(50)},
		{3, decimal.NewFromInt(60)},
	})

	if len(results) != 2 {
		t.Fatalf("results = %d, want 2", len(results))
	}

	if got := results[0].Concentration.String(); got != "40.24" {
		t.Fatalf("top-2 concentration = %s, want 40.24", got)
	}
	if results[0].Triggered {
		t.Fatal("40.24% must not trigger a 50% threshold")
	}

	if got := results[1].Concentration.String(); got != "50.74" {
		t.Fatalf("top-3 concentration = %s, want 50.74", got)
	}
	if results[1].Triggered {
		t.Fatal("50.74% must not trigger a 60% threshold")
	}
}

func TestCheckRulesTopXExceedsProviders(t *testing.T) {
	results := CheckRules(testStats(), []Rule{{10, decimal.NewFromInt(50)}})

	if got := results[0].Concentration.String(); got != "66.09" {
		t.Fatalf("all-provider concentration = %s, want 66.09", got)
	}
	if !results[0].Triggered {
		t.Fatal("66.09% should trigger a 50% threshold")
	}
}

func TestCheckRulesTriggeredAtExactThreshold(t *testing.T) {
	threshold, _ := decimal.NewFromString("40.24")
	results := CheckRules(testStats(), []Rule{{2, threshold}})
	if !results[0].Triggered {
		t.Fatal("concentration equal to the threshold should trigger")
	}
}
