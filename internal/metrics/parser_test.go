package metrics

import (
	"testing"

	"github.com/shopspring/decimal"
)

const sampleText = `Canton Rewards

Latest Round
Gross
12.53 CC
Est. Traffic
10.00 CC

1-Hour Average
Gross
20.10 CC
Est. Traffic
18.00 CC

24-Hour Average
Gross
5.00 CC
Est. Traffic
50.00 CC
`

func TestParseAllPeriods(t *testing.T) {
	snap := Parse(sampleText)

	want := map[Period][2]string{
		PeriodLatestRound: {"12.53", "10"},
		PeriodOneHour:     {"20.1", "18"},
		PeriodTwentyFour:  {"5", "50"},
	}

	for period, pair := range want {
		values, ok := snap[period]
		if !ok {
			t.Fatalf("period %q missing from snapshot", period)
		}
		if values.Gross == nil || values.Gross.String() != pair[0] {
			t.Fatalf("period %q gross = %v, want %s", period, values.Gross, pair[0])
		}
		if values.Traffic == nil || values.Traffic.String() != pair[1] {
			t.Fatalf("period %q traffic = %v, want %s", period, values.Traffic, pair[1])
		}
	}
}

func TestParseMissingTrafficLabel(t *testing.T) {
	raw := "Latest Round\nGross\n12.53 CC\nSomething Else\n9.99 CC\n"
	snap := Parse(raw)

	values := snap[PeriodLatestRound]
	if values.Gross == nil || values.Gross.String() != "12.53" {
		t.Fatalf("gross = %v, want 12.53", values.Gross)
	}
	if values.Traffic != nil {
		t.Fatalf("traffic = %v, want nil", values.Traffic)
	}
}

func TestParseValueWithoutUnit(t *testing.T) {
	raw := "Latest Round\nGross\n12.53\nEst. Traffic\n10.00 CC\n"
	snap := Parse(raw)

	values := snap[PeriodLatestRound]
	if values.Gross != nil {
		t.Fatalf("gross without CC suffix should stay nil, got %v", values.Gross)
	}
	if values.Traffic == nil {
		t.Fatal("traffic should still be populated")
	}
}

func TestParseFirstHeaderOccurrenceWins(t *testing.T) {
	raw := "Latest Round\nGross\n1.00 CC\nLatest Round\nGross\n2.00 CC\n"
	snap := Parse(raw)

	values := snap[PeriodLatestRound]
	if values.Gross == nil || values.Gross.String() != "1" {
		t.Fatalf("gross = %v, want the first occurrence value 1", values.Gross)
	}
}

func TestParseCaseInsensitiveLabels(t *testing.T) {
	raw := "Latest Round\nGROSS\n3.14 CC\nest traffic\n2.00 CC\n"
	snap := Parse(raw)

	values := snap[PeriodLatestRound]
	if values.Gross == nil || values.Gross.String() != "3.14" {
		t.Fatalf("gross = %v, want 3.14", values.Gross)
	}
	if values.Traffic == nil || values.Traffic.String() != "2" {
		t.Fatalf("traffic = %v, want 2", values.Traffic)
	}
}

func TestParseMalformedInput(t *testing.T) {
	for _, raw := range []string{"", "garbage\nmore garbage", "Gross\n1.00 CC"} {
		snap := Parse(raw)
		if len(snap) != 0 {
			t.Fatalf("Parse(%q) = %v, want empty snapshot", raw, snap)
		}
	}
}

func TestPercentChange(t *testing.T) {
	cases := []struct {
		latest, baseline, want string
	}{
		{"110", "100", "10"},
		{"90", "100", "-10"},
		{"123.45", "0", "0"},
		{"0", "0", "0"},
		{"50", "-100", "150"},
	}

	for _, tc := range cases {
		latest, _ := decimal.NewFromString(tc.latest)
		baseline, _ := decimal.NewFromString(tc.baseline)
		want, _ := decimal.NewFromString(tc.want)

		got := PercentChange(latest, baseline)
		if !got.Equal(want) {
			t.Fatalf("PercentChange(%s, %s) = %s, want %s", tc.latest, tc.baseline, got, want)
		}
	}
}

func TestMargin(t *testing.T) {
	gross := decimal.NewFromInt(10)
	traffic := decimal.NewFromInt(12)

	v := PeriodValues{Gross: &gross, Traffic: &traffic}
	if m := v.Margin(); m == nil || m.String() != "-2" {
		t.Fatalf("margin = %v, want -2", m)
	}

	if m := (PeriodValues{Gross: &gross}).Margin(); m != nil {
		t.Fatalf("incomplete pair should have nil margin, got %v", m)
	}
}
