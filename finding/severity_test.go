package finding

import "testing"

func TestSeverity_IsValid(t *testing.T) {
	tests := []struct {
		name     string
		severity Severity
		want     bool
	}{
		{"critical is valid", SeverityCritical, true},
		{"high is valid", SeverityHigh, true},
		{"medium is valid", SeverityMedium, true},
		{"low is valid", SeverityLow, true},
		{"empty is invalid", Severity(""), false},
		{"info is invalid", Severity("info"), false},
		{"unknown is invalid", Severity("unknown"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.severity.IsValid(); got != tt.want {
				t.Errorf("Severity.IsValid() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSeverity_BaseScore(t *testing.T) {
	tests := []struct {
		name     string
		severity Severity
		want     int
	}{
		{"low base", SeverityLow, 1},
		{"medium base", SeverityMedium, 2},
		{"high base", SeverityHigh, 3},
		{"critical base", SeverityCritical, 5},
		{"invalid base", Severity("invalid"), 0},
		{"empty base", Severity(""), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.severity.BaseScore(); got != tt.want {
				t.Errorf("Severity.BaseScore() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseSeverity(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Severity
		wantErr bool
	}{
		{"parse low", "low", SeverityLow, false},
		{"parse medium", "medium", SeverityMedium, false},
		{"parse high", "high", SeverityHigh, false},
		{"parse critical", "critical", SeverityCritical, false},
		{"parse uppercase", "CRITICAL", SeverityCritical, false},
		{"parse mixed case", "High", SeverityHigh, false},
		{"parse padded", "  medium ", SeverityMedium, false},
		{"parse invalid", "severe", "", true},
		{"parse empty", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseSeverity(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ParseSeverity(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
				return
			}
			if got != tt.want {
				t.Errorf("ParseSeverity(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestCompareSeverity(t *testing.T) {
	tests := []struct {
		name string
		s1   Severity
		s2   Severity
		want int
	}{
		{"low < medium", SeverityLow, SeverityMedium, -1},
		{"medium < high", SeverityMedium, SeverityHigh, -1},
		{"high < critical", SeverityHigh, SeverityCritical, -1},
		{"critical > low", SeverityCritical, SeverityLow, 1},
		{"equal severities", SeverityHigh, SeverityHigh, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CompareSeverity(tt.s1, tt.s2); got != tt.want {
				t.Errorf("CompareSeverity(%v, %v) = %v, want %v", tt.s1, tt.s2, got, tt.want)
			}
		})
	}
}

func TestAllSeverities_Ascending(t *testing.T) {
	all := AllSeverities()
	if len(all) != 4 {
		t.Fatalf("AllSeverities() returned %d severities, want 4", len(all))
	}
	for i := 1; i < len(all); i++ {
		if CompareSeverity(all[i-1], all[i]) >= 0 {
			t.Errorf("AllSeverities() not in ascending order at index %d: %v >= %v", i, all[i-1], all[i])
		}
	}
}
