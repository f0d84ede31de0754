package main

import (
	"testing"
	"time"
)

func TestParseDateRange(t *testing.T) {
	tests := []struct {
		name    string
		from    string
		to      string
		wantErr bool
	}{
		{name: "valid range", from: "2026-01-01", to: "2026-02-01"},
		{name: "same day is inclusive", from: "2026-01-01", to: "2026-01-01"},
		{name: "missing from", from: "", to: "2026-02-01", wantErr: true},
		{name: "from after to", from: "2026-03-01", to: "2026-02-01", wantErr: true},
		{name: "garbage from", from: "january", to: "", wantErr: true},
		{name: "to defaults to today", from: "2026-01-01", to: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			from, to, err := parseDateRange(tt.from, tt.to)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseDateRange(%q, %q) error = %v, wantErr %v", tt.from, tt.to, err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if !from.Before(to) && !from.Equal(to) {
				t.Errorf("from %v not <= to %v", from, to)
			}
			if tt.to != "" {
				// Upper bound extends to the end of the named day.
				parsed, _ := time.Parse(dateLayout, tt.to)
				if to.Before(parsed) {
					t.Errorf("to %v lost its day extension", to)
				}
			}
		})
	}
}
