package importer_test

import (
	"testing"

	"github.com/boddenberg/org-finance-bfa-go/internal/importer"
)

func TestParseDate(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"2024-01-15", "2024-01-15"},
		{"2024-01-15T09:30:00", "2024-01-15"},
		{"2024/1/5", "2024-01-05"},
		{"15/01/2024", "2024-01-15"},
		{"05/01/2024", "2024-01-05"},
		{"01/31/2024", "2024-01-31"},
		{"5 Jan 2024", "2024-01-05"},
		{"15-March-2024", "2024-03-15"},
		{"Mar 3, 2024", "2024-03-03"},
		{"2024年3月8日", "2024-03-08"},
		{" 2024-02-29 ", "2024-02-29"},
		{"2024/01/15 9:05", "2024-01-15"},
		{"2024.01.15T09:05:30.250+08:00", "2024-01-15"},
	}
	for _, tt := range tests {
		got, err := importer.ParseDate(tt.in)
		if err != nil {
			t.Errorf("ParseDate(%q) error: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseDate(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestParseDate_Invalid(t *testing.T) {
	for _, in := range []string{
		"", "2023-02-29", "13/13/2024", "5 Foo 2024", "20240115",
		"2024-01-15 garbage", "2024-01-15Tnonsense", "2024/01/15 10:00 tomorrow",
	} {
		if _, err := importer.ParseDate(in); err == nil {
			t.Errorf("ParseDate(%q): expected error", in)
		}
	}
}

func TestParseStatus(t *testing.T) {
	tests := map[string]string{
		"":          "Completed",
		"PENDING":   "Pending",
		"draft":     "Draft",
		"已完成":       "Completed",
		"处理中":       "Pending",
		"草稿":        "Draft",
		"completed": "Completed",
	}
	for in, want := range tests {
		got, err := importer.ParseStatus(in)
		if err != nil || string(got) != want {
			t.Errorf("ParseStatus(%q) = %q, %v; want %q", in, got, err, want)
		}
	}
	if _, err := importer.ParseStatus("cancelled"); err == nil {
		t.Error("expected error for unknown status")
	}
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		present bool
	}{
		{"", "0", false},
		{"245.00", "245", true},
		{"1,234.56", "1234.56", true},
		{"RM 12.30", "12.3", true},
		{"$5", "5", true},
		{"¥88", "88", true},
	}
	for _, tt := range tests {
		d, present, err := importer.ParseAmount(tt.in)
		if err != nil {
			t.Errorf("ParseAmount(%q) error: %v", tt.in, err)
			continue
		}
		if present != tt.present || d.String() != tt.want {
			t.Errorf("ParseAmount(%q) = %s,%v; want %s,%v", tt.in, d, present, tt.want, tt.present)
		}
	}
	if _, _, err := importer.ParseAmount("-3"); err == nil {
		t.Error("expected negative amount to fail")
	}
	if _, _, err := importer.ParseAmount("twelve"); err == nil {
		t.Error("expected non-numeric amount to fail")
	}
}
