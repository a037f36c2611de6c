package main

import (
	"testing"

	"github.com/0xlayer/scriptscope/internal/analyzer"
)

func TestExitCodeFor(t *testing.T) {
	tests := []struct {
		level analyzer.Severity
		want  int
	}{
		{analyzer.SeverityInfo, 0},
		{analyzer.SeverityLow, 0},
		{analyzer.SeverityMedium, 1},
		{analyzer.SeverityHigh, 1},
		{analyzer.SeverityCritical, 1},
	}
	for _, tt := range tests {
		if got := exitCodeFor(tt.level); got != tt.want {
			t.Errorf("exitCodeFor(%v) = %d, want %d", tt.level, got, tt.want)
		}
	}
}
