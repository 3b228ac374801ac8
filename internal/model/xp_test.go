package model

import "testing"

func TestLevelFor(t *testing.T) {
	tests := []struct {
		total     int
		wantLevel int
		wantNext  int
	}{
		{0, 1, 100},
		{99, 1, 100},
		{100, 2, 250},
		{249, 2, 250},
		{250, 3, 500},
		{1000, 5, 1750},
		{7499, 9, 7500},
		{7500, 10, 0},
		{20000, 10, 0},
	}
	for _, tt := range tests {
		if got := LevelFor(tt.total); got != tt.wantLevel {
			t.Errorf("LevelFor(%d) = %d, want %d", tt.total, got, tt.wantLevel)
		}
		if got := NextLevelAt(tt.total); got != tt.wantNext {
			t.Errorf("NextLevelAt(%d) = %d, want %d", tt.total, got, tt.wantNext)
		}
	}
}
