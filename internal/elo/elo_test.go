package elo

import (
	"math"
	"testing"
)

// --- K-factor tests ---

func TestKFactor_Placement(t *testing.T) {
	if k := KFactor(0); k != KPlacement {
		t.Errorf("expected K=%d for 0 games, got %v", KPlacement, k)
	}
	if k := KFactor(29); k != KPlacement {
		t.Errorf("expected K=%d for 29 games, got %v", KPlacement, k)
	}
}

func TestKFactor_Established(t *testing.T) {
	if k := KFactor(30); k != KEstablished {
		t.Errorf("expected K=%d for 30 games, got %v", KEstablished, k)
	}
	if k := KFactor(1000); k != KEstablished {
		t.Errorf("expected K=%d for 1000 games, got %v", KEstablished, k)
	}
}

// --- Expected score tests ---

func TestExpectedScore_EqualRatings(t *testing.T) {
	e := ExpectedScore(1200, 1200)
	if math.Abs(e-0.5) > 1e-12 {
		t.Errorf("expected 0.5 for equal ratings, got %v", e)
	}
}

func TestExpectedScore_400PointGap(t *testing.T) {
	// A 400-point favorite should have 10:1 odds: E = 10/11.
	e := ExpectedScore(1600, 1200)
	if math.Abs(e-10.0/11.0) > 1e-12 {
		t.Errorf("expected 10/11 for +400, got %v", e)
	}
}

func TestExpectedScore_Complementary(t *testing.T) {
	a := ExpectedScore(1350, 1180)
	b := ExpectedScore(1180, 1350)
	if math.Abs(a+b-1.0) > 1e-12 {
		t.Errorf("expected scores should sum to 1, got %v + %v", a, b)
	}
}

// --- Rating update tests ---

func TestUpdateRatings_EqualPlacement(t *testing.T) {
	// 1200 vs 1200, both 0 games: K=40, expected 0.5 → winner +20, loser -20.
	w, l := UpdateRatings(1200, 1200, 0, 0)
	if w != 1220 {
		t.Errorf("expected new winner rating 1220, got %d", w)
	}
	if l != 1180 {
		t.Errorf("expected new loser rating 1180, got %d", l)
	}
}

func TestUpdateRatings_EqualEstablished(t *testing.T) {
	// Established players: K=32 → winner +16, loser -16.
	w, l := UpdateRatings(1500, 1500, 50, 50)
	if w != 1516 {
		t.Errorf("expected 1516, got %d", w)
	}
	if l != 1484 {
		t.Errorf("expected 1484, got %d", l)
	}
}

func TestUpdateRatings_MixedKFactors(t *testing.T) {
	// Winner placed (K=32), loser in placement (K=40): adjustments differ.
	w, l := UpdateRatings(1200, 1200, 30, 0)
	if w != 1216 {
		t.Errorf("expected winner 1216 with K=32, got %d", w)
	}
	if l != 1180 {
		t.Errorf("expected loser 1180 with K=40, got %d", l)
	}
}

func TestUpdateRatings_UpsetGainsMore(t *testing.T) {
	// An underdog win must gain more than a favorite win.
	underdogWin, _ := UpdateRatings(1100, 1500, 50, 50)
	favoriteWin, _ := UpdateRatings(1500, 1100, 50, 50)

	underdogGain := int(underdogWin) - 1100
	favoriteGain := int(favoriteWin) - 1500
	if underdogGain <= favoriteGain {
		t.Errorf("underdog gain %d should exceed favorite gain %d",
			underdogGain, favoriteGain)
	}
}

func TestUpdateRatings_Floor(t *testing.T) {
	// A loser near the floor never drops below it.
	_, l := UpdateRatings(2000, 100, 0, 0)
	if l != RatingFloor {
		t.Errorf("expected floor %d, got %d", RatingFloor, l)
	}

	_, l = UpdateRatings(2000, 110, 100, 100)
	if l < RatingFloor {
		t.Errorf("rating %d dropped below floor", l)
	}
}

func TestUpdateRatings_Deterministic(t *testing.T) {
	for i := 0; i < 10; i++ {
		w1, l1 := UpdateRatings(1337, 1205, 12, 48)
		w2, l2 := UpdateRatings(1337, 1205, 12, 48)
		if w1 != w2 || l1 != l2 {
			t.Fatalf("non-deterministic update: (%d,%d) vs (%d,%d)", w1, l1, w2, l2)
		}
	}
}

func TestUpdateRatings_Table(t *testing.T) {
	tests := []struct {
		name         string
		wr, lr       uint32
		wg, lg       uint32
		wantW, wantL uint32
	}{
		{"equal new players", 1200, 1200, 0, 0, 1220, 1180},
		{"equal veterans", 1200, 1200, 30, 30, 1216, 1184},
		{"favorite wins", 1600, 1200, 50, 50, 1603, 1197},
		{"loser at floor", 1200, 100, 0, 0, 1200, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, l := UpdateRatings(tt.wr, tt.lr, tt.wg, tt.lg)
			if w != tt.wantW || l != tt.wantL {
				t.Errorf("UpdateRatings(%d,%d,%d,%d) = (%d,%d), want (%d,%d)",
					tt.wr, tt.lr, tt.wg, tt.lg, w, l, tt.wantW, tt.wantL)
			}
		})
	}
}
