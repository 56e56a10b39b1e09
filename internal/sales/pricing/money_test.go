package pricing

import "testing"

func TestRound2Idempotent(t *testing.T) {
	cases := []float64{0, 0.005, 1.005, 123.456, 999999.994, 0.1 + 0.2, 70.0000001}
	for _, x := range cases {
		once := Round2(x)
		if Round2(once) != once {
			t.Fatalf("Round2 not idempotent for %v: %v != %v", x, Round2(once), once)
		}
	}
}

func TestRound2HalfUp(t *testing.T) {
	// 0.125 and 7.625 are exact in binary, so the half really lands on .5.
	if got := Round2(0.125); got != 0.13 {
		t.Fatalf("expected 0.13 got %v", got)
	}
	if got := Round2(7.625); got != 7.63 {
		t.Fatalf("expected 7.63 got %v", got)
	}
	if got := Round2(2.344); got != 2.34 {
		t.Fatalf("expected 2.34 got %v", got)
	}
}

func TestLineTotal(t *testing.T) {
	if got := LineTotal(10, 100, 20); got != 800.00 {
		t.Fatalf("expected 800.00 got %v", got)
	}
}

func TestLineTotalNoDiscount(t *testing.T) {
	if got := LineTotal(3, 33.33, 0); got != 99.99 {
		t.Fatalf("expected 99.99 got %v", got)
	}
}

func TestLineTotalFullDiscount(t *testing.T) {
	if got := LineTotal(5, 250, 100); got != 0 {
		t.Fatalf("expected 0 got %v", got)
	}
}
