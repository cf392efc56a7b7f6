package booking

import "testing"

func TestComputePrice(t *testing.T) {
	rate := int64(2500)
	cases := []struct {
		name string
		rate *int64
		w    Window
		want int64
	}{
		{"free room", nil, win(10, 0, 12, 0), 0},
		{"two hours", &rate, win(10, 0, 12, 0), 5000},
		{"partial hour floors", &rate, win(10, 0, 12, 59), 5000},
		{"under an hour", &rate, win(10, 0, 10, 45), 0},
		{"three hours", &rate, win(9, 0, 12, 0), 7500},
	}
	for _, tc := range cases {
		if got := ComputePrice(tc.rate, tc.w); got != tc.want {
			t.Errorf("%s: got %d, want %d", tc.name, got, tc.want)
		}
	}
}

func TestComputePriceDeterministic(t *testing.T) {
	rate := int64(1999)
	w := win(8, 15, 11, 20)
	first := ComputePrice(&rate, w)
	for i := 0; i < 10; i++ {
		if got := ComputePrice(&rate, w); got != first {
			t.Fatalf("run %d: %d != %d", i, got, first)
		}
	}
}
