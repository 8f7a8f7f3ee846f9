package gps

import "testing"

func Test_AngularDelta(t *testing.T) {
	cases := []struct {
		a, b, want float64
	}{
		{0, 0, 0},
		{10, 350, 20},
		{350, 10, 20},
		{180, 0, 180},
		{90, 270, 180},
		{359, 1, 2},
	}
	for _, c := range cases {
		if got := AngularDelta(c.a, c.b); got != c.want {
			t.Fatalf("AngularDelta(%v, %v) = %v, want %v", c.a, c.b, got, c.want)
		}
	}
}
