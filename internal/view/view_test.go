package view

import "testing"

func TestYenFormatting(t *testing.T) {
	yen := Funcs()["yen"].(func(float64) string)
	cases := []struct {
		in   float64
		want string
	}{
		{0, "¥0"},
		{999, "¥999"},
		{1000, "¥1,000"},
		{4707.4, "¥4,707"},
		{112968, "¥112,968"},
		{-25000, "¥-25,000"},
		{1234567, "¥1,234,567"},
	}
	for _, c := range cases {
		if got := yen(c.in); got != c.want {
			t.Errorf("yen(%v) = %s, want %s", c.in, got, c.want)
		}
	}
}

func TestPointerUnwrapFuncs(t *testing.T) {
	val := Funcs()["val"].(func(*float64) float64)
	ival := Funcs()["ival"].(func(*int) int)
	if val(nil) != 0 || ival(nil) != 0 {
		t.Fatal("nil pointers should unwrap to zero")
	}
	f, n := 12.5, 3
	if val(&f) != 12.5 || ival(&n) != 3 {
		t.Fatal("pointer values should round-trip")
	}
}
