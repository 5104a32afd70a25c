package common

import "testing"

func TestSizeof(t *testing.T) {
	cases := []struct {
		name string
		got  int
		want int
	}{
		{"int32", Sizeof[int32](), 4},
		{"float32", Sizeof[float32](), 4},
		{"int64", Sizeof[int64](), 8},
		{"float64", Sizeof[float64](), 8},
	}
	for _, c := range cases {
		if c.got != c.want {
			t.Errorf("%s: got %d, want %d", c.name, c.got, c.want)
		}
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	testEncodeDecode[int32](t, []int32{0, 1, -1, 1 << 20, -(1 << 20)})
	testEncodeDecode[int64](t, []int64{0, 1, -1, 1 << 40, -(1 << 40)})
	testEncodeDecode[float32](t, []float32{0, 1.5, -1.5, 3.14159})
	testEncodeDecode[float64](t, []float64{0, 1.5, -1.5, 3.14159265358979})
}

func testEncodeDecode[T Numeric](t *testing.T, values []T) {
	t.Helper()
	buf := make([]byte, Sizeof[T]())
	for _, v := range values {
		Encode(v, buf)
		got := Decode[T](buf)
		if got != v {
			t.Errorf("round trip: got %v, want %v", got, v)
		}
	}
}

func TestEncodeBatchDecodeBatch(t *testing.T) {
	elems := []int64{5, 3, 9, -7, 0}
	buf := EncodeBatch(elems)
	if len(buf) != len(elems)*Sizeof[int64]() {
		t.Fatalf("unexpected buffer length %d", len(buf))
	}
	out := DecodeBatch[int64](buf)
	if len(out) != len(elems) {
		t.Fatalf("got %d elements, want %d", len(out), len(elems))
	}
	for i := range elems {
		if out[i] != elems[i] {
			t.Errorf("index %d: got %d, want %d", i, out[i], elems[i])
		}
	}
}

func TestCompare(t *testing.T) {
	if Compare[int64](1, 2) >= 0 {
		t.Error("1 should compare less than 2")
	}
	if Compare[int64](2, 1) <= 0 {
		t.Error("2 should compare greater than 1")
	}
	if Compare[int64](1, 1) != 0 {
		t.Error("1 should compare equal to 1")
	}
}

func TestSpanLen(t *testing.T) {
	s := Span{First: 10, Last: 25}
	if s.Len() != 15 {
		t.Errorf("got %d, want 15", s.Len())
	}
}
