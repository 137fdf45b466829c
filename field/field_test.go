package field

import "testing"

// A prime comfortably below sqrt(maxUint64).
const testPrime = 2147483647 // 2^31 - 1, Mersenne prime

func TestNewInverseLaw(t *testing.T) {
	for _, v := range []uint64{1, 2, 3, 17, 1000, testPrime - 1} {
		val, err := New(v, testPrime)
		if err != nil {
			t.Fatalf("New(%d, p) error: %v", v, err)
		}
		if (val.V*val.Inv)%testPrime != 1 {
			t.Errorf("v=%d: v*inv mod p = %d, want 1", v, (val.V*val.Inv)%testPrime)
		}
	}
}

func TestNewZeroInvalid(t *testing.T) {
	if _, err := New(0, testPrime); err != ErrInvalidModulus {
		t.Fatalf("New(0, p) error = %v, want ErrInvalidModulus", err)
	}
}

func TestMulDivRoundTrip(t *testing.T) {
	a, _ := New(12345, testPrime)
	b, _ := New(67890, testPrime)

	prod := Mul(a, b, testPrime)
	quot := Div(prod, b, testPrime)

	if quot.V != a.V {
		t.Errorf("(a*b)/b = %d, want %d", quot.V, a.V)
	}
	if (quot.V*quot.Inv)%testPrime != 1 {
		t.Errorf("quotient's inverse law broken: %d*%d mod p = %d", quot.V, quot.Inv, (quot.V*quot.Inv)%testPrime)
	}
}

func TestDivIdentity(t *testing.T) {
	one, _ := New(1, testPrime)
	a, _ := New(999, testPrime)
	if got := Div(a, one, testPrime); got.V != a.V {
		t.Errorf("a/1 = %d, want %d", got.V, a.V)
	}
}

func TestCopyIndependence(t *testing.T) {
	a, _ := New(42, testPrime)
	b := Copy(a)
	if a != b {
		t.Fatalf("Copy should produce an equal Value")
	}
}
