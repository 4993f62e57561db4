package domain

import "testing"

func TestCanAcceptNewOperations(t *testing.T) {
	cases := []struct {
		status ProductStatus
		want   bool
	}{
		{StatusActive, true},
		{StatusPaused, false},
		{StatusDiscontinued, false},
	}

	for _, c := range cases {
		if got := c.status.CanAcceptNewOperations(); got != c.want {
			t.Errorf("%s: CanAcceptNewOperations() = %v, want %v", c.status, got, c.want)
		}
	}
}

func TestParseProductStatus(t *testing.T) {
	for _, v := range []string{"ACTIVE", "PAUSED", "DISCONTINUED"} {
		s, ok := ParseProductStatus(v)
		if !ok {
			t.Fatalf("expected %q to parse", v)
		}
		if string(s) != v {
			t.Fatalf("parsed %q, want %q", s, v)
		}
	}

	for _, v := range []string{"", "active", "ARCHIVED", "DELETED"} {
		if _, ok := ParseProductStatus(v); ok {
			t.Errorf("expected %q to be rejected", v)
		}
	}
}
