package urlnorm

import "testing"

// TestSameRegisteredDomain tests eTLD+1 scope decisions.
func TestSameRegisteredDomain(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		a, b string
		want bool
	}{
		{"identical hosts", "example.com", "example.com", true},
		{"subdomain is in scope", "sub.example.com", "example.com", true},
		{"deep subdomain is in scope", "a.b.example.com", "www.example.com", true},
		{"different registrable domain", "example.org", "example.com", false},
		{"multi-label public suffix", "shop.example.co.uk", "example.co.uk", true},
		{"sibling under public suffix", "other.co.uk", "example.co.uk", false},
		{"case-insensitive", "Sub.Example.COM", "example.com", true},
		{"unknown TLD compares eTLD+1", "sub.a.test", "a.test", true},
		{"unknown TLD different domain", "b.test", "a.test", false},
		{"single-label host exact match", "localhost", "localhost", true},
		{"single-label host mismatch", "localhost", "example.com", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			if got := SameRegisteredDomain(tc.a, tc.b); got != tc.want {
				t.Errorf("SameRegisteredDomain(%q, %q) = %v, want %v", tc.a, tc.b, got, tc.want)
			}
		})
	}
}

// TestInScope tests the enqueue-time domain gate.
func TestInScope(t *testing.T) {
	t.Parallel()

	u, err := Parse("http://docs.a.test/manual", false)
	if err != nil {
		t.Fatalf("failed to parse: %v", err)
	}
	if !InScope(u, "a.test") {
		t.Error("subdomain of start host should be in scope")
	}
	if InScope(u, "b.test") {
		t.Error("unrelated start host should be out of scope")
	}
	if InScope(nil, "a.test") {
		t.Error("nil URL should be out of scope")
	}
}
