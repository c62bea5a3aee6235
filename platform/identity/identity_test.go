package identity

import "testing"

func TestNormalizeKey(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"João da Silva", "joao da silva"},
		{"  MARIA   LUÍSA  ", "maria luisa"},
		{"José\tAntônio", "jose antonio"},
		{"ana", "ana"},
		{"", ""},
		{"   ", ""},
	}

	for _, tc := range cases {
		if got := NormalizeKey(tc.in); got != tc.want {
			t.Fatalf("NormalizeKey(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestIsNumeric(t *testing.T) {
	cases := []struct {
		in   string
		want bool
	}{
		{"123.456.789-00", true},
		{"12345678900", true},
		{"1234 5678", true},
		{"12/34", true},
		{"Ana Paula", false},
		{"4 Irmãos Ltda", false},
		{"---", false},
		{"", false},
	}

	for _, tc := range cases {
		if got := IsNumeric(tc.in); got != tc.want {
			t.Fatalf("IsNumeric(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}
