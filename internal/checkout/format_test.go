package checkout

import "testing"

func TestFormatCardNumber(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{in: "", want: ""},
		{in: "4242", want: "4242"},
		{in: "42424", want: "4242 4"},
		{in: "4242-4242 4242abc4242", want: "4242 4242 4242 4242"},
		{in: "42424242424242429999", want: "4242 4242 4242 4242"},
	}
	for _, tt := range tests {
		if got := FormatCardNumber(tt.in); got != tt.want {
			t.Errorf("FormatCardNumber(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatExpiry(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{in: "1", want: "1"},
		{in: "12", want: "12"},
		{in: "123", want: "12/3"},
		{in: "12/34", want: "12/34"},
		{in: "123456", want: "12/34"},
		{in: "ab", want: ""},
	}
	for _, tt := range tests {
		if got := FormatExpiry(tt.in); got != tt.want {
			t.Errorf("FormatExpiry(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatCVV(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{in: "12a3", want: "123"},
		{in: "12345", want: "1234"},
	}
	for _, tt := range tests {
		if got := FormatCVV(tt.in); got != tt.want {
			t.Errorf("FormatCVV(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
