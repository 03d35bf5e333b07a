//go:build !windows

package config

import "testing"

func TestCleanFileName(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Book", "Book"},
		{"My/Book", "MyBook"},
		{"a:b", "ab"},
		{"..hidden", "hidden"},
		{"Книга", "Книга"},
		{"nul\x00byte", "nulbyte"},
		{"", "_bad_file_name_"},
		{"/..", "_bad_file_name_"},
	}
	for _, tt := range tests {
		if got := CleanFileName(tt.in); got != tt.want {
			t.Errorf("CleanFileName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
