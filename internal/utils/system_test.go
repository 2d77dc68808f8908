package utils

import (
	"testing"
)

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"LowercaseSimple", "MacBook", "macbook"},
		{"SpacesToHyphens", "Alice Smith", "alice-smith"},
		{"RemoveSpecialChars", "My@Device#123!", "mydevice123"},
		{"RemoveConsecutiveHyphens", "my--device", "my-device"},
		{"TrimHyphens", "-my-device-", "my-device"},
		{"EmptyToDefault", "", "user"},
		{"OnlySpecialChars", "@#$%", "user"},
		{"PreserveUnderscores", "my_device", "my_device"},
		{"PreserveNumbers", "device123", "device123"},
		{"PreserveDots", "j.doe", "j.doe"},
		{"TrimWhitespace", "  mydevice  ", "mydevice"},
		{"ComplexName", "  My MacBook Pro! #1  ", "my-macbook-pro-1"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			result := SanitizeName(tc.input)
			if result != tc.expected {
				t.Errorf("SanitizeName(%q) = %q, expected %q", tc.input, result, tc.expected)
			}
		})
	}
}

func TestUniqueName(t *testing.T) {
	tests := []struct {
		name     string
		base     string
		existing []string
		expected string
	}{
		{"NoConflict", "alice", nil, "alice"},
		{"AppendsNumberOnConflict", "alice", []string{"alice"}, "alice-2"},
		{"IncrementsForMultipleConflicts", "alice", []string{"alice", "alice-2", "alice-3"}, "alice-4"},
		{"CaseInsensitiveConflictCheck", "alice", []string{"ALICE"}, "alice-2"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := UniqueName(tc.base, tc.existing); got != tc.expected {
				t.Errorf("UniqueName(%q, %v) = %q, expected %q", tc.base, tc.existing, got, tc.expected)
			}
		})
	}
}

func TestGenerateUserName(t *testing.T) {
	name := GenerateUserName(nil)
	if name == "" {
		t.Fatal("Expected non-empty user name")
	}
	if again := GenerateUserName([]string{name}); again != name+"-2" {
		t.Errorf("Expected %q, got %q", name+"-2", again)
	}
}

func TestGetUsername(t *testing.T) {
	username, err := GetUsername()
	if err != nil {
		t.Fatalf("GetUsername failed: %v", err)
	}
	if username == "" {
		t.Fatal("Expected non-empty username")
	}
}

func TestGetHostname(t *testing.T) {
	hostname, err := GetHostname()
	if err != nil {
		t.Fatalf("GetHostname failed: %v", err)
	}
	if hostname == "" {
		t.Fatal("Expected non-empty hostname")
	}
}
