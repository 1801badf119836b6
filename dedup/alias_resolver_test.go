package dedup

import "testing"

func TestAliasResolver_CanonicalizeExact(t *testing.T) {
	resolver := NewAliasResolver(DefaultAliasConfig())

	tests := []struct {
		input    string
		expected string
	}{
		{"Singtel Optus", "Optus"},
		{"singtel optus", "Optus"},
		{"Medibank Private", "Medibank"},
		{"ahm", "Medibank"},
		{"MyDeal", "Woolworths"},
		{"MyLicence", "Service NSW"},
	}

	for _, tt := range tests {
		if result := resolver.Canonicalize(tt.input); result != tt.expected {
			t.Errorf("Canonicalize(%q) = %q, expected %q", tt.input, result, tt.expected)
		}
	}
}

func TestAliasResolver_CanonicalizeSubstring(t *testing.T) {
	resolver := NewAliasResolver(DefaultAliasConfig())

	// "Medibank Private Ltd" содержит псевдоним "medibank private"
	if result := resolver.Canonicalize("Medibank Private Ltd"); result != "Medibank" {
		t.Errorf("Expected 'Medibank', got %q", result)
	}
}

func TestAliasResolver_CanonicalizeUnknown(t *testing.T) {
	resolver := NewAliasResolver(DefaultAliasConfig())

	if result := resolver.Canonicalize("  Contoso Industries  "); result != "Contoso Industries" {
		t.Errorf("Expected unknown name returned trimmed, got %q", result)
	}
}

func TestAliasResolver_CanonicalizeEmpty(t *testing.T) {
	resolver := NewAliasResolver(DefaultAliasConfig())

	if result := resolver.Canonicalize(""); result != "" {
		t.Errorf("Expected empty string unchanged, got %q", result)
	}
}

func TestAliasResolver_SameOrganization(t *testing.T) {
	resolver := NewAliasResolver(DefaultAliasConfig())

	tests := []struct {
		name     string
		org1     string
		org2     string
		expected bool
	}{
		{"identical", "Optus", "Optus", true},
		{"alias to canonical", "Singtel Optus", "Optus", true},
		{"related group", "Optus", "Singtel", true},
		{"related group short name", "Medibank", "ahm", true},
		{"containment", "Latitude Financial Services", "Latitude Financial", true},
		{"different organizations", "Optus", "Medibank", false},
		{"one empty", "Optus", "", false},
		{"both empty", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if result := resolver.SameOrganization(tt.org1, tt.org2); result != tt.expected {
				t.Errorf("SameOrganization(%q, %q) = %t, expected %t", tt.org1, tt.org2, result, tt.expected)
			}
		})
	}
}

func TestAliasResolver_SameOrganizationSymmetric(t *testing.T) {
	resolver := NewAliasResolver(DefaultAliasConfig())

	if resolver.SameOrganization("Optus", "Singtel") != resolver.SameOrganization("Singtel", "Optus") {
		t.Error("Expected SameOrganization to be symmetric")
	}
}
