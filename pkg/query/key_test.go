package query

import "testing"

func TestKey_String(t *testing.T) {
	tests := []struct {
		name     string
		key      Key
		expected string
	}{
		{
			name:     "resource only",
			key:      NewKey("products"),
			expected: "query:products",
		},
		{
			name:     "resource with id",
			key:      NewKey("cart", "1"),
			expected: "query:cart:1",
		},
		{
			name:     "resource with discriminators",
			key:      NewKey("products", "search", "chair"),
			expected: "query:products:search:chair",
		},
		{
			name:     "empty key",
			key:      NewKey(),
			expected: "query",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.key.String(); got != tt.expected {
				t.Errorf("String() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestKey_String_Deterministic(t *testing.T) {
	key := NewKey("orders", "42", "7")
	first := key.String()

	for i := 0; i < 10; i++ {
		if got := key.String(); got != first {
			t.Errorf("String() not deterministic: got %q, want %q", got, first)
		}
	}
}

func TestKey_HasPrefix(t *testing.T) {
	tests := []struct {
		name     string
		key      Key
		prefix   Key
		expected bool
	}{
		{
			name:     "exact match",
			key:      NewKey("cart", "1"),
			prefix:   NewKey("cart", "1"),
			expected: true,
		},
		{
			name:     "proper prefix",
			key:      NewKey("products", "search", "chair"),
			prefix:   NewKey("products"),
			expected: true,
		},
		{
			name:     "two segment prefix",
			key:      NewKey("products", "search", "chair"),
			prefix:   NewKey("products", "search"),
			expected: true,
		},
		{
			name:     "different resource",
			key:      NewKey("cart", "1"),
			prefix:   NewKey("orders"),
			expected: false,
		},
		{
			name:     "same resource different id",
			key:      NewKey("cart", "1"),
			prefix:   NewKey("cart", "2"),
			expected: false,
		},
		{
			name:     "prefix longer than key",
			key:      NewKey("products"),
			prefix:   NewKey("products", "search"),
			expected: false,
		},
		{
			name:     "empty prefix matches everything",
			key:      NewKey("orders", "1"),
			prefix:   NewKey(),
			expected: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.key.HasPrefix(tt.prefix); got != tt.expected {
				t.Errorf("HasPrefix(%v) = %v, want %v", tt.prefix, got, tt.expected)
			}
		})
	}
}

func TestKey_Equal(t *testing.T) {
	if !NewKey("cart", "1").Equal(NewKey("cart", "1")) {
		t.Error("identical keys should be equal")
	}
	if NewKey("cart", "1").Equal(NewKey("cart")) {
		t.Error("keys of different length should not be equal")
	}
	if NewKey("cart", "1").Equal(NewKey("cart", "2")) {
		t.Error("keys with different segments should not be equal")
	}
}
