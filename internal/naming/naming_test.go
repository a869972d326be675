package naming

import (
	"strings"
	"testing"
)

func TestShortHashStability(t *testing.T) {
	h1 := ShortHash("some-input", 8)
	h2 := ShortHash("some-input", 8)
	if h1 != h2 {
		t.Fatalf("hash not stable: %s vs %s", h1, h2)
	}
	if len(h1) != 8 {
		t.Fatalf("expected hash length 8, got %d", len(h1))
	}
	if h1 == ShortHash("other-input", 8) {
		t.Fatalf("distinct inputs produced identical hashes")
	}
}

func TestShortHashClamp(t *testing.T) {
	h := ShortHash("x", 1000)
	if len(h) != 40 {
		t.Fatalf("expected full sha1 hex length 40, got %d", len(h))
	}
}

func TestPathHash(t *testing.T) {
	if PathHash("/var/lib/data") != PathHash("/var/lib/data") {
		t.Fatalf("path hash not stable")
	}
	if len(PathHash("/var/lib/data")) != defaultLength {
		t.Fatalf("unexpected path hash length")
	}
}

func TestValidateAppName(t *testing.T) {
	cases := []struct {
		name    string
		value   string
		wantErr bool
	}{
		{name: "valid lowercase", value: "master", wantErr: false},
		{name: "valid uppercase", value: "MY-APP", wantErr: false},
		{name: "valid mixed", value: "Feature-123", wantErr: false},
		{name: "empty", value: "", wantErr: true},
		{name: "contains underscore", value: "my_app", wantErr: true},
		{name: "contains slash", value: "my/app", wantErr: true},
		{name: "starts with hyphen", value: "-app", wantErr: true},
		{name: "too long", value: strings.Repeat("a", 64), wantErr: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateAppName(tc.value)
			if tc.wantErr && err == nil {
				t.Fatalf("expected error but got nil")
			}
			if !tc.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestValidateServiceName(t *testing.T) {
	cases := []struct {
		name    string
		value   string
		wantErr bool
	}{
		{name: "valid", value: "db", wantErr: false},
		{name: "valid with hyphen", value: "db-replica", wantErr: false},
		{name: "uppercase rejected", value: "DB", wantErr: true},
		{name: "empty", value: "", wantErr: true},
		{name: "ends with hyphen", value: "db-", wantErr: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateServiceName(tc.value)
			if tc.wantErr && err == nil {
				t.Fatalf("expected error but got nil")
			}
			if !tc.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}
