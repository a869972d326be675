// Package naming provides identifier validation and short deterministic
// hashes used in generated resource names. Centralizing the rules here keeps
// call sites free of string manipulation details.
package naming

import (
	"crypto/sha1"
	"fmt"
	"strings"

	utilvalidation "k8s.io/apimachinery/pkg/util/validation"
)

// defaultLength is the hex length of short hashes (bits ~ length * 4).
const defaultLength = 8

// ShortHash returns the hex SHA1 prefix of length n (clamped to digest size).
func ShortHash(s string, n int) string {
	sum := sha1.Sum([]byte(s))
	h := fmt.Sprintf("%x", sum)
	if n > len(h) {
		n = len(h)
	}
	return h[:n]
}

// PathHash returns a short hash identifying a mount path, used where a path
// must participate in a flat resource name.
func PathHash(path string) string {
	return ShortHash(path, defaultLength)
}

// ValidateAppName checks that an application name, once lowercased, is usable
// as a DNS-1123 label. The raw name may contain uppercase letters; every
// backend-visible name derives from the lowercased form.
func ValidateAppName(name string) error {
	if name == "" {
		return fmt.Errorf("app name must not be empty")
	}
	if errs := utilvalidation.IsDNS1123Label(strings.ToLower(name)); len(errs) > 0 {
		return fmt.Errorf("invalid app name %q: %s", name, strings.Join(errs, ", "))
	}
	return nil
}

// ValidateServiceName checks that a service name is a DNS-1123 label as-is.
// Service names become network endpoint names and must not be case-folded.
func ValidateServiceName(name string) error {
	if name == "" {
		return fmt.Errorf("service name must not be empty")
	}
	if errs := utilvalidation.IsDNS1123Label(name); len(errs) > 0 {
		return fmt.Errorf("invalid service name %q: %s", name, strings.Join(errs, ", "))
	}
	return nil
}
