package kube

import (
	"bytes"
	"fmt"
	"os"

	yaml "gopkg.in/yaml.v3"
	"k8s.io/apimachinery/pkg/api/resource"
	"k8s.io/apimachinery/pkg/runtime"
)

// RenderManifest renders objects as one multi-document YAML stream, stripped
// of the noise typed-object conversion leaves behind, for manifest logging.
func RenderManifest(objs []runtime.Object) (string, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	for _, obj := range objs {
		if obj == nil {
			continue
		}
		m, err := runtime.DefaultUnstructuredConverter.ToUnstructured(obj)
		if err != nil {
			return "", fmt.Errorf("convert %T: %w", obj, err)
		}
		stripManifestNoise(m)
		if err := enc.Encode(m); err != nil {
			return "", fmt.Errorf("encode %T: %w", obj, err)
		}
	}
	if err := enc.Close(); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// stripManifestNoise drops null creationTimestamp and empty status stubs,
// then prunes nil values and maps that became empty.
func stripManifestNoise(m map[string]any) {
	if meta, ok := m["metadata"].(map[string]any); ok {
		delete(meta, "creationTimestamp")
	}
	if st, ok := m["status"].(map[string]any); ok && len(st) == 0 {
		delete(m, "status")
	}
	pruneEmpty(m)
}

// pruneEmpty removes nil values and empty nested maps in place. Slices are
// kept even when empty; their map elements are pruned recursively.
func pruneEmpty(m map[string]any) {
	for k, v := range m {
		switch x := v.(type) {
		case nil:
			delete(m, k)
		case map[string]any:
			pruneEmpty(x)
			if len(x) == 0 {
				delete(m, k)
			}
		case []any:
			for _, item := range x {
				if im, ok := item.(map[string]any); ok {
					pruneEmpty(im)
				}
			}
		}
	}
}

// writeTempFile persists bytes to a throwaway file and returns its path with
// a remove function. The remove function is nil when an error is returned.
func writeTempFile(pattern string, data []byte) (string, func(), error) {
	f, err := os.CreateTemp("", pattern)
	if err != nil {
		return "", nil, fmt.Errorf("create temp file: %w", err)
	}
	_, werr := f.Write(data)
	cerr := f.Close()
	if werr == nil {
		werr = cerr
	}
	if werr != nil {
		_ = os.Remove(f.Name())
		return "", nil, fmt.Errorf("write temp file %s: %w", f.Name(), werr)
	}
	return f.Name(), func() { _ = os.Remove(f.Name()) }, nil
}

// quantityFromBytes converts a byte count to a quantity rounded up to a whole
// Mi so the API server reports it in binary units. Non-positive input yields
// the zero quantity and is left to server-side validation.
func quantityFromBytes(b int64) resource.Quantity {
	if b <= 0 {
		return resource.Quantity{}
	}
	const mi = int64(1 << 20)
	rounded := (b + mi - 1) / mi * mi
	return *resource.NewQuantity(rounded, resource.BinarySI)
}
