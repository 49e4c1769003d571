package provider

import (
	"sort"
	"sync"
	"testing"
)

func TestNewObjectKeyExtensions(t *testing.T) {
	cases := []struct {
		original string
		wantExt  string
	}{
		{"photo.JPG", ".jpg"},
		{"report.pdf", ".pdf"},
		{"archive.tar.gz", ".gz"},
		{"noextension", ""},
		{"trailingdot.", ""},
		{"weird.p~g", ""},
		{"unicode.päg", ""},
		{"dotfiles.deeply.nested.webp", ".webp"},
		{"overlong.thisextensionisfartoolong", ""},
	}
	for _, tc := range cases {
		key, err := NewObjectKey(tc.original)
		if err != nil {
			t.Fatalf("NewObjectKey(%q): %v", tc.original, err)
		}
		// 36 chars of UUID, then the sanitized extension.
		if len(key) < 36 {
			t.Fatalf("NewObjectKey(%q) = %q, too short", tc.original, key)
		}
		if got := key[36:]; got != tc.wantExt {
			t.Errorf("NewObjectKey(%q) extension = %q, want %q", tc.original, got, tc.wantExt)
		}
	}
}

// Keys generated one after another must sort lexically in generation
// order.
func TestObjectKeysSortable(t *testing.T) {
	const n = 100000
	keys := make([]string, n)
	for i := range keys {
		key, err := NewObjectKey("file.bin")
		if err != nil {
			t.Fatalf("key %d: %v", i, err)
		}
		keys[i] = key
	}

	if !sort.StringsAreSorted(keys) {
		for i := 1; i < n; i++ {
			if keys[i] <= keys[i-1] {
				t.Fatalf("key %d %q not after %q", i, keys[i], keys[i-1])
			}
		}
	}

	seen := make(map[string]struct{}, n)
	for _, key := range keys {
		if _, dup := seen[key]; dup {
			t.Fatalf("duplicate key %q", key)
		}
		seen[key] = struct{}{}
	}
}

func TestObjectKeysConcurrentUnique(t *testing.T) {
	const workers, perWorker = 10, 10000

	var wg sync.WaitGroup
	results := make([][]string, workers)

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			keys := make([]string, 0, perWorker)
			for i := 0; i < perWorker; i++ {
				key, err := NewObjectKey("file.bin")
				if err != nil {
					t.Errorf("worker %d: %v", w, err)
					return
				}
				keys = append(keys, key)
			}
			results[w] = keys
		}()
	}
	wg.Wait()

	seen := make(map[string]struct{}, workers*perWorker)
	for w, keys := range results {
		// Each goroutine must observe its own keys in increasing order.
		for i := 1; i < len(keys); i++ {
			if keys[i] <= keys[i-1] {
				t.Fatalf("worker %d: key %q not after %q", w, keys[i], keys[i-1])
			}
		}
		for _, key := range keys {
			if _, dup := seen[key]; dup {
				t.Fatalf("duplicate key %q across workers", key)
			}
			seen[key] = struct{}{}
		}
	}
	if len(seen) != workers*perWorker {
		t.Errorf("generated %d unique keys, want %d", len(seen), workers*perWorker)
	}
}
