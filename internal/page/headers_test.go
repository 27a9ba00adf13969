package page

import (
	"slices"
	"testing"
)

func TestBrowserHeaders(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		h := BrowserHeaders()

		ua := h.Get("User-Agent")
		if !slices.Contains(userAgents, ua) {
			t.Fatalf("unexpected user agent %q", ua)
		}
		seen[ua] = true

		if lang := h.Get("Accept-Language"); !slices.Contains(acceptLanguages, lang) {
			t.Fatalf("unexpected accept-language %q", lang)
		}
		if h.Get("Sec-Fetch-Mode") != "navigate" || h.Get("Cache-Control") != "no-cache" {
			t.Fatalf("missing navigation headers: %v", h)
		}
	}

	if len(seen) < 2 {
		t.Fatalf("expected user agents to rotate, saw %d", len(seen))
	}
}
