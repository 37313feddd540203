package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestParseAppliesDefaults(t *testing.T) {
	c, err := Parse([]byte("environment: test\nupstream:\n  base_url: http://upstream.local/\n"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if c.Upstream.BaseURL != "http://upstream.local" {
		t.Fatalf("expected trailing slash trimmed, got %q", c.Upstream.BaseURL)
	}
	if c.Server.Port != 7088 {
		t.Fatalf("unexpected default port %d", c.Server.Port)
	}
	if c.Sessions.Backend != "memory" || c.Sessions.TTL != 30*time.Minute {
		t.Fatalf("unexpected session defaults %+v", c.Sessions)
	}
	if c.Upstream.Timeout != 15*time.Second {
		t.Fatalf("unexpected upstream timeout %v", c.Upstream.Timeout)
	}
}

func TestParseRejectsInvalid(t *testing.T) {
	cases := map[string]string{
		"missing environment": "upstream:\n  base_url: http://x\n",
		"missing upstream":    "environment: test\n",
		"bad scheme":          "environment: test\nupstream:\n  base_url: ftp://x\n",
		"bad backend":         "environment: test\nupstream:\n  base_url: http://x\nsessions:\n  backend: disk\n",
		"events no brokers":   "environment: test\nupstream:\n  base_url: http://x\nevents:\n  enabled: true\n",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := Parse([]byte(doc)); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestLoadWithEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("environment: test\nupstream:\n  base_url: http://x\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("UPSTREAM_BASE_URL", "https://override.local/")
	t.Setenv("PORT", "9090")

	c, err := LoadWithEnv(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.Upstream.BaseURL != "https://override.local" {
		t.Fatalf("unexpected base url %q", c.Upstream.BaseURL)
	}
	if c.Server.Port != 9090 {
		t.Fatalf("unexpected port %d", c.Server.Port)
	}
}
