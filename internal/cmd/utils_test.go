package cmd

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/hargabyte/px/internal/config"
)

func TestLoadConfigWithConfigFlag(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, config.ConfigFileName)

	content := "selector_sparql: \"wdt:P31 wd:Q41960\"\ngrouping:\n  property: P551\nproperties:\n  - property: P21\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	configPath = path
	t.Cleanup(func() { configPath = "" })

	cfg, pxDir, err := loadConfig()
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.Selector != "wdt:P31 wd:Q41960" {
		t.Errorf("selector = %q", cfg.Selector)
	}
	if pxDir != dir {
		t.Errorf("pxDir = %q, want %q", pxDir, dir)
	}
}

func TestLoadConfigMissing(t *testing.T) {
	configPath = filepath.Join(t.TempDir(), "nope.yaml")
	t.Cleanup(func() { configPath = "" })

	if _, _, err := loadConfig(); err == nil {
		t.Error("expected error for missing config, got nil")
	}
}

func TestStatsConfig(t *testing.T) {
	cfg := &config.Config{
		Selector: "wdt:P31 wd:Q41960",
		Grouping: config.GroupingConfig{
			Property:  "P551",
			Threshold: 5,
			Link:      "Foo",
		},
		Properties: []config.PropertyConfig{
			{Property: "P3", Qualifier: "P5", Value: "Q4", Title: "t"},
		},
		PropertyThreshold: 10,
	}

	sc := statsConfig(cfg, noopClient{}, nil)

	if sc.Selector != cfg.Selector || sc.GroupingProperty != "P551" {
		t.Errorf("conversion lost selector or grouping: %+v", sc)
	}
	if sc.GroupingThreshold != 5 || sc.PropertyThreshold != 10 {
		t.Errorf("thresholds = (%d, %d), want (5, 10)", sc.GroupingThreshold, sc.PropertyThreshold)
	}
	if len(sc.Properties) != 1 || sc.Properties[0].Key() != "P3Q4P5" {
		t.Errorf("properties = %+v", sc.Properties)
	}
	if !sc.NoGroupRow {
		t.Error("NoGroupRow should be on unless omit_no_group_row is set")
	}

	cfg.OmitNoGroupRow = true
	if statsConfig(cfg, noopClient{}, nil).NoGroupRow {
		t.Error("NoGroupRow should be off when omit_no_group_row is set")
	}
}

func TestCacheTTL(t *testing.T) {
	cfg := &config.Config{Cache: config.CacheConfig{TTLHours: 24}}
	if got := cacheTTL(cfg); got != 24*time.Hour {
		t.Errorf("cacheTTL = %v, want 24h", got)
	}
}
