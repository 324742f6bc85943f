package config

import "github.com/hargabyte/px/internal/sparql"

// DefaultConfig returns configuration with sensible defaults.
// These defaults are used when the config file is missing specific fields.
// The selector and properties have no useful defaults; the shipped example
// tracks sex/gender and place of birth for humans grouped by country of
// citizenship.
func DefaultConfig() *Config {
	return &Config{
		Endpoint: sparql.DefaultEndpoint,
		Selector: "wdt:P31 wd:Q5",
		Grouping: GroupingConfig{
			Property:  "P27",
			Threshold: 20,
		},
		Properties: []PropertyConfig{
			{Property: "P21"},
			{Property: "P19", Title: "birth"},
		},
		PropertyThreshold: 0,
		Cache: CacheConfig{
			TTLHours: 24,
		},
	}
}

// Merge merges loaded config with defaults.
// Values from loaded config take precedence over defaults.
// Returns a new Config with merged values.
func Merge(loaded, defaults *Config) *Config {
	result := &Config{}

	if loaded.Endpoint != "" {
		result.Endpoint = loaded.Endpoint
	} else {
		result.Endpoint = defaults.Endpoint
	}

	if loaded.Selector != "" {
		result.Selector = loaded.Selector
	} else {
		result.Selector = defaults.Selector
	}

	result.Grouping = mergeGroupingConfig(loaded.Grouping, defaults.Grouping)

	if len(loaded.Properties) > 0 {
		result.Properties = loaded.Properties
	} else {
		result.Properties = defaults.Properties
	}

	// PropertyThreshold: zero is a meaningful value (no filtering), so the
	// loaded value always wins.
	result.PropertyThreshold = loaded.PropertyThreshold

	// OmitNoGroupRow: the row is included unless explicitly omitted.
	result.OmitNoGroupRow = loaded.OmitNoGroupRow

	result.Cache = mergeCacheConfig(loaded.Cache, defaults.Cache)

	return result
}

func mergeGroupingConfig(loaded, defaults GroupingConfig) GroupingConfig {
	result := GroupingConfig{}

	if loaded.Property != "" {
		result.Property = loaded.Property
	} else {
		result.Property = defaults.Property
	}

	if loaded.Threshold != 0 {
		result.Threshold = loaded.Threshold
	} else {
		result.Threshold = defaults.Threshold
	}

	// Higher grouping fields are purely optional
	result.HigherGrouping = loaded.HigherGrouping
	result.HigherGroupingType = loaded.HigherGroupingType
	result.Link = loaded.Link

	return result
}

func mergeCacheConfig(loaded, defaults CacheConfig) CacheConfig {
	result := CacheConfig{}

	if loaded.TTLHours != 0 {
		result.TTLHours = loaded.TTLHours
	} else {
		result.TTLHours = defaults.TTLHours
	}

	result.Disabled = loaded.Disabled

	return result
}

// ValidHigherGroupingTypes lists the valid values for higher_grouping_type
var ValidHigherGroupingTypes = []string{"", "country"}

// IsValidHigherGroupingType checks if the given type value is valid
func IsValidHigherGroupingType(groupingType string) bool {
	for _, valid := range ValidHigherGroupingTypes {
		if groupingType == valid {
			return true
		}
	}
	return false
}
