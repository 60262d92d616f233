// Package config centralizes the simulation parameters that the
// teacher scattered as literal constants through game.go/map_loader.go
// (map root, script root, tick rate), per the "Global mutable state"
// design note: a `GameContext`-shaped struct threaded through entry
// points instead of package-level constants.
package config

import "time"

// Section holds the tunables for one running world instance.
type Section struct {
	TickRate        int
	MapRoot         string
	ScriptRoot      string
	DefaultMap      string
	LandscapeWidth  int
	LandscapeHeight int
	GzipThreshold   int
	SaveInterval    time.Duration
	TempDir         string
	HotReloadScripts bool
}

// Default returns the section config used when no overrides are
// supplied via match params.
func Default() Section {
	return Section{
		TickRate:        60,
		MapRoot:         "/nakama/data/maps",
		ScriptRoot:      "/nakama/data/scripts",
		DefaultMap:      "elderford/world.json",
		LandscapeWidth:  2000,
		LandscapeHeight: 2000,
		GzipThreshold:   256,
		SaveInterval:    5 * time.Second,
		TempDir:         "/tmp/openworld-core",
	}
}

// WithOverrides applies match-init params on top of the defaults.
func (s Section) WithOverrides(params map[string]interface{}) Section {
	if v, ok := params["map"].(string); ok && v != "" {
		s.DefaultMap = v
	}
	if v, ok := params["mapRoot"].(string); ok && v != "" {
		s.MapRoot = v
	}
	if v, ok := params["scriptRoot"].(string); ok && v != "" {
		s.ScriptRoot = v
	}
	if v, ok := params["tickRate"].(float64); ok && v > 0 {
		s.TickRate = int(v)
	}
	if v, ok := params["hotReloadScripts"].(bool); ok {
		s.HotReloadScripts = v
	}
	return s
}
