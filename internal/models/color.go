package models

import (
	"strings"

	"github.com/cespare/xxhash/v2"
)

// CategoryPalette holds the display colours for well-known host categories.
var CategoryPalette = map[string]string{
	"walls":              "#b0b7c3",
	"floors":             "#8d99ae",
	"roofs":              "#6d597a",
	"doors":              "#e09f3e",
	"windows":            "#4ea8de",
	"columns":            "#9e2a2b",
	"structural framing": "#540b0e",
	"furniture":          "#7f5539",
	"webbox":             "#06d6a0",
}

var fallbackColors = []string{
	"#ef476f", "#ffd166", "#118ab2", "#073b4c", "#8338ec",
	"#3a86ff", "#fb5607", "#ff006e", "#2a9d8f", "#e76f51",
}

// CategoryColor returns the palette colour for category, or a stable colour derived from
// the category name when it has no palette entry.
func CategoryColor(category string) string {
	key := strings.ToLower(strings.TrimSpace(category))
	if c, ok := CategoryPalette[key]; ok {
		return c
	}
	return fallbackColors[xxhash.Sum64String(key)%uint64(len(fallbackColors))]
}
