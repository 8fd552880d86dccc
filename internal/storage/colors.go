package storage

import (
	"math/rand/v2"
	"regexp"
)

// Palette is the set of display colors handed out to new users.
var Palette = []string{
	"#FF6B6B", "#4ECDC4", "#45B7D1", "#96CEB4",
	"#FFEAA7", "#DDA0DD", "#98D8C8", "#F7DC6F",
	"#FF9FF3", "#54A0FF", "#5F27CD", "#00D2D3",
	"#FF9F43", "#10AC84", "#EE5A24", "#0984E3",
}

// RandomColor picks a palette entry.
func RandomColor() string {
	return Palette[rand.IntN(len(Palette))]
}

var hexColor = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

// ValidateColor accepts an empty color (unchanged) or a #RRGGBB value.
func ValidateColor(color string) error {
	if color != "" && !hexColor.MatchString(color) {
		return Validationf("color %q is not a #RRGGBB value", color)
	}
	return nil
}
