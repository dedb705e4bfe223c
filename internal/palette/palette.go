// Package palette assigns one stable color to each categorical label.
package palette

import (
	"math"
	"sort"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

// goldenAngle spreads successive hues as far apart as possible.
const goldenAngle = 137.50776405003785

// Fallback is used for labels outside the palette.
var Fallback = colorful.Color{R: 0xaa / 255.0, G: 0xaa / 255.0, B: 0xaa / 255.0}

// Palette maps labels to colors. It is a value derived purely from a label
// set; build a new one when the set changes.
type Palette struct {
	key    string
	colors map[string]colorful.Color
}

// New builds the palette for the distinct labels in labels. The result is
// independent of label order and repetition.
func New(labels []string) Palette {
	set := Distinct(labels)
	sort.Strings(set)

	colors := make(map[string]colorful.Color, len(set))
	for i, l := range set {
		hue := math.Mod(float64(i)*goldenAngle, 360)
		colors[l] = colorful.Hsv(hue, 0.65, 0.9)
	}
	return Palette{key: strings.Join(set, "\x00"), colors: colors}
}

// Key identifies the label set the palette was built from.
func (p Palette) Key() string {
	return p.key
}

// Len returns the number of labels.
func (p Palette) Len() int {
	return len(p.colors)
}

// Color returns the label's color or Fallback.
func (p Palette) Color(label string) colorful.Color {
	if c, ok := p.colors[label]; ok {
		return c
	}
	return Fallback
}

// Distinct returns labels with duplicates removed, in first-seen order.
func Distinct(labels []string) []string {
	seen := make(map[string]struct{}, len(labels))
	out := make([]string, 0, len(labels))
	for _, l := range labels {
		if _, ok := seen[l]; ok {
			continue
		}
		seen[l] = struct{}{}
		out = append(out, l)
	}
	return out
}

// KeyOf returns the palette key New would produce for labels, so callers
// can skip rebuilding when the label set is unchanged.
func KeyOf(labels []string) string {
	set := Distinct(labels)
	sort.Strings(set)
	return strings.Join(set, "\x00")
}
