package narrate

import (
	"strings"

	"leaflens/domain"
)

// RenderInfo reads a record aloud as "Label: value." fragments in field
// order. Blank values, list items and property pairs are skipped, and so is
// a field left with nothing to say.
func RenderInfo(info domain.PlantInfo) string {
	parts := make([]string, 0, len(info.Fields))
	for _, f := range info.Fields {
		var value string
		switch f.Value.Kind {
		case domain.KindList:
			items := make([]string, 0, len(f.Value.List))
			for _, item := range f.Value.List {
				if !blank(item) {
					items = append(items, item)
				}
			}
			value = strings.Join(items, ", ")
		case domain.KindMap:
			pairs := make([]string, 0, len(f.Value.Map))
			for _, p := range f.Value.Map {
				label := p.Label
				if label == "" {
					label = p.Key
				}
				if blank(label) || blank(p.Value) {
					continue
				}
				pairs = append(pairs, label+": "+p.Value)
			}
			value = strings.Join(pairs, ", ")
		default:
			value = f.Value.Text
		}
		if blank(value) {
			continue
		}
		parts = append(parts, f.Label+": "+value+".")
	}
	return strings.Join(parts, " ")
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}

func truncate(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit])
}
