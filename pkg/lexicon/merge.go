package lexicon

// Merge combines lexicons into a new one. Entries sharing reading, mode
// and surface are collapsed to the one with the lowest word cost, kept at
// the position where the key was first seen. The result uses the options
// of the first lexicon.
func Merge(lexicons ...*Lexicon) *Lexicon {
	opts := DefaultOptions()
	if len(lexicons) > 0 && lexicons[0] != nil {
		opts = lexicons[0].opts
	}
	merged := New(opts)

	type key struct {
		reading string
		mode    Mode
		surface string
	}
	positions := make(map[key]int)
	var items []item
	for _, lex := range lexicons {
		if lex == nil {
			continue
		}
		lex.mu.Lock()
		source := lex.items
		lex.mu.Unlock()

		for _, it := range source {
			k := key{it.entry.Reading, it.entry.Mode, it.entry.Surface}
			if i, ok := positions[k]; ok {
				if it.entry.Cost() < items[i].entry.Cost() {
					items[i] = it
				}
				continue
			}
			positions[k] = len(items)
			items = append(items, it)
		}
	}
	merged.items = items
	return merged
}
