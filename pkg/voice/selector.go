package voice

// Select picks the best speaker for a language. It is deterministic and total:
// the same registry and inputs always yield the same speaker, and a speaker is
// always returned even for a language the catalog does not know.
//
// Resolution order:
//  1. An explicit speaker id wins if that speaker supports the language.
//  2. No candidate supports the language: the registry-wide default.
//  3. Priority tables in declared order: first table containing the language
//     whose provider has a candidate wins (candidates in declaration order).
//  4. Otherwise the first candidate in declaration order.
func (r *Registry) Select(lang Language, explicitID string) *Speaker {
	if explicitID != "" {
		if s, ok := r.byID[explicitID]; ok && s.Supports(lang) {
			return s
		}
	}

	candidates := r.SpeakersFor(lang)
	if len(candidates) == 0 {
		return r.Default()
	}

	for i := range r.priority {
		t := &r.priority[i]
		if !t.contains(lang) {
			continue
		}
		for _, c := range candidates {
			if c.Provider == t.Provider {
				return c
			}
		}
	}

	return candidates[0]
}
