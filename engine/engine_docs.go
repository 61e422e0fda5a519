package engine

import "sort"

// trimDocs keeps only the maxDocs most recently accessed detectors. Dropped
// detectors lose their pending ranges.
func (e *Engine) trimDocs(maxDocs int) {
	if len(e.docs) <= maxDocs {
		return
	}

	type entry struct {
		key   docKey
		state *docState
	}

	entries := make([]entry, 0, len(e.docs))
	for key, state := range e.docs {
		entries = append(entries, entry{key, state})
	}

	// Most recent first
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].state.lastAccessNs > entries[j].state.lastAccessNs
	})

	for _, en := range entries[maxDocs:] {
		en.state.detector.Stop()
		delete(e.docs, en.key)
	}
}

// dropDocs cancels and forgets every detector of editor.
func (e *Engine) dropDocs(editor Editor) int {
	dropped := 0
	for key, state := range e.docs {
		if key.editor != editor {
			continue
		}
		state.detector.Stop()
		delete(e.docs, key)
		dropped++
	}
	return dropped
}

// DocumentCount returns the number of live detectors. Only safe from the event
// loop or after Stop.
func (e *Engine) DocumentCount() int {
	return len(e.docs)
}
