package bot

import (
	"context"
	"sync"
)

// analyzerHolder builds the analyzer once, on first request. A failed build
// is not cached, so a later request retries the factory (Ollama may have
// come up in the meantime).
type analyzerHolder struct {
	mu      sync.Mutex
	factory AnalyzerFactory
	cached  Analyzer
}

func (h *analyzerHolder) get(ctx context.Context) (Analyzer, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.cached != nil {
		return h.cached, nil
	}
	a, err := h.factory(ctx)
	if err != nil {
		return nil, err
	}
	h.cached = a
	return a, nil
}
