package analysis

import (
	"context"
	"sync"

	"github.com/erhandundarofficial/zerobait/internal/providers"
)

// FanOut invokes every applicable adapter concurrently and waits for all of
// them to settle. One slow or failing provider never discards the others'
// results; failures arrive as failed Results, not as missing entries. An
// adapter whose precondition is unmet (domain-scoped with no derivable
// domain) is omitted from the bag entirely.
func FanOut(ctx context.Context, target providers.Target, adapters []providers.Adapter) map[providers.Name]providers.Result {
	results := make(map[providers.Name]providers.Result, len(adapters))

	var mu sync.Mutex
	var wg sync.WaitGroup

	for _, adapter := range adapters {
		if adapter.DomainScoped() && target.Domain == "" {
			continue
		}

		wg.Add(1)

		go func(adapter providers.Adapter) {
			defer wg.Done()

			result := adapter.Analyze(ctx, target)

			mu.Lock()
			results[adapter.Name()] = result
			mu.Unlock()
		}(adapter)
	}

	wg.Wait()

	return results
}
