package fetcher

import (
	"context"
)

// PageFetcher retrieves the rendered dashboard text. The rendering
// mechanism itself (headless browser, render proxy, ...) lives behind
// the configured URL and is not this package's concern.
type PageFetcher interface {
	FetchPage(ctx context.Context) (string, error)
}
