package engine

import "context"

// LightFetcher retrieves page text cheaply, without running scripts. It is
// used to look for the not-accepting marker.
type LightFetcher interface {
	FetchLight(ctx context.Context, url string) (string, error)
}

// Renderer retrieves the fully rendered page. An empty result with a nil
// error means the calendar could not be extracted and is treated as
// degraded output, not a failure.
type Renderer interface {
	FetchRendered(ctx context.Context, url string) (string, error)
}
