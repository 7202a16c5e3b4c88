// Package assistant produces the explanation text that becomes a
// notebook section body. The synchronization engine treats that text as
// opaque; this package owns how it is generated.
package assistant

import "context"

// Explainer turns query input into a ready-to-store section body.
type Explainer interface {
	// Explain returns a markdown section body for the given input,
	// starting with its "## <identity>" heading line.
	Explain(ctx context.Context, input string) (string, error)

	// Verify checks that the provider is reachable and the credentials
	// work, without storing anything.
	Verify(ctx context.Context) error
}

// Composer produces a practice sentence weaving two notebook words
// together. The result is printed, not stored.
type Composer interface {
	Compose(ctx context.Context, word1, word2 string) (string, error)
}
