package main

import (
	"context"

	"github.com/trevor-scheer/graphql-analyzer/internal/introspect"
)

func introspectSDL(ctx context.Context, url string) (string, error) {
	return introspect.Download(ctx, nil, url)
}
