// Package resources answers whether a recreation resource, the owner of
// stored assets, exists.
package resources

import "context"

// Repo looks up recreation resources.
type Repo interface {
	Exists(ctx context.Context, recResourceID string) (bool, error)
}
