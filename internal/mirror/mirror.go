// Package mirror moves a package repository between its remote home and a
// local scratch directory. The repo-mirror releaser pulls the repository
// down, merges fresh packages in and pushes the result back.
package mirror

import "context"

// Mirror transfers a package repository. Push replaces the remote content
// with the local tree, removals included.
type Mirror interface {
	Pull(ctx context.Context, dest string) error
	Push(ctx context.Context, src string) error
	// Location describes the remote end for logs and warnings.
	Location() string
}
