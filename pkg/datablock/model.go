// Package datablock serves pre-configured table queries through a Redis
// result cache, so published tables are built once per release rather than on
// every request.
package datablock

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/openstats/tablebuilder/pkg/observation"
)

// DataBlock is a saved table query embedded in published release content. Its
// query never changes after publication, so its built result can be cached
// until the release is amended.
type DataBlock struct {
	ID              uuid.UUID         `json:"id"`
	PublicationSlug string            `json:"publicationSlug"`
	ReleaseSlug     string            `json:"releaseSlug"`
	Query           observation.Query `json:"query"`
}

// CachePath is the cache key for the block's built result, scoped by
// publication and release so amending a release never serves a stale sibling.
func (d *DataBlock) CachePath() string {
	return fmt.Sprintf("%s/%s/%s", d.PublicationSlug, d.ReleaseSlug, d.ID)
}
