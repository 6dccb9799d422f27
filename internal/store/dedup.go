package store

import (
	"context"
	"fmt"

	"golang.org/x/sync/singleflight"
)

// DedupStore wraps a TreeStore and collapses concurrent identical blob
// reads into a single underlying read. Hierarchy walks for files in the
// same folder re-read the same config blobs, so this is the hot path.
type DedupStore struct {
	TreeStore
	group singleflight.Group
}

func NewDedupStore(inner TreeStore) *DedupStore {
	return &DedupStore{TreeStore: inner}
}

type blobResult struct {
	content []byte
	found   bool
}

func (s *DedupStore) ReadBlob(ctx context.Context, project string, rev Revision, path string) ([]byte, bool, error) {
	key := fmt.Sprintf("%s\x00%s\x00%s", project, rev, path)
	v, err, _ := s.group.Do(key, func() (any, error) {
		content, found, err := s.TreeStore.ReadBlob(ctx, project, rev, path)
		if err != nil {
			return nil, err
		}
		return blobResult{content: content, found: found}, nil
	})
	if err != nil {
		return nil, false, err
	}
	res := v.(blobResult)
	return res.content, res.found, nil
}
