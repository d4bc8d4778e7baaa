package projector

import (
	"hash/fnv"
	"sync"

	"github.com/Totem-gdn/totem-asset-indexer/internal/domain"
)

const lockStripes = 64

// tokenLocks serializes job application per token with striped locks. Two
// tokens may share a stripe; that only costs an occasional wait, never
// correctness.
type tokenLocks struct {
	stripes [lockStripes]sync.Mutex
}

func newTokenLocks() *tokenLocks {
	return &tokenLocks{}
}

func (l *tokenLocks) lockFor(assetType domain.AssetType, tokenID string) *sync.Mutex {
	h := fnv.New32a()
	_, _ = h.Write([]byte(assetType))
	_, _ = h.Write([]byte{':'})
	_, _ = h.Write([]byte(tokenID))

	return &l.stripes[h.Sum32()%lockStripes]
}
