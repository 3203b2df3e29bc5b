package embedding

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/phonewise/phonerag/common/logger"
)

// TieredProvider fails over across an ordered list of providers. Once a tier
// fails it stays demoted for the life of the process; quota exhaustion and
// revoked keys do not heal mid-run, so re-probing a dead tier on every request
// only adds latency.
type TieredProvider struct {
	providers []Provider
	active    int32
}

// NewTieredProvider wraps the providers in priority order. The first provider
// is the preferred tier.
func NewTieredProvider(providers []Provider) *TieredProvider {
	return &TieredProvider{providers: providers}
}

func (t *TieredProvider) GetEmbedding(ctx context.Context, text string) ([]float32, error) {
	vectors, err := t.GetEmbeddings(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

func (t *TieredProvider) GetEmbeddings(ctx context.Context, texts []string) ([][]float32, error) {
	var lastErr error
	for i := int(atomic.LoadInt32(&t.active)); i < len(t.providers); i++ {
		vectors, err := t.providers[i].GetEmbeddings(ctx, texts)
		if err == nil {
			return vectors, nil
		}
		lastErr = err
		if i+1 < len(t.providers) {
			logger.Warnf("embedding tier %d failed, demoting to tier %d: %v", i, i+1, err)
			atomic.CompareAndSwapInt32(&t.active, int32(i), int32(i+1))
		}
	}
	return nil, fmt.Errorf("all embedding tiers failed: %w", lastErr)
}

// Dimensions reports the vector width of the currently active tier.
func (t *TieredProvider) Dimensions() int {
	i := int(atomic.LoadInt32(&t.active))
	if i >= len(t.providers) {
		i = len(t.providers) - 1
	}
	return t.providers[i].Dimensions()
}

// ActiveTier reports the index of the tier serving requests, for diagnostics.
func (t *TieredProvider) ActiveTier() int {
	return int(atomic.LoadInt32(&t.active))
}
