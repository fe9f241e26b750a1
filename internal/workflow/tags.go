package workflow

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"

	"github.com/crucial707/asset-lifecycle/internal/repo"
)

// tagAttempts bounds the random allocator. With a reasonable length the
// collision probability is negligible long before this runs out.
const tagAttempts = 100

// generateUniqueTag draws random fixed-width numeric suffixes under the prefix
// until one is free within the agency, or the attempt budget runs out. Random
// rather than sequential on purpose: agencies may want non-guessable tags.
func generateUniqueTag(ctx context.Context, q repo.DBTX, agencyID int, prefix string, length int) (string, error) {
	if length < 1 || length > 18 {
		return "", fmt.Errorf("%w: tag length must be between 1 and 18", ErrValidation)
	}
	assets := repo.NewAssetRepo(q)
	space := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(length)), nil)

	for i := 0; i < tagAttempts; i++ {
		n, err := rand.Int(rand.Reader, space)
		if err != nil {
			return "", fmt.Errorf("draw tag suffix: %w", err)
		}
		tag := fmt.Sprintf("%s%0*d", prefix, length, n)
		exists, err := assets.TagExists(ctx, agencyID, tag)
		if err != nil {
			return "", err
		}
		if !exists {
			return tag, nil
		}
	}
	return "", fmt.Errorf("%w: no free tag under prefix %q after %d attempts", ErrTagExhausted, prefix, tagAttempts)
}
