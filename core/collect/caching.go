package collect

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"time"

	"github.com/huangsam/mergespot/internal/contract"
	"github.com/huangsam/mergespot/schema"
)

// currentCacheVersion defines the version of the cache schema
const currentCacheVersion = 1

// cacheTTL is how long a cached merge log parse stays valid.
const cacheTTL = 7 * 24 * time.Hour

// CachedCollectConflicts behaves like CollectConflicts but reuses a parsed
// merge log from the activity cache when one is available. Path filters and
// the existence check always run on the loaded data, so a cache hit reflects
// the current working tree.
func CachedCollectConflicts(ctx context.Context, cfg *contract.Config, client contract.GitClient, mgr contract.CacheManager) (*schema.ConflictSet, error) {
	var store contract.CacheStore
	if mgr != nil {
		store = mgr.GetConflictStore()
	}
	if store == nil {
		// Fallback to direct computation
		return CollectConflicts(ctx, cfg, client)
	}

	key := generateCacheKey(ctx, cfg, client)

	set := checkCacheHit(store, key)
	if set == nil {
		var err error
		if set, err = computeAndStore(ctx, cfg, client, store, key); err != nil {
			return nil, err
		}
	}
	return FilterExisting(FilterPaths(cfg, set), FileExistsIn(cfg.RepoPath)), nil
}

// checkCacheHit attempts to retrieve and validate a cached result
func checkCacheHit(store contract.CacheStore, key string) *schema.ConflictSet {
	data, version, ts, err := store.Get(key)
	if err != nil {
		return nil // Cache miss
	}

	if version != currentCacheVersion || time.Since(time.Unix(ts, 0)) > cacheTTL {
		return nil // Stale or version mismatch
	}

	set := schema.NewConflictSet()
	if err := json.Unmarshal(data, set); err != nil {
		return nil
	}
	return set
}

// computeAndStore computes the unfiltered result and stores it in cache
func computeAndStore(ctx context.Context, cfg *contract.Config, client contract.GitClient, store contract.CacheStore, key string) (*schema.ConflictSet, error) {
	set, err := collectRaw(ctx, cfg, client)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(set); err == nil {
		if err := store.Set(key, data, currentCacheVersion, time.Now().Unix()); err != nil {
			contract.LogWarn("Failed to cache merge log", err)
		}
	}
	return set, nil
}

// generateCacheKey creates a unique key based on analysis parameters
func generateCacheKey(ctx context.Context, cfg *contract.Config, client contract.GitClient) string {
	// Include repo hash to invalidate cache when repository state changes
	repoHash, err := client.GetRepoHash(ctx, cfg.RepoPath)
	if err != nil {
		repoHash = ""
	}

	key := fmt.Sprintf("conflicts:%s:%d:%d:%s",
		cfg.RepoPath,
		cfg.GetAnalysisSince().Unix(),
		cfg.GetAnalysisUntil().Unix(),
		repoHash,
	)
	return fmt.Sprintf("%x", sha256.Sum256([]byte(key)))
}
