// Package iocache persists merge-conflict scans and analysis history in SQL stores.
package iocache

import (
	"sync"

	"github.com/huangsam/mergespot/internal/contract"
)

// CacheStoreManager manages the conflict cache and the analysis history store.
type CacheStoreManager struct {
	sync.RWMutex // Protects the store pointers during initialization
	conflicts    contract.CacheStore
	analysis     contract.AnalysisStore
}

var _ contract.CacheManager = &CacheStoreManager{} // Compile-time check

// GetConflictStore returns the CacheStore holding parsed merge logs.
func (mgr *CacheStoreManager) GetConflictStore() contract.CacheStore {
	mgr.RLock()
	defer mgr.RUnlock()
	return mgr.conflicts
}

// GetAnalysisStore returns the analysis AnalysisStore.
func (mgr *CacheStoreManager) GetAnalysisStore() contract.AnalysisStore {
	mgr.RLock()
	defer mgr.RUnlock()
	return mgr.analysis
}
