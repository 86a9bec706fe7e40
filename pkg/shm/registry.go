package shm

import "sync"

// registry is the process-wide map from memory identifier to the Resource
// currently mapping it. It is the structural analogue of the teacher's
// pkg/slotcache global registry keyed by (dev,ino) file identity, adapted
// here to key by the shared-memory identifier computed in resource.go
// (content hash of the path, or the caller-supplied id for anonymous
// resources) instead of an inode pair.
var registry sync.Map // memoryIdentifier -> *Resource

func registryInsert(id uint64, r *Resource) bool {
	_, loaded := registry.LoadOrStore(id, r)
	return !loaded
}

func registryRemove(id uint64) {
	registry.Delete(id)
}

// registryLookup finds the Resource registered under id, if any.
func registryLookup(id uint64) (*Resource, bool) {
	v, ok := registry.Load(id)
	if !ok {
		return nil, false
	}

	return v.(*Resource), true //nolint:forcetypeassert // registry only ever stores *Resource
}
