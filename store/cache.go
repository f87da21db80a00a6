package store

import (
	"encoding/binary"
	"encoding/json"

	"github.com/VictoriaMetrics/fastcache"

	"github.com/lumenchain/treasury-executor/disbursement"
)

// readCache is a bounded in-memory read-through cache in front of pebble for
// GetDisbursement, the executor's hottest read path (every tick re-reads
// every candidate disbursement's dependencies). Refreshed with the new
// record on every write through PebbleStore.PutDisbursement so readers never
// observe a stale status past the write that changed it.
type readCache struct {
	c *fastcache.Cache
}

func newReadCache(maxBytes int) *readCache {
	return &readCache{c: fastcache.New(maxBytes)}
}

func (r *readCache) get(id uint64) (*disbursement.Disbursement, bool) {
	key := idKey(id)
	raw := r.c.GetBig(nil, key)
	if raw == nil {
		return nil, false
	}
	var d disbursement.Disbursement
	if err := json.Unmarshal(raw, &d); err != nil {
		return nil, false
	}
	return &d, true
}

func (r *readCache) set(d *disbursement.Disbursement) {
	raw, err := json.Marshal(d)
	if err != nil {
		return
	}
	r.c.SetBig(idKey(d.ID), raw)
}

func idKey(id uint64) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, id)
	return buf
}
