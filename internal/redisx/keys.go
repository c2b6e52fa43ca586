package redisx

import "time"

const (
	// Dedup event processing: dedup:{service}:{event_id}
	KeyDedup = "dedup:%s:%s"

	// Projected transaction status: tx_status:{reference} -> {"status": "...", "event_type": "...", "updated_at": "..."}
	KeyTxStatus = "tx_status:%s"

	// Default slot for the persisted checkout draft
	DefaultDraftKey = "tt.checkout"
)

var (
	TTLDedup    = 48 * time.Hour
	TTLTxStatus = 24 * time.Hour
)
