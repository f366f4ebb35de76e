package state

import (
	"time"

	"github.com/danielpatrickdp/stress-dost/internal/personality"
)

// #region vector-record
// VectorRecord is a versioned snapshot of a session's personality vector.
type VectorRecord struct {
	VersionID   string
	ParentID    string
	SessionID   string
	Vector      personality.Vector
	Traits      []string
	CreatedAt   time.Time
	MetricsJSON string
}

// #endregion vector-record

// #region version-with-provenance
// VersionWithProvenance pairs a vector version with its provenance row fields.
type VersionWithProvenance struct {
	VectorRecord
	TriggerType string
	Decision    string
	Reason      string
}

// #endregion version-with-provenance
