package db

import (
	"time"

	"gorm.io/datatypes"
)

// Log represents a single client error report as stored in PostgreSQL.
// Fields used for filtering and sorting are typed and indexed; the long
// tail of client-supplied structure lives in JSON columns so the schema
// never rejects an unknown payload shape.
type Log struct {
	ID uint `gorm:"primaryKey" json:"id"`

	CreatedAt time.Time `json:"created_at"`

	// Type is the reporter-assigned error category (script, promise,
	// api_error, timeout, sdk_popup, ...). Open-ended in practice:
	// unknown values are stored as-is, never rejected.
	Type string `gorm:"index;size:64" json:"type,omitempty"`

	// Category is a legacy classifier some reporters still send. Faceted
	// counts match on either Type or Category.
	Category string `gorm:"index;size:64" json:"category,omitempty"`

	Message   string `json:"message,omitempty"`
	Stack     string `json:"stack,omitempty"`
	Component string `json:"component,omitempty"`
	URL       string `json:"url,omitempty"`
	UA        string `json:"ua,omitempty"`

	// Time is the client-supplied event timestamp in epoch milliseconds.
	// Listing sorts on it, not on CreatedAt.
	Time int64 `gorm:"index" json:"time"`

	DeviceID string `gorm:"index;size:128" json:"device_id,omitempty"`
	Wallet   string `gorm:"index;size:128" json:"wallet,omitempty"`

	// Free-shape client context. Never validated or typed strictly.
	Network       datatypes.JSONMap `gorm:"type:json" json:"network,omitempty"`
	Env           datatypes.JSONMap `gorm:"type:json" json:"env,omitempty"`
	ConnectParams datatypes.JSONMap `gorm:"type:json" json:"connectParams,omitempty"`

	// Location is the union of the client-supplied location object and the
	// server-derived fields; server-derived ip and (when resolvable)
	// geo/city/country win over same-named client keys.
	Location datatypes.JSONMap `gorm:"type:json" json:"location,omitempty"`

	// Extra holds any payload keys outside the typed columns, so reporters
	// can attach new fields without schema changes.
	Extra datatypes.JSONMap `gorm:"type:json" json:"extra,omitempty"`
}
