package db

import (
	"strings"

	"gorm.io/gorm"
)

// Classifier values the stats facet matches against both the type and the
// category column.
const (
	ClassAPIError         = "api_error"
	ClassRemoteConnection = "remote_connection"
)

// LogFilter narrows ListLogs. Zero values mean "no constraint".
type LogFilter struct {
	// Type matches the type column exactly.
	Type string

	// Search is a case-insensitive substring matched against device_id,
	// wallet and message; a hit in any one field includes the record.
	Search string
}

// Stats are the whole-collection facet counts shown as dashboard summary
// metrics. They are computed independently of any active list filter.
type Stats struct {
	Total        int64 `json:"total"`
	APIErrors    int64 `json:"apiErrors"`
	RemoteErrors int64 `json:"remoteErrors"`
}

// InsertLog persists one fully formed record. Exactly one row per call;
// failures propagate unretried.
func InsertLog(gdb *gorm.DB, rec *Log) error {
	return gdb.Create(rec).Error
}

func applyLogFilter(q *gorm.DB, f LogFilter) *gorm.DB {
	if f.Type != "" {
		q = q.Where("type = ?", f.Type)
	}
	if f.Search != "" {
		// LOWER(...) LIKE keeps the match case-insensitive on both the
		// postgres deployment and the sqlite test handle.
		pattern := "%" + strings.ToLower(f.Search) + "%"
		q = q.Where(
			"LOWER(device_id) LIKE ? OR LOWER(wallet) LIKE ? OR LOWER(message) LIKE ?",
			pattern, pattern, pattern,
		)
	}
	return q
}

// ListLogs returns one page of records matching f, sorted by client event
// time descending, plus the total count of the filtered set.
func ListLogs(gdb *gorm.DB, f LogFilter, page, limit int) ([]Log, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 1
	}

	q := applyLogFilter(gdb.Model(&Log{}), f)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []Log
	if err := q.Order("time DESC").Offset((page - 1) * limit).Limit(limit).Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// GetLog loads a single record by primary key.
func GetLog(gdb *gorm.DB, id uint) (*Log, error) {
	var rec Log
	if err := gdb.First(&rec, id).Error; err != nil {
		return nil, err
	}
	return &rec, nil
}

// FacetStats counts the whole collection: the grand total plus records whose
// type or category carries the API-error or remote-connection classification.
// Empty facets are zero, never absent.
func FacetStats(gdb *gorm.DB) (Stats, error) {
	var s Stats
	if err := gdb.Model(&Log{}).Count(&s.Total).Error; err != nil {
		return Stats{}, err
	}
	if err := gdb.Model(&Log{}).
		Where("type = ? OR category = ?", ClassAPIError, ClassAPIError).
		Count(&s.APIErrors).Error; err != nil {
		return Stats{}, err
	}
	if err := gdb.Model(&Log{}).
		Where("type = ? OR category = ?", ClassRemoteConnection, ClassRemoteConnection).
		Count(&s.RemoteErrors).Error; err != nil {
		return Stats{}, err
	}
	return s, nil
}
