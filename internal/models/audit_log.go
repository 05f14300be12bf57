package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"lumonew/internal/uuid"
)

// Operation is the kind of mutation an audit record describes.
type Operation string

// Operation types recorded by the business layer.
const (
	OperationInsert        Operation = "INSERT"
	OperationUpdate        Operation = "UPDATE"
	OperationDelete        Operation = "DELETE"
	OperationLogin         Operation = "LOGIN"
	OperationLogout        Operation = "LOGOUT"
	OperationExport        Operation = "EXPORT"
	OperationImport        Operation = "IMPORT"
	OperationBulkOperation Operation = "BULK_OPERATION"
)

// Operations lists the fixed enumeration in display order.
var Operations = []Operation{
	OperationInsert,
	OperationUpdate,
	OperationDelete,
	OperationLogin,
	OperationLogout,
	OperationExport,
	OperationImport,
	OperationBulkOperation,
}

// IsKnown reports whether op belongs to the fixed enumeration. Records read
// back from the store may carry other values.
func (op Operation) IsKnown() bool {
	for _, known := range Operations {
		if op == known {
			return true
		}
	}
	return false
}

// Metadata keys understood by the audit trail.
const (
	MetaActionType  = "action_type"
	MetaStockChange = "stock_change"
	MetaBulk        = "bulk"
)

// AuditLog is an immutable record of one mutation against a business entity.
// Records are write-once: nothing in this module updates or deletes them.
type AuditLog struct {
	ID        string            `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    *string           `gorm:"index" json:"user_id"`
	Operation Operation         `gorm:"size:32;not null;index" json:"operation"`
	TableName string            `gorm:"column:table_name;size:64;not null;index" json:"table_name"`
	RecordID  string            `gorm:"size:128" json:"record_id"`
	OldValues datatypes.JSONMap `json:"old_values,omitempty"`
	NewValues datatypes.JSONMap `json:"new_values,omitempty"`
	IPAddress *string           `gorm:"size:64" json:"ip_address,omitempty"`
	UserAgent *string           `json:"user_agent,omitempty"`
	SessionID *string           `gorm:"size:128" json:"session_id,omitempty"`
	Metadata  datatypes.JSONMap `json:"metadata,omitempty"`
	CreatedAt time.Time         `gorm:"not null;index" json:"created_at"`

	// UserEmail is resolved from the user directory on read.
	UserEmail string `gorm:"-" json:"user_email,omitempty"`
}

// BeforeCreate assigns a time-ordered ID and the write timestamp. Timestamps
// are stored in UTC.
func (l *AuditLog) BeforeCreate(tx *gorm.DB) error {
	if l.ID == "" {
		l.ID = uuid.New()
	}
	if l.CreatedAt.IsZero() {
		l.CreatedAt = time.Now()
	}
	l.CreatedAt = l.CreatedAt.UTC()
	return nil
}

// StockChange is the stock delta attached to inventory adjustments.
type StockChange struct {
	From       float64 `json:"from"`
	To         float64 `json:"to"`
	Difference float64 `json:"difference"`
}

// BulkProgress describes the outcome of a bulk operation.
type BulkProgress struct {
	BulkOperationID string `json:"bulk_operation_id"`
	TotalItems      int    `json:"total_items"`
	SuccessfulItems int    `json:"successful_items"`
}

// ActionType returns metadata.action_type, or "" when absent or not a string.
func (l *AuditLog) ActionType() string {
	if l == nil || l.Metadata == nil {
		return ""
	}
	s, _ := l.Metadata[MetaActionType].(string)
	return s
}

// StockChange decodes metadata.stock_change. Missing numeric fields read as zero.
func (l *AuditLog) StockChange() (*StockChange, bool) {
	obj, ok := l.metaObject(MetaStockChange)
	if !ok {
		return nil, false
	}
	sc := &StockChange{
		From:       toFloat(obj["from"]),
		To:         toFloat(obj["to"]),
		Difference: toFloat(obj["difference"]),
	}
	if _, has := obj["difference"]; !has {
		sc.Difference = sc.To - sc.From
	}
	return sc, true
}

// BulkProgress decodes metadata.bulk. Top-level keys are accepted as well,
// since older writers flattened them into metadata.
func (l *AuditLog) BulkProgress() (*BulkProgress, bool) {
	obj, ok := l.metaObject(MetaBulk)
	if !ok {
		if l == nil || l.Metadata == nil {
			return nil, false
		}
		if _, flat := l.Metadata["total_items"]; !flat {
			return nil, false
		}
		obj = l.Metadata
	}
	bp := &BulkProgress{
		TotalItems:      int(toFloat(obj["total_items"])),
		SuccessfulItems: int(toFloat(obj["successful_items"])),
	}
	bp.BulkOperationID, _ = obj["bulk_operation_id"].(string)
	return bp, true
}

func (l *AuditLog) metaObject(key string) (map[string]interface{}, bool) {
	if l == nil || l.Metadata == nil {
		return nil, false
	}
	obj, ok := l.Metadata[key].(map[string]interface{})
	return obj, ok
}

func toFloat(v interface{}) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case int32:
		return float64(n)
	}
	return 0
}

// DateRange is an inclusive time window; nil bounds impose no constraint.
type DateRange struct {
	Start *time.Time `json:"start,omitempty"`
	End   *time.Time `json:"end,omitempty"`
}

// AuditFilterCriteria is the UI-level filter vocabulary for the audit trail.
type AuditFilterCriteria struct {
	Search    string    `json:"search,omitempty"`
	Category  string    `json:"category,omitempty"`
	Status    string    `json:"status,omitempty"`
	DateRange DateRange `json:"date_range"`
}

// AuditStatsSummary aggregates a set of audit records for KPI cards.
type AuditStatsSummary struct {
	TotalOperations int               `json:"total_operations"`
	ByOperation     map[Operation]int `json:"by_operation"`
	DistinctUsers   int               `json:"distinct_users"`
	Deletions       int               `json:"deletions"`
	Today           int               `json:"today"`
}

// NewAuditStatsSummary returns a zero summary with an initialized breakdown.
func NewAuditStatsSummary() AuditStatsSummary {
	return AuditStatsSummary{ByOperation: make(map[Operation]int)}
}
