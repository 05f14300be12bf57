package audit

import "lumonew/internal/models"

// AnnotatedRecord is an audit record together with its display classification.
type AnnotatedRecord struct {
	models.AuditLog
	Classification
}

// Annotate classifies every record, preserving order.
func Annotate(records []models.AuditLog) []AnnotatedRecord {
	out := make([]AnnotatedRecord, len(records))
	for i := range records {
		out[i] = AnnotatedRecord{AuditLog: records[i], Classification: Classify(&records[i])}
	}
	return out
}
