package audit

import "lumonew/internal/models"

// CategoryTables maps UI categories to store table names.
var CategoryTables = map[string]string{
	"item":     "inventory",
	"category": "categories",
	"location": "locations",
	"user":     "users",
	"system":   "audit_logs",
}

// StatusOperations maps UI statuses to store operations.
var StatusOperations = map[string]models.Operation{
	"created":        models.OperationInsert,
	"updated":        models.OperationUpdate,
	"deleted":        models.OperationDelete,
	"stock_adjusted": models.OperationUpdate,
	"bulk_operation": models.OperationBulkOperation,
	"quick_stock":    models.OperationUpdate,
	"transferred":    models.OperationUpdate,
	"archived":       models.OperationUpdate,
	"restored":       models.OperationUpdate,
	"imported":       models.OperationImport,
	"exported":       models.OperationExport,
}

// UserCategory is the category whose search term also filters by user email.
const UserCategory = "user"

// MapCategory returns the table name for a UI category. Unmapped values pass
// through unchanged.
func MapCategory(category string) string {
	if table, ok := CategoryTables[category]; ok {
		return table
	}
	return category
}

// MapStatus returns the operation for a UI status. Unmapped values pass
// through unchanged.
func MapStatus(status string) string {
	if op, ok := StatusOperations[status]; ok {
		return string(op)
	}
	return status
}
