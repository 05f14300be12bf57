// Package audit holds the pure parts of the audit trail: classification of
// records for display, the UI-to-store vocabulary tables and aggregation.
package audit

import (
	"fmt"
	"strconv"
	"strings"

	"lumonew/internal/models"
)

// Icon names an icon in the dashboard's icon set.
type Icon string

// Icons used for audit badges.
const (
	IconPlus     Icon = "plus"
	IconEdit     Icon = "edit"
	IconTrash    Icon = "trash"
	IconLogIn    Icon = "log-in"
	IconLogOut   Icon = "log-out"
	IconDownload Icon = "download"
	IconUpload   Icon = "upload"
	IconLayers   Icon = "layers"
	IconActivity Icon = "activity"
)

// DefaultColorClass is the neutral badge color.
const DefaultColorClass = "text-gray-600"

// Classification is the display annotation of one audit record.
type Classification struct {
	Description string `json:"description"`
	Icon        Icon   `json:"icon"`
	ColorClass  string `json:"color_class"`
}

// ActionDescriptions maps metadata.action_type tags to descriptions.
var ActionDescriptions = map[string]string{
	"user_created":             "Usuario creado",
	"user_updated":             "Usuario actualizado",
	"user_deleted":             "Usuario eliminado",
	"user_login":               "Inicio de sesión de usuario",
	"user_logout":              "Cierre de sesión de usuario",
	"role_assigned":            "Rol asignado a usuario",
	"inventory_item_created":   "Artículo de inventario creado",
	"inventory_item_updated":   "Artículo de inventario actualizado",
	"inventory_item_deleted":   "Artículo de inventario eliminado",
	"inventory_stock_adjusted": "Stock de inventario ajustado",
	"inventory_quick_stock":    "Ajuste rápido de stock",
	"inventory_transferred":    "Artículo transferido entre ubicaciones",
	"bulk_inventory_update":    "Actualización masiva de inventario",
	"bulk_inventory_delete":    "Eliminación masiva de inventario",
	"category_created":         "Categoría creada",
	"location_created":         "Ubicación creada",
	"audit_logs_exported":      "Registros de auditoría exportados",
}

// operationVerbs holds the verb used in "<Verb> en <table>".
var operationVerbs = map[models.Operation]string{
	models.OperationInsert:        "Creado",
	models.OperationUpdate:        "Actualizado",
	models.OperationDelete:        "Eliminado",
	models.OperationLogin:         "Inicio de sesión",
	models.OperationLogout:        "Cierre de sesión",
	models.OperationExport:        "Exportado",
	models.OperationImport:        "Importado",
	models.OperationBulkOperation: "Operación masiva",
}

type badge struct {
	icon  Icon
	color string
}

var operationBadges = map[models.Operation]badge{
	models.OperationInsert:        {IconPlus, "text-green-600"},
	models.OperationUpdate:        {IconEdit, "text-blue-600"},
	models.OperationDelete:        {IconTrash, "text-red-600"},
	models.OperationLogin:         {IconLogIn, "text-purple-600"},
	models.OperationLogout:        {IconLogOut, "text-orange-600"},
	models.OperationExport:        {IconDownload, "text-indigo-600"},
	models.OperationImport:        {IconUpload, "text-teal-600"},
	models.OperationBulkOperation: {IconLayers, "text-yellow-600"},
}

// Classify describes a record for display. It is total: any operation string,
// missing metadata or a nil record yields a non-empty description and a badge.
// A known action_type wins over the operation, even when the two disagree.
func Classify(record *models.AuditLog) Classification {
	if record == nil {
		return Classification{Description: "Actividad", Icon: IconActivity, ColorClass: DefaultColorClass}
	}

	desc, ok := ActionDescriptions[record.ActionType()]
	if !ok {
		desc = genericDescription(record.Operation, record.TableName)
	}
	desc += detailSuffix(record)

	b, ok := operationBadges[record.Operation]
	if !ok {
		b = badge{IconActivity, DefaultColorClass}
	}

	return Classification{Description: desc, Icon: b.icon, ColorClass: b.color}
}

// Describe returns only the description of a record.
func Describe(record *models.AuditLog) string {
	return Classify(record).Description
}

func genericDescription(op models.Operation, table string) string {
	if strings.TrimSpace(table) == "" {
		table = "registro"
	}
	if verb, ok := operationVerbs[op]; ok {
		return fmt.Sprintf("%s en %s", verb, table)
	}
	if strings.TrimSpace(string(op)) == "" {
		return "Actividad en " + table
	}
	return fmt.Sprintf("%s en %s", op, table)
}

func detailSuffix(record *models.AuditLog) string {
	if sc, ok := record.StockChange(); ok {
		return fmt.Sprintf(" (%s → %s)", formatNumber(sc.From), formatNumber(sc.To))
	}
	if bp, ok := record.BulkProgress(); ok && bp.TotalItems > 0 {
		return fmt.Sprintf(" (%d/%d)", bp.SuccessfulItems, bp.TotalItems)
	}
	return ""
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
