// Package validator provides custom validation functions for Gin's binding engine.
package validator

import (
	"regexp"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"lumonew/internal/models"
)

var tableNameRegex = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// Register registers all custom validators with the Gin binding engine.
func Register() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		RegisterOn(v)
	}
}

// RegisterOn registers the custom tags on v.
func RegisterOn(v *validator.Validate) {
	_ = v.RegisterValidation("audit_operation", validateAuditOperation)
	_ = v.RegisterValidation("table_name", validateTableName)
}

func validateAuditOperation(fl validator.FieldLevel) bool {
	return models.Operation(fl.Field().String()).IsKnown()
}

func validateTableName(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	return len(s) <= 64 && tableNameRegex.MatchString(s)
}
