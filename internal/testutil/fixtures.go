package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"gorm.io/gorm"

	"lumonew/internal/models"
)

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// CreateTestUser creates an active user with a unique email.
func CreateTestUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	email := fmt.Sprintf("user%d@test.com", nextID())
	return CreateTestUserWithEmail(t, db, email)
}

// CreateTestUserWithEmail creates a user with the given email.
func CreateTestUserWithEmail(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()

	user := &models.User{
		Email:    email,
		FullName: "Test User",
		Role:     "admin",
		IsActive: true,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// AuditLogOption customizes a fixture record.
type AuditLogOption func(*models.AuditLog)

// WithUser sets the acting user.
func WithUser(userID string) AuditLogOption {
	return func(l *models.AuditLog) { l.UserID = &userID }
}

// WithOperation sets the operation and table.
func WithOperation(op models.Operation, table string) AuditLogOption {
	return func(l *models.AuditLog) {
		l.Operation = op
		l.TableName = table
	}
}

// WithCreatedAt sets the write timestamp.
func WithCreatedAt(at time.Time) AuditLogOption {
	return func(l *models.AuditLog) { l.CreatedAt = at }
}

// WithMetadata sets the metadata object.
func WithMetadata(meta map[string]interface{}) AuditLogOption {
	return func(l *models.AuditLog) { l.Metadata = meta }
}

// CreateTestAuditLog inserts an INSERT on inventory unless options say otherwise.
func CreateTestAuditLog(t *testing.T, db *gorm.DB, opts ...AuditLogOption) *models.AuditLog {
	t.Helper()

	entry := &models.AuditLog{
		Operation: models.OperationInsert,
		TableName: "inventory",
		RecordID:  fmt.Sprintf("rec-%d", nextID()),
		NewValues: map[string]interface{}{"name": "Test Item"},
	}
	for _, opt := range opts {
		opt(entry)
	}
	if err := db.Create(entry).Error; err != nil {
		t.Fatalf("failed to create test audit log: %v", err)
	}
	return entry
}
