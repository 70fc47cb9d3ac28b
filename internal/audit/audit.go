// Package audit archives raw public submissions to disk so that a
// rating or contact message can be inspected exactly as it arrived.
package audit

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

type Auditor struct {
	AuditDir string
}

func NewAuditor(auditDir string) *Auditor {
	return &Auditor{
		AuditDir: auditDir,
	}
}

// Record is the envelope written for every archived submission.
type Record struct {
	ID         string    `json:"id"`
	Kind       string    `json:"kind"`
	ReceivedAt time.Time `json:"received_at"`
	Payload    any       `json:"payload"`
}

// SaveJSON writes data under <dir>/<kind>/<uuid>.json and returns the
// path relative to the audit directory.
func (a *Auditor) SaveJSON(kind string, data any) (string, error) {
	if kind == "" || kind != filepath.Base(kind) {
		return "", fmt.Errorf("invalid audit kind %q", kind)
	}

	dir := filepath.Join(a.AuditDir, kind)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create audit directory: %w", err)
	}

	record := Record{
		ID:         uuid.New().String(),
		Kind:       kind,
		ReceivedAt: time.Now().UTC(),
		Payload:    data,
	}

	jsonData, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal data to JSON: %w", err)
	}

	name := filepath.Join(kind, record.ID+".json")
	if err := os.WriteFile(filepath.Join(a.AuditDir, name), jsonData, 0644); err != nil {
		return "", fmt.Errorf("failed to write audit file: %w", err)
	}

	log.Printf("[AUDIT] Saved %s submission %s", kind, record.ID)
	return name, nil
}
