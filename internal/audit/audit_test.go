package audit

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuditor(t *testing.T) {
	tempDir := filepath.Join(t.TempDir(), "audit")
	auditor := NewAuditor(tempDir)

	t.Run("SaveJSON creates the kind directory and saves the envelope", func(t *testing.T) {
		payload := map[string]any{"stars": 5, "message": "Great selection"}

		name, err := auditor.SaveJSON("ratings", payload)
		require.NoError(t, err)
		assert.Equal(t, "ratings", filepath.Dir(name))
		assert.Equal(t, ".json", filepath.Ext(name))

		content, err := os.ReadFile(filepath.Join(tempDir, name))
		require.NoError(t, err)

		var saved struct {
			ID      string         `json:"id"`
			Kind    string         `json:"kind"`
			Payload map[string]any `json:"payload"`
		}
		require.NoError(t, json.Unmarshal(content, &saved))
		assert.Equal(t, "ratings", saved.Kind)
		assert.NotEmpty(t, saved.ID)
		assert.Equal(t, float64(5), saved.Payload["stars"])
		assert.Equal(t, "Great selection", saved.Payload["message"])
	})

	t.Run("SaveJSON generates unique filenames", func(t *testing.T) {
		first, err := auditor.SaveJSON("contact", map[string]string{"name": "Ann"})
		require.NoError(t, err)
		second, err := auditor.SaveJSON("contact", map[string]string{"name": "Ann"})
		require.NoError(t, err)

		assert.NotEqual(t, first, second)
	})

	t.Run("SaveJSON rejects kinds that escape the directory", func(t *testing.T) {
		for _, kind := range []string{"", "../outside", "a/b"} {
			_, err := auditor.SaveJSON(kind, "x")
			assert.Error(t, err, "kind %q", kind)
		}
	})

	t.Run("SaveJSON fails on unmarshalable data", func(t *testing.T) {
		_, err := auditor.SaveJSON("ratings", make(chan int))
		assert.Error(t, err)
	})
}
