package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("missing file returns defaults", func(t *testing.T) {
		cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
		require.NoError(t, err)
		assert.Equal(t, "qdrant", cfg.StoreType)
		assert.Equal(t, "http://localhost:11434", cfg.Ollama.Host)
		assert.Equal(t, 6334, cfg.Qdrant.Port)
		assert.Equal(t, "records", cfg.Collection.Name)
		assert.Equal(t, "cosine", cfg.Collection.Distance)
	})

	t.Run("file values win over defaults", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte(`
store_type: memory
ollama:
  chat_model: mistral
collection:
  name: movies
  dimension: 768
generation:
  temperature: 0.2
`), 0o644))

		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, "memory", cfg.StoreType)
		assert.Equal(t, "mistral", cfg.Ollama.ChatModel)
		assert.Equal(t, "movies", cfg.Collection.Name)
		assert.Equal(t, 768, cfg.Collection.Dimension)
		assert.InDelta(t, 0.2, cfg.Generation.Temperature, 1e-6)

		// Unset fields keep their defaults.
		assert.Equal(t, "llama3", cfg.Ollama.EmbedModel)
		assert.Equal(t, 2048, cfg.Generation.MaxTokens)
	})

	t.Run("OLLAMA_HOST env override", func(t *testing.T) {
		t.Setenv("OLLAMA_HOST", "http://ollama.internal:11434")
		cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
		require.NoError(t, err)
		assert.Equal(t, "http://ollama.internal:11434", cfg.Ollama.Host)
	})

	t.Run("malformed yaml fails", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte("store_type: [unclosed"), 0o644))
		_, err := Load(path)
		assert.Error(t, err)
	})
}
