package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_OpenAIConfig(t *testing.T) {
	// Setup environment variables
	os.Setenv("OPENAI_API_KEY", "sk-test")
	os.Setenv("OPENAI_MODEL", "gpt-4o")
	defer func() {
		os.Unsetenv("OPENAI_API_KEY")
		os.Unsetenv("OPENAI_MODEL")
	}()

	cfg, err := Load()
	assert.NoError(t, err)

	assert.Equal(t, "sk-test", cfg.OpenAI.APIKey)
	assert.Equal(t, "gpt-4o", cfg.OpenAI.Model)
}

func TestLoad_Defaults(t *testing.T) {
	// Ensure env vars are cleared
	os.Unsetenv("TYPESENSE_URL")
	os.Unsetenv("TYPESENSE_API_KEY")
	os.Unsetenv("CHAT_RETRIEVAL_TIMEOUT")

	cfg, err := Load()
	assert.NoError(t, err)

	// Verify defaults
	assert.Equal(t, "http://localhost:8108", cfg.Typesense.URL)
	assert.Equal(t, "xyz", cfg.Typesense.APIKey)
	assert.Equal(t, "gpt-4o-mini", cfg.OpenAI.Model)
	assert.Equal(t, 10*time.Second, cfg.Chat.RetrievalTimeout)
	assert.Equal(t, 20, cfg.Chat.MaxHistoryTurns)
	assert.Equal(t, "configs/pii_policy.json", cfg.PII.PolicyPath)
}

func TestLoad_ChatDurations(t *testing.T) {
	os.Setenv("CHAT_RETRIEVAL_TIMEOUT", "3s")
	os.Setenv("CHAT_GENERATION_TIMEOUT", "45s")
	defer func() {
		os.Unsetenv("CHAT_RETRIEVAL_TIMEOUT")
		os.Unsetenv("CHAT_GENERATION_TIMEOUT")
	}()

	cfg, err := Load()
	assert.NoError(t, err)

	assert.Equal(t, 3*time.Second, cfg.Chat.RetrievalTimeout)
	assert.Equal(t, 45*time.Second, cfg.Chat.GenerationTimeout)
}
