package config

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/grovetools/grw/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateSchema(t *testing.T) {
	data, err := GenerateSchema()
	require.NoError(t, err)

	var schema map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &schema))

	props, ok := schema["properties"].(map[string]interface{})
	require.True(t, ok)
	for _, key := range []string{"debug", "no_diff", "monitor", "git", "llm", "shared_state", "logging"} {
		assert.Contains(t, props, key)
	}
	assert.Equal(t, false, schema["additionalProperties"])
	assert.False(t, strings.Contains(string(data), `"$ref"`), "nested sections are inlined")

	logging, ok := props["logging"].(map[string]interface{})
	require.True(t, ok)
	assert.Contains(t, logging["properties"], "level")
}

func TestSchemaCompiles(t *testing.T) {
	s, err := compiled()
	require.NoError(t, err)
	require.NotNil(t, s)
}

func TestValidateSchema(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		format  string
		wantErr bool
	}{
		{"empty", "", "yaml", false},
		{"valid yaml", "monitor:\n  command: make\n", "yaml", false},
		{"valid toml", "[git]\ncommit_history_limit = 20\n", "toml", false},
		{"unknown key", "colour: red\n", "yaml", true},
		{"wrong type", "monitor:\n  interval_seconds: soon\n", "yaml", true},
		{"bad enum", "llm:\n  provider: openai\n", "yaml", true},
		{"below minimum", "shared_state:\n  commit_cache_size: 0\n", "yaml", true},
		{"free-form options", "llm:\n  options:\n    anything: [1, 2]\n", "yaml", false},
		{"logging section", "logging:\n  level: debug\n  file:\n    path: /tmp/grw.log\n", "yaml", false},
		{"unknown logging key", "logging:\n  colour: red\n", "yaml", true},
		{"bad logging level", "logging:\n  level: loud\n", "yaml", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSchema([]byte(tt.data), tt.format)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, errors.ErrCodeConfigValidation), "got %v", err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
