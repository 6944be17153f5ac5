package config

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateSchema(t *testing.T) {
	data, err := GenerateSchema()
	require.NoError(t, err)

	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &doc))

	assert.Equal(t, "object", doc["type"])
	assert.Equal(t, "termestra Configuration", doc["title"])

	props, ok := doc["properties"].(map[string]interface{})
	require.True(t, ok, "expected properties to be defined")
	for _, key := range []string{
		"work_stub", "geometry", "tab_names", "log_level", "tmux_socket", "terminal",
		"buffer_size", "housekeeping_interval", "idle_interval", "poll_interval", "provision_timeout",
	} {
		assert.Contains(t, props, key)
	}
	assert.NotContains(t, props, "Extensions")
	assert.Nil(t, doc["required"], "every field is optional")
}

func TestSchemaValidator(t *testing.T) {
	v, err := NewSchemaValidator()
	require.NoError(t, err)

	assert.NoError(t, v.Validate(map[string]interface{}{
		"tab_names":   []interface{}{"a", "b"},
		"buffer_size": 64,
		"logging":     map[string]interface{}{"level": "debug"},
	}))

	err = v.Validate(map[string]interface{}{"tab_names": "not-a-list"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "/tab_names")
}

func TestKnownKeys(t *testing.T) {
	keys := knownKeys()
	assert.True(t, keys["work_stub"])
	assert.True(t, keys["provision_timeout"])
	assert.False(t, keys[""])
	assert.Len(t, keys, 11)
}
