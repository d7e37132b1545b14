package openapi

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"routefinder/pkg/wire"
)

func TestGetSpec(t *testing.T) {
	data, err := GetSpec()
	require.NoError(t, err)

	var doc struct {
		OpenAPI string                    `json:"openapi"`
		Paths   map[string]map[string]any `json:"paths"`
	}
	require.NoError(t, json.Unmarshal(data, &doc))

	assert.NotEmpty(t, doc.OpenAPI)
	for _, p := range []string{wire.FindRoutesProcedure, wire.ClassifyMatrixProcedure, wire.GetMatrixStatsProcedure} {
		assert.Contains(t, doc.Paths, p)
	}
}

func TestMustGetSpec(t *testing.T) {
	assert.NotPanics(t, func() { MustGetSpec() })
}
