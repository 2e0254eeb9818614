package connectors

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zoobzio/formula/internal/connector"
)

func TestAllLoadTogether(t *testing.T) {
	loaded, err := connector.Load(nil, All()...)
	require.NoError(t, err)
	assert.True(t, loaded.Registry.Sealed())
	assert.Len(t, loaded.Connectors, 6)
}

func TestNames(t *testing.T) {
	assert.Equal(t, []string{"POSTGRESQL", "MSSQL", "MARIADB", "SQLITE", "CLICKHOUSE", "BIGQUERY"}, Names())
}

func TestByName(t *testing.T) {
	cs, ok := ByName("SQLITE", "MSSQL")
	require.True(t, ok)
	require.Len(t, cs, 2)
	assert.Equal(t, "MSSQL", cs[0].Name())
	assert.Equal(t, "SQLITE", cs[1].Name())

	_, ok = ByName("ORACLE")
	assert.False(t, ok)
}
