package delivery

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testZonesYAML = `
zones:
  - id: center
    name: Center
    name_pl: Centrum
    postal_prefixes: ["00-01"]
    base_fee: "6.50"
    free_delivery_threshold: "90"
    eta: {min: 20, max: 30}
  - id: outskirts
    name: Outskirts
    name_pl: Przedmieścia
    postal_prefixes: ["05", "015"]
    base_fee: "14"
    free_delivery_threshold: "140"
    eta: {min: 45, max: 60}
`

func TestExpandPrefix(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"03", []string{"03"}},
		{"03-05", []string{"03", "04", "05"}},
		{"09-11", []string{"09", "10", "11"}},
		{"051", []string{"051"}},
	}

	for _, tt := range tests {
		got, err := expandPrefix(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestParseZones(t *testing.T) {
	zones, err := ParseZones([]byte(testZonesYAML))
	require.NoError(t, err)
	require.Len(t, zones, 2)

	assert.Equal(t, "center", zones[0].ID)
	assert.Equal(t, "Centrum", zones[0].NamePl)
	assert.True(t, zones[0].BaseFee.Equal(dec("6.5")))
	assert.Equal(t, ETA{Min: 20, Max: 30}, zones[0].ETA)

	e, err := NewEngine(zones, DefaultRules())
	require.NoError(t, err)

	calc := e.Calculate("01-540", dec("10"), Options{})
	require.NotNil(t, calc.Zone)
	assert.Equal(t, "outskirts", calc.Zone.ID)
	assert.Equal(t, "45-60 min", calc.EstimatedTime)
}

func TestParseZones_BadMoney(t *testing.T) {
	_, err := ParseZones([]byte("zones:\n  - id: x\n    base_fee: five\n    free_delivery_threshold: \"1\"\n"))
	assert.ErrorIs(t, err, ErrInvalidZoneTable)
}

func TestLoadZonesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "zones.yaml")
	require.NoError(t, os.WriteFile(path, []byte(testZonesYAML), 0o600))

	zones, err := LoadZonesFile(path)
	require.NoError(t, err)
	assert.Len(t, zones, 2)

	_, err = LoadZonesFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadZonesFile_ExampleMatchesDefaults(t *testing.T) {
	zones, err := LoadZonesFile(filepath.Join("..", "..", "configs", "zones.example.yaml"))
	require.NoError(t, err)

	defaults := DefaultZones()
	require.Len(t, zones, len(defaults))
	for i := range defaults {
		assert.Equal(t, defaults[i].ID, zones[i].ID)
		assert.Equal(t, defaults[i].PostalPrefixes, zones[i].PostalPrefixes)
		assert.True(t, defaults[i].BaseFee.Equal(zones[i].BaseFee), defaults[i].ID)
		assert.True(t, defaults[i].FreeDeliveryThreshold.Equal(zones[i].FreeDeliveryThreshold), defaults[i].ID)
		assert.Equal(t, defaults[i].ETA, zones[i].ETA)
	}
}
