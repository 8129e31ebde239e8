package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseKeyValue(t *testing.T) {
	cfg := Default()
	input := strings.Join([]string{
		"IPAdresse= 10.0.0.7\t",
		"FrequenzMHz=\t 433.5 ",
		"# comment without delimiter",
		"Multicast=239.0.0.1:5000",
		"Unknown=ignored",
	}, "\n")

	require.NoError(t, ParseKeyValue(strings.NewReader(input), &cfg))
	assert.Equal(t, "10.0.0.7", cfg.Address)
	assert.Equal(t, 433.5, cfg.CenterFreqMHz)
	assert.Equal(t, "239.0.0.1:5000", cfg.Multicast)
	assert.Equal(t, 204800, cfg.BlockSize)
}

func TestParseKeyValueBadFrequency(t *testing.T) {
	cfg := Default()
	assert.Error(t, ParseKeyValue(strings.NewReader("FrequenzMHz=abc"), &cfg))
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()

	yamlPath := filepath.Join(dir, "iqcapture.yaml")
	require.NoError(t, os.WriteFile(yamlPath, []byte(`
device: rtlsdr
center_freq_mhz: 100.1
sampling_clock: 2000000
block_size: 16384
timeout_policy: ceil
max_consecutive_misses: 10
consumers:
  - name: player
    command: ffplay
    args: ["udp://{{.Multicast}}"]
status_server:
  port: 8080
`), 0644))

	cfg, err := Load(yamlPath)
	require.NoError(t, err)
	assert.Equal(t, "rtlsdr", cfg.Device)
	assert.Equal(t, 100.1, cfg.CenterFreqMHz)
	assert.Equal(t, 2000000, cfg.SamplingClock)
	assert.Equal(t, 16384, cfg.BlockSize)
	assert.Equal(t, "ceil", cfg.TimeoutPolicy)
	assert.Equal(t, 10, cfg.MaxConsecutiveMisses)
	assert.Equal(t, 8080, cfg.StatusServer.Port)
	require.Len(t, cfg.Consumers, 1)
	assert.Equal(t, []string{"udp://{{.Multicast}}"}, cfg.Consumers[0].Args)
	// Untouched keys keep their defaults.
	assert.Equal(t, "232.1.1.111:40001", cfg.Multicast)
	assert.Equal(t, "KSA_LIVE_1_CB.iq", cfg.OutputFile)
	require.NoError(t, cfg.Validate())

	txtPath := filepath.Join(dir, "config.txt")
	require.NoError(t, os.WriteFile(txtPath, []byte("IPAdresse=192.168.1.50\nFrequenzMHz=650\n"), 0644))
	cfg, err = Load(txtPath)
	require.NoError(t, err)
	assert.Equal(t, "192.168.1.50", cfg.Address)
	assert.Equal(t, 650.0, cfg.CenterFreqMHz)

	_, err = Load(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)

	badPath := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(badPath, []byte("block_size: [1, 2"), 0644))
	_, err = Load(badPath)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	require.NoError(t, Default().Validate())

	tests := []struct {
		name   string
		modify func(c *Config)
		want   string
	}{
		{"address", func(c *Config) { c.Address = "" }, "IP-Address not found"},
		{"frequency", func(c *Config) { c.CenterFreqMHz = 0 }, "frequency not found or invalid"},
		{"multicast", func(c *Config) { c.Multicast = "" }, "multicast address not found"},
		{"block size", func(c *Config) { c.BlockSize = 0 }, "block size must be positive"},
		{"misses", func(c *Config) { c.MaxConsecutiveMisses = -1 }, "must not be negative"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
