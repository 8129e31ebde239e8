package config

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v2"
)

type Config struct {
	Device               string     `yaml:"device"`
	Address              string     `yaml:"address"`
	CenterFreqMHz        float64    `yaml:"center_freq_mhz"`
	Multicast            string     `yaml:"multicast"`
	SamplingClock        int        `yaml:"sampling_clock"`
	AcquisitionSize      int        `yaml:"acquisition_size"`
	BlockSize            int        `yaml:"block_size"`
	OutputFile           string     `yaml:"output_file"`
	TimeoutPolicy        string     `yaml:"timeout_policy"`
	MaxConsecutiveMisses int        `yaml:"max_consecutive_misses"`
	RTLSDRDeviceIndex    int        `yaml:"rtlsdr_device_index"`
	PlaybackLocation     string     `yaml:"playback_location"`
	PlaybackRealtime     bool       `yaml:"playback_realtime"`
	Consumers            []Consumer `yaml:"consumers"`
	StopConsumers        bool       `yaml:"stop_consumers"`
	StatusServer         struct {
		Port int `yaml:"port"`
	} `yaml:"status_server"`
	InfluxDB struct {
		Host         string `yaml:"host"`
		Organization string `yaml:"organization"`
		Bucket       string `yaml:"bucket"`
	} `yaml:"influxdb"`
}

// Consumer is an external program started alongside the capture. Command and
// Args are text/template strings over the capture config.
type Consumer struct {
	Name    string   `yaml:"name"`
	Command string   `yaml:"command"`
	Args    []string `yaml:"args,flow"`
}

// Default mirrors the settings of the live receiver setup.
func Default() Config {
	return Config{
		Device:          "hackrf",
		Address:         "192.168.1.111",
		CenterFreqMHz:   649.0,
		Multicast:       "232.1.1.111:40001",
		SamplingClock:   7.68e6,
		AcquisitionSize: 2048000,
		BlockSize:       204800,
		OutputFile:      "KSA_LIVE_1_CB.iq",
		TimeoutPolicy:   "truncate",
		Consumers: []Consumer{
			{Name: "vlc", Command: "vlc", Args: []string{"udp://{{.Multicast}}"}},
			{Name: "modem", Command: "modem", Args: []string{"-f", "{{.OutputFile}}"}},
		},
	}
}

// Load reads a YAML config, or a key=value file when the name ends in .txt.
// Values not present in the file keep their defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	f, err := os.Open(path)
	if err != nil {
		return cfg, fmt.Errorf("could not open configuration file: %w", err)
	}
	defer f.Close()

	if strings.EqualFold(filepath.Ext(path), ".txt") {
		err = ParseKeyValue(f, &cfg)
	} else {
		var contents []byte
		contents, err = io.ReadAll(f)
		if err == nil {
			err = yaml.Unmarshal(contents, &cfg)
		}
	}
	if err != nil {
		return cfg, fmt.Errorf("error parsing %s: %w", path, err)
	}
	return cfg, nil
}

// ParseKeyValue reads the receiver's plain config format: one key=value per
// line, surrounding blanks trimmed from values, unknown keys ignored.
func ParseKeyValue(r io.Reader, cfg *Config) error {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		key, value, ok := strings.Cut(scanner.Text(), "=")
		if !ok {
			continue
		}
		value = strings.Trim(value, " \t")

		switch key {
		case "IPAdresse":
			cfg.Address = value
		case "FrequenzMHz":
			freq, err := strconv.ParseFloat(value, 64)
			if err != nil {
				return fmt.Errorf("FrequenzMHz: %w", err)
			}
			cfg.CenterFreqMHz = freq
		case "Multicast":
			cfg.Multicast = value
		}
	}
	return scanner.Err()
}

func (c Config) Validate() error {
	var errs []error
	if c.Address == "" {
		errs = append(errs, errors.New("IP-Address not found"))
	}
	if c.CenterFreqMHz <= 0 {
		errs = append(errs, errors.New("frequency not found or invalid"))
	}
	if c.Multicast == "" {
		errs = append(errs, errors.New("multicast address not found"))
	}
	if c.SamplingClock <= 0 {
		errs = append(errs, errors.New("sampling clock must be positive"))
	}
	if c.BlockSize <= 0 {
		errs = append(errs, errors.New("block size must be positive"))
	}
	if c.OutputFile == "" {
		errs = append(errs, errors.New("output file not set"))
	}
	if c.MaxConsecutiveMisses < 0 {
		errs = append(errs, errors.New("max consecutive misses must not be negative"))
	}
	return errors.Join(errs...)
}
