// Package config loads netwire's server configuration from a Java
// .properties-style key=value file (server_options.properties): any key
// with an unparsable value falls back silently to its default rather than
// failing Load.
package config

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config holds the tunables read from server_options.properties.
type Config struct {
	// KeepAlive enables periodic heartbeat frames on every connection, sent
	// at a fixed interval whether or not the connection is idle.
	KeepAlive bool

	// KeepAliveTimeoutSeconds is how long a connection may go without any
	// inbound frame before it's considered dead.
	KeepAliveTimeoutSeconds int

	// BufferPools is the number of pre-allocated buffers per size class.
	BufferPools int

	// ThreadsNumber sizes the fixed connection worker pool.
	ThreadsNumber int

	// ServerName is reported in the startup banner and the reload log line;
	// the stats snapshot does not carry it.
	ServerName string
}

// Default returns the configuration netwire falls back to for any key
// that's missing from the properties file, or present with a value that
// fails to parse.
func Default() *Config {
	return &Config{
		KeepAlive:               true,
		KeepAliveTimeoutSeconds: 30,
		BufferPools:             128,
		ThreadsNumber:           8,
		ServerName:              "netwire",
	}
}

// Load reads path as a .properties file and overlays recognized keys onto
// Default(). If path does not exist, a file containing the defaults is
// written to path and Default() is returned.
func Load(path string) (*Config, error) {
	cfg := Default()

	f, err := os.Open(path)
	if os.IsNotExist(err) {
		if werr := writeDefaults(path, cfg); werr != nil {
			return nil, fmt.Errorf("config: creating default %s: %w", path, werr)
		}
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("config: opening %s: %w", path, err)
	}
	defer f.Close()

	props, err := parseProperties(f)
	if err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	applyProperties(cfg, props)
	return cfg, nil
}

// parseProperties reads key=value lines, skipping blank lines and lines
// beginning with # or ! (the two comment markers .properties files use).
func parseProperties(f *os.File) (map[string]string, error) {
	props := make(map[string]string)
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "!") {
			continue
		}
		idx := strings.IndexByte(line, '=')
		if idx < 0 {
			continue
		}
		key := strings.TrimSpace(line[:idx])
		val := strings.TrimSpace(line[idx+1:])
		props[key] = val
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return props, nil
}

// applyProperties overlays recognized keys onto cfg. An unrecognized key is
// ignored; a recognized key with a value that fails to parse is ignored too
// — cfg keeps whatever Default() gave it for that field.
func applyProperties(cfg *Config, props map[string]string) {
	if v, ok := props["keepAlive"]; ok {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.KeepAlive = b
		}
	}
	if v, ok := props["keepAliveTimeoutSeconds"]; ok {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.KeepAliveTimeoutSeconds = n
		}
	}
	if v, ok := props["bufferPools"]; ok {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.BufferPools = n
		}
	}
	if v, ok := props["threadsNumber"]; ok {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.ThreadsNumber = n
		}
	}
	if v, ok := props["server_name"]; ok && v != "" {
		cfg.ServerName = v
	}
}

func writeDefaults(path string, cfg *Config) error {
	var b strings.Builder
	fmt.Fprintf(&b, "# netwire server options — auto-created, edit and restart to apply\n")
	fmt.Fprintf(&b, "keepAlive=%t\n", cfg.KeepAlive)
	fmt.Fprintf(&b, "keepAliveTimeoutSeconds=%d\n", cfg.KeepAliveTimeoutSeconds)
	fmt.Fprintf(&b, "bufferPools=%d\n", cfg.BufferPools)
	fmt.Fprintf(&b, "threadsNumber=%d\n", cfg.ThreadsNumber)
	fmt.Fprintf(&b, "server_name=%s\n", cfg.ServerName)
	return os.WriteFile(path, []byte(b.String()), 0644)
}
