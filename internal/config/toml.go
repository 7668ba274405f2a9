// Package config provides configuration helpers and TOML parsing.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// FileConfig represents the TOML configuration file.
type FileConfig struct {
	Session   SessionConfig   `toml:"session"`
	Services  ServicesConfig  `toml:"services"`
	Companion CompanionConfig `toml:"companion"`
}

// SessionConfig maps countdown and capture settings.
type SessionConfig struct {
	Green         *int `toml:"green-seconds"`
	Yellow        *int `toml:"yellow-seconds"`
	Red           *int `toml:"red-seconds"`
	Limit         *int `toml:"limit-seconds"`
	PhraseSeconds *int `toml:"phrase-seconds"`
}

// ServicesConfig maps external service endpoints.
type ServicesConfig struct {
	CameraURL     *string `toml:"camera-url"`
	ClassifierURL *string `toml:"classifier-url"`
	SpeechURL     *string `toml:"speech-url"`
}

// CompanionConfig maps the companion receiver settings.
type CompanionConfig struct {
	ListenAddr *string `toml:"listen-addr"`
}

// LoadConfig reads a TOML config from the given path. Missing file is not an error.
func LoadConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("failed to stat config: %w", err)
	}
	var cfg FileConfig
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	return cfg, nil
}
