package config

import (
	"os"

	"github.com/joho/godotenv"
)

// SpeechAPIKeyEnvVar names the environment variable holding the
// transcription service API key.
const SpeechAPIKeyEnvVar = "PODIUM_SPEECH_API_KEY"

// LoadDotenv loads a .env file if one is present. A missing file is not an
// error; system environment variables are used as-is.
func LoadDotenv() bool {
	return godotenv.Load() == nil
}

// SpeechAPIKey returns the transcription service API key, empty if unset.
func SpeechAPIKey() string {
	return os.Getenv(SpeechAPIKeyEnvVar)
}
