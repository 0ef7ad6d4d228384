package config

import "os"

// These are read before the logger exists, so they bypass env.Parse.

func IsDebug() bool {
	return os.Getenv("KURT_DEBUG") == "1"
}

// IsLogJSON selects raw JSON log lines instead of the console writer.
func IsLogJSON() bool {
	v := os.Getenv("LOG_JSON")
	return v == "1" || v == "true"
}
