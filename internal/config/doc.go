// Package config loads and validates application settings from an optional
// .env file, an optional YAML config file and LINGUIST_-prefixed
// environment variables, in increasing order of precedence.
package config
