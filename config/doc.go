// Package config loads llm-utils settings from a YAML file, a .env file and
// the process environment using Viper and godotenv.
//
// # Usage
//
//	var s config.Settings
//	if err := config.LoadConfig("llm-utils", &s); err != nil { ... }
//	s.ApplyDefaults()
//	if err := s.Validate(); err != nil { ... }
//
// Environment variables override file values. A variable such as
// CHAT_MODEL is bound to every nesting it could mean (chat.model,
// chat_model), so both flat and nested keys resolve.
package config
