// Package logger provides structured logging for llm-utils using zerolog.
//
// It supports JSON and console output, level configuration, and
// component-scoped loggers carrying structured fields such as the model
// and provider of an LLM call.
//
// # Configuration
//
//	logging:
//	  level: "info"
//	  format: "json"
//
// # Usage
//
//	log := logger.WithComponent("chat")
//	log.Info("completion received", logger.Fields(logger.FieldModel, "gpt-4"))
package logger
