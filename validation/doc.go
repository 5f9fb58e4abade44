// Package validation validates configuration structs and request payloads
// with go-playground/validator, reporting failures as INVALID_INPUT AppErrors
// that list every offending field.
package validation
