// Package logger provides structured logging for the bolt application
// using zerolog.
//
// It supports multiple output formats (JSON, console), log level
// configuration, and component-scoped loggers with structured fields.
// FlashLogger carries user-facing notices between a request and the
// next rendered page.
//
// # Configuration
//
//	logging:
//	  level: "info"
//	  format: "json"
//
// # Usage
//
//	log := logger.WithComponent("access")
//	log.Info("session opened", logger.Fields("username", name))
package logger
