// Package config provides configuration loading and validation for the
// bolt application.
//
// Configuration lives in a set of YAML files (config.yml,
// contenttypes.yml, menu.yml, permissions.yml, routing.yml,
// taxonomy.yml), each loading under its own key prefix. At runtime the
// tree is addressed by slash- or dot-segmented key paths:
//
//	cfg.GetString("general/canonical")
//	cfg.GetStringSlice("taxonomy/categories/options")
//
// Absent files fall back to compiled defaults. Environment variables
// with the BOLT_ prefix, and entries in an optional .env file, override
// file values. The Checker verifies the loaded tree describes a
// runnable installation before the application accepts requests.
package config
