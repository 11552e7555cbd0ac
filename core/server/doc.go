// Package server holds the HTTP server configuration.
//
// While the main application entry point handles the server startup, this package
// defines the configuration structure for the listener: port, API key and timeouts.
//
// # Usage
//
// This package is embedded by core/config and read by the start command when it
// builds the Fiber application.
package server
