// Package main is the entry point for the ISO 27001 planner.
//
// The binary serves a JSON API over the planning document and forwards
// analysis requests to the Gemini generation API.
//
// Commands:
//   - serve: start the HTTP API
//   - ping:  send a test prompt and report whether the API answers
//
// Configuration:
//   - Environment variables (PORT, DATA_FILE, GEMINI_MODEL, ...)
//   - GOOGLE_API_KEY from .streamlit/secrets.toml or the environment
//   - CLI flags override the environment for serve
//
// Startup stops with a non-zero exit code when no API key is found.
//
// Usage:
//
//	planner serve --port 8000
//	planner serve --dev --data-file ./iso27001_data.json
//	planner ping
//
// Signals:
//   - SIGINT, SIGTERM: Graceful shutdown
package main
