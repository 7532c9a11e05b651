// Package app wires application dependencies for the CLI.
//
// LoadConfig merges defaults, keeperbridge.yaml, KEEPERBRIDGE_* environment
// variables and command line flags with viper. New builds the zap logger and
// the concrete stores, relay dialer and services from Config, exposing them
// via the Wire struct for commands to use.
package app
