// Package commands defines the keeperbridge CLI and wires dependencies for
// subcommands.
//
// Commands
//
//   - pair            Generate a pairing key, show it as a QR code, run a session
//   - join [key]      Join a pairing key from an argument, a sealed file or a QR image
//   - devices list    Enumerate hardware wallets through HWI
//   - devices select  Remember the device used for xpub requests
//   - devices xpubs   Read account xpubs, optionally emitting them to the wallet
//
// # Sessions
//
// While paired, each line read from stdin must be a JSON value; it is sealed
// and sent as CHANNEL_MESSAGE. Every message received from the peer is
// written to stdout as one {"data":...,"network":...} JSON line. Logs go to
// stderr. Interrupt or end of input closes the channel.
//
// # Implementation
//
// The root command loads configuration (flags, KEEPERBRIDGE_* environment,
// keeperbridge.yaml) and builds the dependency graph before any subcommand
// runs, so handlers share one app context.
package commands
