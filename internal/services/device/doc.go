// Package device bridges wallet requests to a local hardware signing device
// through the HWI command line tool.
//
// BinaryExecutor runs HWI; Service enumerates devices, reads the BIP84 and
// BIP48 account xpubs of the selected device and wraps results in the
// {responseData: {action, data}} shape the wallet consumes. Payloads built
// here travel over the channel as opaque JSON.
package device
