// Package cli implements collectorctl, the command-line client of the data
// hub HTTP API.
//
// Commands:
//   - login: exchange a collector name and password for a session token
//   - fetch: list the collector's submissions and batches
//   - create-batch: settle pending submissions into a batch
//   - submit: send a submission, optionally attributed with a token
//   - create-collector: register a collector (admin token required)
//   - admin-token: mint a development admin token from the admin secret
//
// The server address and tokens may come from flags or DATAHUB_* variables.
package cli
