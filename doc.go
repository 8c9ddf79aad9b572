// Package stockbook is the bookkeeping core behind broker-statement
// imports. It turns normalized transaction descriptors into balanced
// double-entry postings and localized description sentences, ready for a
// conventional ledger store.
//
// The core functionalities include:
//   - Cost Basis Tracking: a running weighted-average tracker per commodity
//     symbol, recomputed on every acquisition and left untouched on
//     disposals, so realized profit can be derived at sale time.
//   - Transaction Taxonomy: a closed set of transaction kinds (buys, sells,
//     trades, dividends, deposits, withdrawals, currency conversions, loans
//     and corrections), each producing a posting list that sums to zero.
//   - Description Codec: a symmetric template grammar that renders each
//     transaction as a human-readable sentence and parses such sentences
//     back into their fields, because the sentence is the only durable
//     record of tracker state between import runs.
//
// This package serves as the foundational logic for the `stockbook`
// command-line tool, ensuring that every imported statement line yields
// postings and text that agree with each other.
package stockbook
