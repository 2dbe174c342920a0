// Package peers defines bootstrap entries and the parsing of well-known
// entry-point addresses into (network address, node identifier) pairs.
package peers
