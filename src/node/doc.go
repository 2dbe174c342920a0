// Package node implements the retrieval/publish orchestration state machine:
// it brings a freshly-created node online, bootstraps its routing knowledge,
// drives the lookup for a single key with unbounded fixed-delay retries,
// persists the discovered value, and optionally transitions into a
// publish-and-serve phase that keeps the node alive indefinitely.
package node
