// Package dht implements a Kademlia distributed hash table over UDP. The
// retrieval loop only depends on the Engine interface; the concrete engine
// maintains an XOR-metric routing table, performs iterative lookups, and
// reports lifecycle events on a channel.
package dht
