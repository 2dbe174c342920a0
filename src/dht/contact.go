package dht

import "fmt"

// Contact is a (node identifier, network address) pair known to the routing
// table.
type Contact struct {
	ID   NodeID
	Addr string
}

func (c Contact) String() string {
	return fmt.Sprintf("%s@%s", c.ID, c.Addr)
}
