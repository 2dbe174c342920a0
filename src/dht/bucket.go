package dht

import "container/list"

// BucketSize is the max number of contacts per k-bucket.
const BucketSize = 20

// bucket holds a list of contacts ordered most-recently-seen first.
type bucket struct {
	list *list.List
}

func newBucket() *bucket {
	return &bucket{
		list: list.New(),
	}
}

func (b *bucket) Len() int {
	return b.list.Len()
}

// find returns the list element holding id, or nil.
func (b *bucket) find(id NodeID) *list.Element {
	for e := b.list.Front(); e != nil; e = e.Next() {
		if e.Value.(Contact).ID.Equals(id) {
			return e
		}
	}
	return nil
}

func (b *bucket) contacts() []Contact {
	contacts := make([]Contact, 0, b.list.Len())
	for e := b.list.Front(); e != nil; e = e.Next() {
		contacts = append(contacts, e.Value.(Contact))
	}
	return contacts
}
