package peers

import (
	"testing"

	"github.com/misaka19683/miga/src/common"
	"github.com/misaka19683/miga/src/dht"
)

func TestParseIP4Entry(t *testing.T) {
	peer, err := Parse("/ip4/104.131.131.82/tcp/4001/p2p/QmaCpDMGvV2BGHeYERUEnRQAwe3N8SzbUtfsmvsqQLuvuJ")
	if err != nil {
		t.Fatal(err)
	}
	if peer.NetAddr != "104.131.131.82:4001" {
		t.Fatalf("NetAddr: got %s", peer.NetAddr)
	}
	if peer.ID.Equals(dht.NodeID{}) {
		t.Fatal("node identifier was not extracted")
	}
}

func TestParseDNSEntry(t *testing.T) {
	peer, err := Parse("/dnsaddr/bootstrap.libp2p.io/p2p/QmNnooDu7bfjPFoTZYxMNLWUQJyrVwtbZg5gBMjTezGAJN")
	if err != nil {
		t.Fatal(err)
	}
	// dnsaddr entries carry no transport port; the default is assumed.
	if peer.NetAddr != "bootstrap.libp2p.io:4001" {
		t.Fatalf("NetAddr: got %s", peer.NetAddr)
	}
}

func TestParseRejectsEntryWithoutID(t *testing.T) {
	if _, err := Parse("/ip4/104.131.131.82/tcp/4001"); err == nil {
		t.Fatal("entry without node identifier should be rejected")
	}
}

func TestParseRejectsMalformedEntry(t *testing.T) {
	for _, s := range []string{"not-a-multiaddr", "", "/ip4/nope/tcp/x"} {
		if _, err := Parse(s); err == nil {
			t.Fatalf("Parse(%q) should have failed", s)
		}
	}
}

func TestParseDeterministicID(t *testing.T) {
	addr := "/ip4/104.236.179.241/tcp/4001/p2p/QmSoLPppuBtQSGwKDZT2M73ULpjvfd3aZ6ha4oFGL1KrGM"
	p1, err := Parse(addr)
	if err != nil {
		t.Fatal(err)
	}
	p2, err := Parse(addr)
	if err != nil {
		t.Fatal(err)
	}
	if !p1.ID.Equals(p2.ID) {
		t.Fatal("parsing the same entry twice produced different IDs")
	}
}

func TestParseBootstrapSkipsMalformed(t *testing.T) {
	logger := common.NewTestEntry(t)

	addrs := append([]string{"garbage", "/ip4/1.2.3.4/tcp/4001"}, DefaultBootstrapAddrs...)
	parsed := ParseBootstrap(addrs, logger)

	if len(parsed) != len(DefaultBootstrapAddrs) {
		t.Fatalf("got %d parsed entries, expected %d", len(parsed), len(DefaultBootstrapAddrs))
	}
}
