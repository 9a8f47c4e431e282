package wgnl

import (
	"net/netip"
	"reflect"
	"testing"
)

func Test_MergeDevice(t *testing.T) {

	ipA := NewAllowedIP(netip.MustParsePrefix("10.0.0.0/24"))
	ipB := NewAllowedIP(netip.MustParsePrefix("10.0.1.0/24"))
	ipC := NewAllowedIP(netip.MustParsePrefix("10.0.2.0/24"))

	dev := Device{
		IfName("wg0"),
		Peers{
			Peer{PeerPublicKey(Key{1}), AllowedIPs{ipA}},
		},
	}

	// continuation message: more allowed IPs for peer 1, plus a new peer
	next := Device{
		IfName("wg0"),
		Peers{
			Peer{PeerPublicKey(Key{1}), AllowedIPs{ipB, ipC}},
			Peer{PeerPublicKey(Key{2})},
		},
	}

	merged := mergeDevice(dev, next)

	peers, ok := merged[1].(Peers)
	if !ok {
		t.Fatalf("expected Peers, got %T", merged[1])
	}
	if len(peers) != 2 {
		t.Fatalf("expected 2 peers, got %d", len(peers))
	}

	want := AllowedIPs{ipA, ipB, ipC}
	var got AllowedIPs
	for _, a := range peers[0] {
		if l, ok := a.(AllowedIPs); ok {
			got = l
		}
	}
	if !reflect.DeepEqual(want, got) {
		t.Fatalf("allowed IPs not merged: %#v", got)
	}

	key, ok := peers[1].PublicKey()
	if !ok || key != (Key{2}) {
		t.Fatal("new peer not appended")
	}

}
