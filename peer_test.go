package wgnl

import (
	"errors"
	"net/netip"
	"reflect"
	"testing"
	"time"

	"github.com/mdlayher/netlink"
	"golang.org/x/sys/unix"
)

func testPeer() Peer {

	key := Key{}
	for i := range key {
		key[i] = byte(i)
	}

	return Peer{
		PeerPublicKey(key),
		PresharedKey(Key{}),
		PeerFlags(unix.WGPEER_F_REPLACE_ALLOWEDIPS),
		Endpoint(netip.AddrPortFrom(netip.MustParseAddr("10.10.10.1"), 4567)),
		PersistentKeepalive(25),
		LastHandshake(time.Unix(1700000000, 123456789)),
		RxBytes(1 << 40),
		TxBytes(4096),
		ProtocolVersion(1),
		AllowedIPs{
			NewAllowedIP(netip.MustParsePrefix("10.0.0.0/16")),
			NewAllowedIP(netip.MustParsePrefix("fd00::/48")),
		},
	}

}

func Test_PeerRoundTrip(t *testing.T) {

	peer := testPeer()

	b, err := peer.Marshal()
	if err != nil {
		t.Fatal(err)
	}

	out, err := UnmarshalPeer(b)
	if err != nil {
		t.Fatal(err)
	}

	if !reflect.DeepEqual(peer, out) {
		t.Fatalf("peer did not round trip:\n%#v\n%#v", peer, out)
	}

}

// One allowed-IP entry of family AF_INET, address 0.0.0.0, prefix 0 must
// come back intact from one nesting level down.
func Test_PeerNestedAllowedIP(t *testing.T) {

	entry := AllowedIP{
		Family(unix.AF_INET),
		IPAddr(netip.MustParseAddr("0.0.0.0")),
		CIDRMask(0),
	}
	peer := Peer{AllowedIPs{entry}}

	b, err := peer.Marshal()
	if err != nil {
		t.Fatal(err)
	}

	out, err := UnmarshalPeer(b)
	if err != nil {
		t.Fatal(err)
	}

	if len(out) != 1 {
		t.Fatalf("expected 1 attribute, got %d", len(out))
	}
	list, ok := out[0].(AllowedIPs)
	if !ok {
		t.Fatalf("expected AllowedIPs, got %T", out[0])
	}
	if len(list) != 1 || !reflect.DeepEqual(list[0], entry) {
		t.Fatalf("allowed ip did not survive nesting: %#v", list)
	}

}

func Test_PeerEmptyAllowedIPs(t *testing.T) {

	peer := Peer{AllowedIPs{}}

	b, err := peer.Marshal()
	if err != nil {
		t.Fatal(err)
	}

	out, err := UnmarshalPeer(b)
	if err != nil {
		t.Fatal(err)
	}

	list, ok := out[0].(AllowedIPs)
	if !ok {
		t.Fatalf("expected AllowedIPs, got %T", out[0])
	}
	if list == nil || len(list) != 0 {
		t.Fatalf("expected empty list, got %#v", list)
	}

}

func Test_PeerAttrLengths(t *testing.T) {

	for _, a := range testPeer() {
		value, err := a.MarshalValue()
		if err != nil {
			t.Fatal(err)
		}
		if a.ValueLen() != len(value) {
			t.Fatalf("attribute %d: ValueLen %d != encoded %d",
				a.Kind(), a.ValueLen(), len(value))
		}
	}

}

func Test_PeerTruncatedKey(t *testing.T) {

	_, err := ParsePeerAttr(netlink.Attribute{
		Type: unix.WGPEER_A_PUBLIC_KEY,
		Data: make([]byte, 16),
	})
	if err == nil {
		t.Fatal("16 byte key accepted")
	}

	var lenErr *AttrLenError
	if !errors.As(err, &lenErr) {
		t.Fatalf("unexpected error type: %v", err)
	}
	if lenErr.Len != 16 || lenErr.Want != KeyLen {
		t.Fatalf("wrong lengths reported: %v", lenErr)
	}

}

func Test_PeerUnknownKind(t *testing.T) {

	_, err := ParsePeerAttr(netlink.Attribute{
		Type: 55,
		Data: []byte{0, 0, 0, 0},
	})
	if err == nil {
		t.Fatal("unknown kind accepted")
	}

	var unknown *UnknownAttrError
	if !errors.As(err, &unknown) {
		t.Fatalf("unexpected error type: %v", err)
	}
	if unknown.Kind != 55 {
		t.Fatalf("wrong kind reported: %d", unknown.Kind)
	}

}

// A bad attribute inside a nested allowed-IP container must fail the whole
// peer parse, not drop the entry.
func Test_PeerNestedFailurePropagates(t *testing.T) {

	entry, err := netlink.MarshalAttributes([]netlink.Attribute{
		{Type: unix.WGALLOWEDIP_A_FAMILY, Data: []byte{0x02}}, // short
	})
	if err != nil {
		t.Fatal(err)
	}
	list, err := netlink.MarshalAttributes([]netlink.Attribute{
		{Type: 0 | unix.NLA_F_NESTED, Data: entry},
	})
	if err != nil {
		t.Fatal(err)
	}

	_, err = ParsePeerAttr(netlink.Attribute{
		Type: unix.WGPEER_A_ALLOWEDIPS | unix.NLA_F_NESTED,
		Data: list,
	})
	if err == nil {
		t.Fatal("malformed nested entry accepted")
	}

}
