package wgnl

import (
	"errors"
	"net/netip"
	"reflect"
	"testing"

	"github.com/mdlayher/netlink"
	"golang.org/x/sys/unix"
)

func Test_AllowedIPRoundTrip(t *testing.T) {

	for _, prefix := range []string{"10.0.0.0/24", "0.0.0.0/0", "fd00::/64"} {

		group := NewAllowedIP(netip.MustParsePrefix(prefix))

		b, err := group.Marshal()
		if err != nil {
			t.Fatal(err)
		}

		out, err := UnmarshalAllowedIP(b)
		if err != nil {
			t.Fatal(err)
		}

		if !reflect.DeepEqual(group, out) {
			t.Fatalf("%s did not round trip: %#v != %#v", prefix, group, out)
		}

	}

}

func Test_AllowedIPLengths(t *testing.T) {

	group := NewAllowedIP(netip.MustParsePrefix("192.168.47.0/24"))

	for _, a := range group {
		value, err := a.MarshalValue()
		if err != nil {
			t.Fatal(err)
		}
		if a.ValueLen() != len(value) {
			t.Fatalf("attribute %d: ValueLen %d != encoded %d",
				a.Kind(), a.ValueLen(), len(value))
		}
	}

	b, err := group.Marshal()
	if err != nil {
		t.Fatal(err)
	}
	if sizeofAttrs(group) != len(b) {
		t.Fatalf("group length %d != encoded %d", sizeofAttrs(group), len(b))
	}

}

func Test_AllowedIPTruncatedFamily(t *testing.T) {

	_, err := ParseAllowedIPAttr(netlink.Attribute{
		Type: unix.WGALLOWEDIP_A_FAMILY,
		Data: []byte{0x02},
	})
	if err == nil {
		t.Fatal("truncated family accepted")
	}

	var lenErr *AttrLenError
	if !errors.As(err, &lenErr) {
		t.Fatalf("unexpected error type: %v", err)
	}
	if lenErr.Len != 1 || lenErr.Want != 2 {
		t.Fatalf("wrong lengths reported: %v", lenErr)
	}

}

func Test_AllowedIPBadAddressLength(t *testing.T) {

	_, err := ParseAllowedIPAttr(netlink.Attribute{
		Type: unix.WGALLOWEDIP_A_IPADDR,
		Data: []byte{10, 0, 0, 0, 0},
	})
	if err == nil {
		t.Fatal("5 byte address accepted")
	}

}

func Test_AllowedIPUnknownKind(t *testing.T) {

	_, err := ParseAllowedIPAttr(netlink.Attribute{
		Type: 9,
		Data: []byte{0},
	})
	if err == nil {
		t.Fatal("unknown kind accepted")
	}

	var unknown *UnknownAttrError
	if !errors.As(err, &unknown) {
		t.Fatalf("unexpected error type: %v", err)
	}
	if unknown.Kind != 9 {
		t.Fatalf("wrong kind reported: %d", unknown.Kind)
	}

}
