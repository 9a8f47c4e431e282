package wgnl

import (
	"bytes"
	"net/netip"
	"reflect"
	"testing"

	"github.com/mdlayher/netlink/nlenc"
	"golang.org/x/sys/unix"
)

func Test_EndpointV4Layout(t *testing.T) {

	e := Endpoint(netip.AddrPortFrom(netip.MustParseAddr("1.2.3.4"), 51820))

	b, err := e.MarshalValue()
	if err != nil {
		t.Fatal(err)
	}

	if len(b) != unix.SizeofSockaddrInet4 {
		t.Fatalf("sockaddr_in is %d bytes, want %d",
			len(b), unix.SizeofSockaddrInet4)
	}
	if e.ValueLen() != len(b) {
		t.Fatalf("ValueLen %d != encoded %d", e.ValueLen(), len(b))
	}

	if nlenc.Uint16(b[0:2]) != unix.AF_INET {
		t.Fatal("family is not AF_INET")
	}

	// port is the one field in network byte order
	if b[2] != 0xca || b[3] != 0x6c {
		t.Fatalf("port bytes wrong: %x %x", b[2], b[3])
	}

	if !bytes.Equal(b[4:8], []byte{1, 2, 3, 4}) {
		t.Fatalf("address bytes wrong: %v", b[4:8])
	}
	if !bytes.Equal(b[8:16], make([]byte, 8)) {
		t.Fatalf("sockaddr_in padding not zero: %v", b[8:16])
	}

	out, err := parseEndpoint(b)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(e, out) {
		t.Fatalf("endpoint did not round trip: %v != %v", e, out)
	}

}

func Test_EndpointV6RoundTrip(t *testing.T) {

	e := Endpoint(netip.AddrPortFrom(
		netip.MustParseAddr("fd00::1234"), 443))

	b, err := e.MarshalValue()
	if err != nil {
		t.Fatal(err)
	}
	if len(b) != unix.SizeofSockaddrInet6 {
		t.Fatalf("sockaddr_in6 is %d bytes, want %d",
			len(b), unix.SizeofSockaddrInet6)
	}

	out, err := parseEndpoint(b)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(e, out) {
		t.Fatalf("endpoint did not round trip: %v != %v", e, out)
	}

}

func Test_EndpointBadLength(t *testing.T) {

	_, err := parseEndpoint(make([]byte, 10))
	if err == nil {
		t.Fatal("10 byte sockaddr accepted")
	}

}

func Test_EndpointFamilyMismatch(t *testing.T) {

	// sockaddr_in sized payload declaring AF_INET6
	b := make([]byte, unix.SizeofSockaddrInet4)
	nlenc.PutUint16(b[0:2], unix.AF_INET6)

	_, err := parseEndpoint(b)
	if err == nil {
		t.Fatal("family mismatch accepted")
	}

}
