package wgnl

import (
	"encoding/binary"
	"net/netip"

	"github.com/mdlayher/netlink/nlenc"
	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// Endpoint is a peer's internet endpoint. On the wire it is a raw kernel
// sockaddr_in or sockaddr_in6, not a netlink-style attribute payload:
//
//	sockaddr_in   family u16 | port u16 (network order) | addr [4]byte | zero [8]byte
//	sockaddr_in6  family u16 | port u16 (network order) | flowinfo u32 | addr [16]byte | scope_id u32
//
// The family field is native endian while the port is big endian, so the
// layout is built byte by byte rather than through the platform sockaddr
// types.
type Endpoint netip.AddrPort

func (e Endpoint) ValueLen() int {

	if netip.AddrPort(e).Addr().Is4() {
		return unix.SizeofSockaddrInet4
	}
	return unix.SizeofSockaddrInet6

}

func (e Endpoint) Kind() uint16 { return unix.WGPEER_A_ENDPOINT }

func (e Endpoint) Nested() bool { return false }

func (e Endpoint) MarshalValue() ([]byte, error) {

	ap := netip.AddrPort(e)
	if !ap.Addr().IsValid() {
		return nil, errors.New("endpoint address is not valid")
	}

	b := make([]byte, e.ValueLen())
	binary.BigEndian.PutUint16(b[2:4], ap.Port())

	if ap.Addr().Is4() {
		nlenc.PutUint16(b[0:2], unix.AF_INET)
		addr := ap.Addr().As4()
		copy(b[4:8], addr[:])
		return b, nil
	}

	nlenc.PutUint16(b[0:2], unix.AF_INET6)
	addr := ap.Addr().As16()
	copy(b[8:24], addr[:])
	return b, nil

}

func (e Endpoint) peerAttr() {}

// String returns the endpoint in host:port form.
func (e Endpoint) String() string {

	return netip.AddrPort(e).String()

}

// parseEndpoint decodes a kernel sockaddr, dispatching v4 against v6 on the
// total payload size. Flow info and scope id are not modeled.
func parseEndpoint(payload []byte) (Endpoint, error) {

	switch len(payload) {

	case unix.SizeofSockaddrInet4:
		if family := nlenc.Uint16(payload[0:2]); family != unix.AF_INET {
			return Endpoint{}, errors.Errorf(
				"invalid sockaddr_in family: %d", family)
		}
		port := binary.BigEndian.Uint16(payload[2:4])
		addr := netip.AddrFrom4([4]byte(payload[4:8]))
		return Endpoint(netip.AddrPortFrom(addr, port)), nil

	case unix.SizeofSockaddrInet6:
		if family := nlenc.Uint16(payload[0:2]); family != unix.AF_INET6 {
			return Endpoint{}, errors.Errorf(
				"invalid sockaddr_in6 family: %d", family)
		}
		port := binary.BigEndian.Uint16(payload[2:4])
		addr := netip.AddrFrom16([16]byte(payload[8:24]))
		return Endpoint(netip.AddrPortFrom(addr, port)), nil

	}

	return Endpoint{}, errors.Errorf(
		"invalid WGPEER_A_ENDPOINT length: %d", len(payload))

}
