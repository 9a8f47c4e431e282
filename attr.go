package wgnl

import (
	"bytes"
	"unicode/utf8"

	"github.com/mdlayher/netlink"
	"github.com/mdlayher/netlink/nlenc"
	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// Netlink attribute header size and the mask that strips the flag bits a
// sender may set on an attribute type.
const (
	nlaHeaderLen = 4
	attrTypeMask = ^uint16(unix.NLA_F_NESTED | unix.NLA_F_NET_BYTEORDER)
)

// Attr is one WireGuard netlink attribute. Each attribute family (device,
// peer, allowed IP) is a closed set of variant types implementing this
// contract, so all three share the same marshaling path. Multi-byte scalars
// are encoded in the host's native byte order, which is the netlink
// convention the kernel expects.
type Attr interface {
	// ValueLen returns the byte length of the encoded attribute payload,
	// excluding the attribute header and alignment padding.
	ValueLen() int

	// Kind returns the attribute type as defined in the kernel's
	// wireguard.h, without flag bits.
	Kind() uint16

	// Nested reports whether the payload is itself a stream of netlink
	// attributes.
	Nested() bool

	// MarshalValue encodes the attribute payload.
	MarshalValue() ([]byte, error)
}

// marshalAttrs encodes a set of attributes into a contiguous netlink
// attribute stream. Header production, 4-byte alignment and padding are
// delegated to the netlink library.
func marshalAttrs[T Attr](attrs []T) ([]byte, error) {
	nas := make([]netlink.Attribute, 0, len(attrs))

	for _, a := range attrs {
		value, err := a.MarshalValue()
		if err != nil {
			return nil, err
		}

		kind := a.Kind()
		if a.Nested() {
			kind |= unix.NLA_F_NESTED
		}

		nas = append(nas, netlink.Attribute{Type: kind, Data: value})
	}

	return netlink.MarshalAttributes(nas)
}

// sizeofAttrs returns the total encoded length of an attribute stream,
// counting each attribute's header, payload and alignment padding.
func sizeofAttrs[T Attr](attrs []T) int {

	n := 0
	for _, a := range attrs {
		n += nlaAlign(nlaHeaderLen + a.ValueLen())
	}
	return n

}

func nlaAlign(n int) int {
	return (n + 3) &^ 3
}

// Scalar parse helpers. Fixed-size payloads are rejected outright on any
// length mismatch, there is no truncation or padding tolerance.

func parseUint16(kind uint16, b []byte) (uint16, error) {

	if len(b) != 2 {
		return 0, &AttrLenError{Kind: kind, Len: len(b), Want: 2}
	}
	return nlenc.Uint16(b), nil

}

func parseUint32(kind uint16, b []byte) (uint32, error) {

	if len(b) != 4 {
		return 0, &AttrLenError{Kind: kind, Len: len(b), Want: 4}
	}
	return nlenc.Uint32(b), nil

}

func parseUint64(kind uint16, b []byte) (uint64, error) {

	if len(b) != 8 {
		return 0, &AttrLenError{Kind: kind, Len: len(b), Want: 8}
	}
	return nlenc.Uint64(b), nil

}

func parseKey(kind uint16, b []byte) (Key, error) {

	var key Key
	if len(b) != KeyLen {
		return key, &AttrLenError{Kind: kind, Len: len(b), Want: KeyLen}
	}
	copy(key[:], b)
	return key, nil

}

// parseString decodes a null-terminated text payload, stripping the
// terminator.
func parseString(kind uint16, b []byte) (string, error) {

	if len(b) == 0 || b[len(b)-1] != 0 {
		return "", errors.Errorf(
			"attribute %d: string is not null terminated", kind)
	}

	s := b[:len(b)-1]
	if bytes.IndexByte(s, 0) != -1 {
		return "", errors.Errorf(
			"attribute %d: string contains interior null byte", kind)
	}
	if !utf8.Valid(s) {
		return "", errors.Errorf("attribute %d: string is not valid text", kind)
	}

	return string(s), nil

}
