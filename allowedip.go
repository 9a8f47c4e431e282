package wgnl

import (
	"net/netip"

	"github.com/mdlayher/netlink"
	"github.com/mdlayher/netlink/nlenc"
	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// AllowedIPAttr is one attribute of an allowed-IP range group.
type AllowedIPAttr interface {
	Attr
	allowedIPAttr()
}

// AllowedIP is one allowed-IP range, an ordered attribute group nested
// below WGPEER_A_ALLOWEDIPS. The group owns its attributes outright.
type AllowedIP []AllowedIPAttr

// NewAllowedIP builds the usual family/address/mask group for a prefix.
// Which address family governs the IP payload size is the caller's to keep
// consistent, the codec does not cross-check the two attributes.
func NewAllowedIP(p netip.Prefix) AllowedIP {

	family := uint16(unix.AF_INET)
	if p.Addr().Is6() {
		family = unix.AF_INET6
	}

	return AllowedIP{
		Family(family),
		IPAddr(p.Addr()),
		CIDRMask(p.Bits()),
	}

}

// Marshal encodes an allowed-IP group into a netlink attribute stream.
func (a AllowedIP) Marshal() ([]byte, error) {

	return marshalAttrs(a)

}

// UnmarshalAllowedIP parses one allowed-IP attribute group.
func UnmarshalAllowedIP(b []byte) (AllowedIP, error) {

	nas, err := netlink.UnmarshalAttributes(b)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse allowed ip attributes")
	}

	group := AllowedIP{}
	for _, na := range nas {
		attr, err := ParseAllowedIPAttr(na)
		if err != nil {
			return nil, err
		}
		group = append(group, attr)
	}

	return group, nil

}

// AllowedIPUnspec carries the raw payload of a WGALLOWEDIP_A_UNSPEC
// attribute verbatim.
type AllowedIPUnspec []byte

func (u AllowedIPUnspec) ValueLen() int { return len(u) }

func (u AllowedIPUnspec) Kind() uint16 { return unix.WGALLOWEDIP_A_UNSPEC }

func (u AllowedIPUnspec) Nested() bool { return false }

func (u AllowedIPUnspec) MarshalValue() ([]byte, error) { return u, nil }

func (u AllowedIPUnspec) allowedIPAttr() {}

// Family is the address family of an allowed-IP range, AF_INET or AF_INET6.
type Family uint16

func (f Family) ValueLen() int { return 2 }

func (f Family) Kind() uint16 { return unix.WGALLOWEDIP_A_FAMILY }

func (f Family) Nested() bool { return false }

func (f Family) MarshalValue() ([]byte, error) {

	return nlenc.Uint16Bytes(uint16(f)), nil

}

func (f Family) allowedIPAttr() {}

// IPAddr is the address of an allowed-IP range, carried as 4 or 16 raw
// bytes depending on the family.
type IPAddr netip.Addr

func (ip IPAddr) ValueLen() int {

	if netip.Addr(ip).Is4() {
		return 4
	}
	return 16

}

func (ip IPAddr) Kind() uint16 { return unix.WGALLOWEDIP_A_IPADDR }

func (ip IPAddr) Nested() bool { return false }

func (ip IPAddr) MarshalValue() ([]byte, error) {

	if !netip.Addr(ip).IsValid() {
		return nil, errors.New("allowed ip address is not valid")
	}
	return netip.Addr(ip).AsSlice(), nil

}

func (ip IPAddr) allowedIPAttr() {}

// CIDRMask is the prefix length of an allowed-IP range.
type CIDRMask uint8

func (c CIDRMask) ValueLen() int { return 1 }

func (c CIDRMask) Kind() uint16 { return unix.WGALLOWEDIP_A_CIDR_MASK }

func (c CIDRMask) Nested() bool { return false }

func (c CIDRMask) MarshalValue() ([]byte, error) {

	return []byte{byte(c)}, nil

}

func (c CIDRMask) allowedIPAttr() {}

// ParseAllowedIPAttr parses a single allowed-IP attribute from a TLV
// record, dispatching on its kind. Unrecognized kinds fail, they are never
// skipped.
func ParseAllowedIPAttr(na netlink.Attribute) (AllowedIPAttr, error) {

	payload := na.Data

	switch na.Type & attrTypeMask {

	case unix.WGALLOWEDIP_A_UNSPEC:
		return AllowedIPUnspec(append([]byte(nil), payload...)), nil

	case unix.WGALLOWEDIP_A_FAMILY:
		v, err := parseUint16(unix.WGALLOWEDIP_A_FAMILY, payload)
		if err != nil {
			return nil, errors.Wrap(err, "invalid WGALLOWEDIP_A_FAMILY value")
		}
		return Family(v), nil

	case unix.WGALLOWEDIP_A_IPADDR:
		switch len(payload) {
		case 4:
			return IPAddr(netip.AddrFrom4([4]byte(payload))), nil
		case 16:
			return IPAddr(netip.AddrFrom16([16]byte(payload))), nil
		}
		return nil, errors.Errorf(
			"invalid WGALLOWEDIP_A_IPADDR length: %d", len(payload))

	case unix.WGALLOWEDIP_A_CIDR_MASK:
		if len(payload) != 1 {
			return nil, &AttrLenError{
				Kind: unix.WGALLOWEDIP_A_CIDR_MASK,
				Len:  len(payload),
				Want: 1,
			}
		}
		return CIDRMask(payload[0]), nil

	}

	return nil, &UnknownAttrError{
		Family: "allowed ip",
		Kind:   na.Type & attrTypeMask,
	}

}
