package wgnl

import (
	"github.com/mdlayher/netlink"
	"github.com/mdlayher/netlink/nlenc"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"
)

// DeviceAttr is one top-level attribute of a WireGuard device.
type DeviceAttr interface {
	Attr
	deviceAttr()
}

// Device is a device's attribute group, the payload the generic netlink
// envelope wraps for WG_CMD_GET_DEVICE and WG_CMD_SET_DEVICE. Attributes
// carry no ordering requirement, but the order of nested peer and
// allowed-IP lists is preserved across a marshal/unmarshal cycle.
type Device []DeviceAttr

// Marshal encodes a device attribute group into a netlink attribute
// stream, ready to wrap in a generic netlink message.
func (d Device) Marshal() ([]byte, error) {

	data, err := marshalAttrs(d)
	if err != nil {
		log.WithError(err).Error("failed to marshal device attributes")
		return nil, err
	}
	return data, nil

}

// UnmarshalDevice parses a received device attribute stream, recursing into
// nested peer and allowed-IP containers. Any malformed or unrecognized
// attribute fails the whole parse, nothing is skipped or defaulted.
func UnmarshalDevice(b []byte) (Device, error) {

	nas, err := netlink.UnmarshalAttributes(b)
	if err != nil {
		log.WithError(err).Error("failed to parse device attributes")
		return nil, errors.Wrap(err, "failed to parse device attributes")
	}

	dev := Device{}
	for _, na := range nas {
		attr, err := ParseDeviceAttr(na)
		if err != nil {
			log.WithError(err).Error("failed to parse device attribute")
			return nil, err
		}
		dev = append(dev, attr)
	}

	return dev, nil

}

// Name returns the device's interface name attribute, if present.
func (d Device) Name() (string, bool) {

	for _, a := range d {
		if name, ok := a.(IfName); ok {
			return string(name), true
		}
	}
	return "", false

}

// DeviceUnspec carries the raw payload of a WGDEVICE_A_UNSPEC attribute
// verbatim.
type DeviceUnspec []byte

func (u DeviceUnspec) ValueLen() int { return len(u) }

func (u DeviceUnspec) Kind() uint16 { return unix.WGDEVICE_A_UNSPEC }

func (u DeviceUnspec) Nested() bool { return false }

func (u DeviceUnspec) MarshalValue() ([]byte, error) { return u, nil }

func (u DeviceUnspec) deviceAttr() {}

// IfIndex is the interface index of the device.
type IfIndex uint32

func (i IfIndex) ValueLen() int { return 4 }

func (i IfIndex) Kind() uint16 { return unix.WGDEVICE_A_IFINDEX }

func (i IfIndex) Nested() bool { return false }

func (i IfIndex) MarshalValue() ([]byte, error) {

	return nlenc.Uint32Bytes(uint32(i)), nil

}

func (i IfIndex) deviceAttr() {}

// IfName is the interface name of the device, encoded with a trailing null
// terminator.
type IfName string

func (n IfName) ValueLen() int { return len(n) + 1 }

func (n IfName) Kind() uint16 { return unix.WGDEVICE_A_IFNAME }

func (n IfName) Nested() bool { return false }

func (n IfName) MarshalValue() ([]byte, error) {

	if len(n) >= unix.IFNAMSIZ {
		return nil, errors.Errorf(
			"interface name %q exceeds %d bytes", string(n), unix.IFNAMSIZ-1)
	}
	return nlenc.Bytes(string(n)), nil

}

func (n IfName) deviceAttr() {}

// DevicePrivateKey is the device's private key.
type DevicePrivateKey Key

func (k DevicePrivateKey) ValueLen() int { return KeyLen }

func (k DevicePrivateKey) Kind() uint16 { return unix.WGDEVICE_A_PRIVATE_KEY }

func (k DevicePrivateKey) Nested() bool { return false }

func (k DevicePrivateKey) MarshalValue() ([]byte, error) { return k[:], nil }

func (k DevicePrivateKey) deviceAttr() {}

// DevicePublicKey is the device's public key.
type DevicePublicKey Key

func (k DevicePublicKey) ValueLen() int { return KeyLen }

func (k DevicePublicKey) Kind() uint16 { return unix.WGDEVICE_A_PUBLIC_KEY }

func (k DevicePublicKey) Nested() bool { return false }

func (k DevicePublicKey) MarshalValue() ([]byte, error) { return k[:], nil }

func (k DevicePublicKey) deviceAttr() {}

// ListenPort is the device's UDP listen port.
type ListenPort uint16

func (p ListenPort) ValueLen() int { return 2 }

func (p ListenPort) Kind() uint16 { return unix.WGDEVICE_A_LISTEN_PORT }

func (p ListenPort) Nested() bool { return false }

func (p ListenPort) MarshalValue() ([]byte, error) {

	return nlenc.Uint16Bytes(uint16(p)), nil

}

func (p ListenPort) deviceAttr() {}

// Fwmark is the firewall mark applied to the device's traffic.
type Fwmark uint32

func (f Fwmark) ValueLen() int { return 4 }

func (f Fwmark) Kind() uint16 { return unix.WGDEVICE_A_FWMARK }

func (f Fwmark) Nested() bool { return false }

func (f Fwmark) MarshalValue() ([]byte, error) {

	return nlenc.Uint32Bytes(uint32(f)), nil

}

func (f Fwmark) deviceAttr() {}

// DeviceFlags is a bitmask over the WGDEVICE_F_* values.
type DeviceFlags uint32

func (f DeviceFlags) ValueLen() int { return 4 }

func (f DeviceFlags) Kind() uint16 { return unix.WGDEVICE_A_FLAGS }

func (f DeviceFlags) Nested() bool { return false }

func (f DeviceFlags) MarshalValue() ([]byte, error) {

	return nlenc.Uint32Bytes(uint32(f)), nil

}

func (f DeviceFlags) deviceAttr() {}

// Peers is the device's ordered peer list, carried as a nested attribute.
// Each member group is itself a length-prefixed container of peer
// attributes, tagged with its list index.
type Peers []Peer

func (p Peers) ValueLen() int {

	n := 0
	for _, peer := range p {
		n += nlaAlign(nlaHeaderLen + sizeofAttrs(peer))
	}
	return n

}

func (p Peers) Kind() uint16 { return unix.WGDEVICE_A_PEERS }

func (p Peers) Nested() bool { return true }

func (p Peers) MarshalValue() ([]byte, error) {

	nas := make([]netlink.Attribute, 0, len(p))

	for i, peer := range p {
		data, err := peer.Marshal()
		if err != nil {
			return nil, errors.Wrapf(err, "failed to marshal peer %d", i)
		}
		nas = append(nas, netlink.Attribute{
			Type: uint16(i) | unix.NLA_F_NESTED,
			Data: data,
		})
	}

	return netlink.MarshalAttributes(nas)

}

func (p Peers) deviceAttr() {}

// ParseDeviceAttr parses a single device attribute from a TLV record,
// dispatching on its kind. Decoding a WGDEVICE_A_PEERS attribute re-enters
// the attribute parser twice: once over the list payload and once within
// each discovered peer container. Unrecognized kinds fail, they are never
// skipped.
func ParseDeviceAttr(na netlink.Attribute) (DeviceAttr, error) {

	payload := na.Data

	switch na.Type & attrTypeMask {

	case unix.WGDEVICE_A_UNSPEC:
		return DeviceUnspec(append([]byte(nil), payload...)), nil

	case unix.WGDEVICE_A_IFINDEX:
		v, err := parseUint32(unix.WGDEVICE_A_IFINDEX, payload)
		if err != nil {
			return nil, errors.Wrap(err, "invalid WGDEVICE_A_IFINDEX value")
		}
		return IfIndex(v), nil

	case unix.WGDEVICE_A_IFNAME:
		name, err := parseString(unix.WGDEVICE_A_IFNAME, payload)
		if err != nil {
			return nil, errors.Wrap(err, "invalid WGDEVICE_A_IFNAME value")
		}
		return IfName(name), nil

	case unix.WGDEVICE_A_PRIVATE_KEY:
		key, err := parseKey(unix.WGDEVICE_A_PRIVATE_KEY, payload)
		if err != nil {
			return nil, errors.Wrap(err, "invalid WGDEVICE_A_PRIVATE_KEY value")
		}
		return DevicePrivateKey(key), nil

	case unix.WGDEVICE_A_PUBLIC_KEY:
		key, err := parseKey(unix.WGDEVICE_A_PUBLIC_KEY, payload)
		if err != nil {
			return nil, errors.Wrap(err, "invalid WGDEVICE_A_PUBLIC_KEY value")
		}
		return DevicePublicKey(key), nil

	case unix.WGDEVICE_A_LISTEN_PORT:
		v, err := parseUint16(unix.WGDEVICE_A_LISTEN_PORT, payload)
		if err != nil {
			return nil, errors.Wrap(err, "invalid WGDEVICE_A_LISTEN_PORT value")
		}
		return ListenPort(v), nil

	case unix.WGDEVICE_A_FWMARK:
		v, err := parseUint32(unix.WGDEVICE_A_FWMARK, payload)
		if err != nil {
			return nil, errors.Wrap(err, "invalid WGDEVICE_A_FWMARK value")
		}
		return Fwmark(v), nil

	case unix.WGDEVICE_A_FLAGS:
		v, err := parseUint32(unix.WGDEVICE_A_FLAGS, payload)
		if err != nil {
			return nil, errors.Wrap(err, "invalid WGDEVICE_A_FLAGS value")
		}
		return DeviceFlags(v), nil

	case unix.WGDEVICE_A_PEERS:
		nas, err := netlink.UnmarshalAttributes(payload)
		if err != nil {
			return nil, errors.Wrap(err, "failed to parse WGDEVICE_A_PEERS")
		}
		peers := Peers{}
		for i, n := range nas {
			peer, err := UnmarshalPeer(n.Data)
			if err != nil {
				return nil, errors.Wrapf(
					err, "failed to parse WGDEVICE_A_PEERS entry %d", i)
			}
			peers = append(peers, peer)
		}
		return peers, nil

	}

	return nil, &UnknownAttrError{
		Family: "device",
		Kind:   na.Type & attrTypeMask,
	}

}
