package wgnl

import (
	"time"

	"github.com/mdlayher/netlink"
	"github.com/mdlayher/netlink/nlenc"
	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// PeerAttr is one attribute of a peer group.
type PeerAttr interface {
	Attr
	peerAttr()
}

// Peer is one peer's attribute group, nested below WGDEVICE_A_PEERS. The
// group owns its attributes outright, attribute order within the group is
// preserved across a marshal/unmarshal cycle.
type Peer []PeerAttr

// Marshal encodes a peer group into a netlink attribute stream.
func (p Peer) Marshal() ([]byte, error) {

	return marshalAttrs(p)

}

// UnmarshalPeer parses one peer attribute group, recursing into any nested
// allowed-IP containers.
func UnmarshalPeer(b []byte) (Peer, error) {

	nas, err := netlink.UnmarshalAttributes(b)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse peer attributes")
	}

	group := Peer{}
	for _, na := range nas {
		attr, err := ParsePeerAttr(na)
		if err != nil {
			return nil, err
		}
		group = append(group, attr)
	}

	return group, nil

}

// PublicKey returns the peer's public key attribute, if present.
func (p Peer) PublicKey() (Key, bool) {

	for _, a := range p {
		if key, ok := a.(PeerPublicKey); ok {
			return Key(key), true
		}
	}
	return Key{}, false

}

// PeerUnspec carries the raw payload of a WGPEER_A_UNSPEC attribute
// verbatim.
type PeerUnspec []byte

func (u PeerUnspec) ValueLen() int { return len(u) }

func (u PeerUnspec) Kind() uint16 { return unix.WGPEER_A_UNSPEC }

func (u PeerUnspec) Nested() bool { return false }

func (u PeerUnspec) MarshalValue() ([]byte, error) { return u, nil }

func (u PeerUnspec) peerAttr() {}

// PeerPublicKey is the peer's Curve25519 public key.
type PeerPublicKey Key

func (k PeerPublicKey) ValueLen() int { return KeyLen }

func (k PeerPublicKey) Kind() uint16 { return unix.WGPEER_A_PUBLIC_KEY }

func (k PeerPublicKey) Nested() bool { return false }

func (k PeerPublicKey) MarshalValue() ([]byte, error) { return k[:], nil }

func (k PeerPublicKey) peerAttr() {}

// PresharedKey is the peer's optional preshared key.
type PresharedKey Key

func (k PresharedKey) ValueLen() int { return KeyLen }

func (k PresharedKey) Kind() uint16 { return unix.WGPEER_A_PRESHARED_KEY }

func (k PresharedKey) Nested() bool { return false }

func (k PresharedKey) MarshalValue() ([]byte, error) { return k[:], nil }

func (k PresharedKey) peerAttr() {}

// PeerFlags is a bitmask over the WGPEER_F_* values.
type PeerFlags uint32

func (f PeerFlags) ValueLen() int { return 4 }

func (f PeerFlags) Kind() uint16 { return unix.WGPEER_A_FLAGS }

func (f PeerFlags) Nested() bool { return false }

func (f PeerFlags) MarshalValue() ([]byte, error) {

	return nlenc.Uint32Bytes(uint32(f)), nil

}

func (f PeerFlags) peerAttr() {}

// PersistentKeepalive is the peer's keepalive interval in seconds. Zero
// disables keepalives.
type PersistentKeepalive uint16

func (k PersistentKeepalive) ValueLen() int { return 2 }

func (k PersistentKeepalive) Kind() uint16 {
	return unix.WGPEER_A_PERSISTENT_KEEPALIVE_INTERVAL
}

func (k PersistentKeepalive) Nested() bool { return false }

func (k PersistentKeepalive) MarshalValue() ([]byte, error) {

	return nlenc.Uint16Bytes(uint16(k)), nil

}

func (k PersistentKeepalive) peerAttr() {}

// LastHandshake is the time of the last completed handshake, carried as a
// kernel timespec pair of 64-bit seconds and 64-bit nanoseconds.
type LastHandshake time.Time

func (h LastHandshake) ValueLen() int { return 16 }

func (h LastHandshake) Kind() uint16 { return unix.WGPEER_A_LAST_HANDSHAKE_TIME }

func (h LastHandshake) Nested() bool { return false }

func (h LastHandshake) MarshalValue() ([]byte, error) {

	t := time.Time(h)

	b := make([]byte, 16)
	nlenc.PutUint64(b[0:8], uint64(t.Unix()))
	nlenc.PutUint64(b[8:16], uint64(t.Nanosecond()))
	return b, nil

}

func (h LastHandshake) peerAttr() {}

// RxBytes counts bytes received from the peer.
type RxBytes uint64

func (r RxBytes) ValueLen() int { return 8 }

func (r RxBytes) Kind() uint16 { return unix.WGPEER_A_RX_BYTES }

func (r RxBytes) Nested() bool { return false }

func (r RxBytes) MarshalValue() ([]byte, error) {

	return nlenc.Uint64Bytes(uint64(r)), nil

}

func (r RxBytes) peerAttr() {}

// TxBytes counts bytes transmitted to the peer.
type TxBytes uint64

func (t TxBytes) ValueLen() int { return 8 }

func (t TxBytes) Kind() uint16 { return unix.WGPEER_A_TX_BYTES }

func (t TxBytes) Nested() bool { return false }

func (t TxBytes) MarshalValue() ([]byte, error) {

	return nlenc.Uint64Bytes(uint64(t)), nil

}

func (t TxBytes) peerAttr() {}

// ProtocolVersion is the WireGuard protocol version in use for the peer.
type ProtocolVersion uint32

func (v ProtocolVersion) ValueLen() int { return 4 }

func (v ProtocolVersion) Kind() uint16 { return unix.WGPEER_A_PROTOCOL_VERSION }

func (v ProtocolVersion) Nested() bool { return false }

func (v ProtocolVersion) MarshalValue() ([]byte, error) {

	return nlenc.Uint32Bytes(uint32(v)), nil

}

func (v ProtocolVersion) peerAttr() {}

// AllowedIPs is the peer's ordered list of allowed-IP ranges, carried as a
// nested attribute. Each member group is itself a length-prefixed container
// of allowed-IP attributes, tagged with its list index.
type AllowedIPs []AllowedIP

func (l AllowedIPs) ValueLen() int {

	n := 0
	for _, group := range l {
		n += nlaAlign(nlaHeaderLen + sizeofAttrs(group))
	}
	return n

}

func (l AllowedIPs) Kind() uint16 { return unix.WGPEER_A_ALLOWEDIPS }

func (l AllowedIPs) Nested() bool { return true }

func (l AllowedIPs) MarshalValue() ([]byte, error) {

	nas := make([]netlink.Attribute, 0, len(l))

	for i, group := range l {
		data, err := group.Marshal()
		if err != nil {
			return nil, errors.Wrapf(err, "failed to marshal allowed ip %d", i)
		}
		nas = append(nas, netlink.Attribute{
			Type: uint16(i) | unix.NLA_F_NESTED,
			Data: data,
		})
	}

	return netlink.MarshalAttributes(nas)

}

func (l AllowedIPs) peerAttr() {}

// ParsePeerAttr parses a single peer attribute from a TLV record,
// dispatching on its kind. Unrecognized kinds fail, they are never skipped,
// and a failure anywhere inside a nested allowed-IP container fails the
// whole parse.
func ParsePeerAttr(na netlink.Attribute) (PeerAttr, error) {

	payload := na.Data

	switch na.Type & attrTypeMask {

	case unix.WGPEER_A_UNSPEC:
		return PeerUnspec(append([]byte(nil), payload...)), nil

	case unix.WGPEER_A_PUBLIC_KEY:
		key, err := parseKey(unix.WGPEER_A_PUBLIC_KEY, payload)
		if err != nil {
			return nil, errors.Wrap(err, "invalid WGPEER_A_PUBLIC_KEY value")
		}
		return PeerPublicKey(key), nil

	case unix.WGPEER_A_PRESHARED_KEY:
		key, err := parseKey(unix.WGPEER_A_PRESHARED_KEY, payload)
		if err != nil {
			return nil, errors.Wrap(err, "invalid WGPEER_A_PRESHARED_KEY value")
		}
		return PresharedKey(key), nil

	case unix.WGPEER_A_FLAGS:
		v, err := parseUint32(unix.WGPEER_A_FLAGS, payload)
		if err != nil {
			return nil, errors.Wrap(err, "invalid WGPEER_A_FLAGS value")
		}
		return PeerFlags(v), nil

	case unix.WGPEER_A_ENDPOINT:
		endpoint, err := parseEndpoint(payload)
		if err != nil {
			return nil, errors.Wrap(err, "invalid WGPEER_A_ENDPOINT value")
		}
		return endpoint, nil

	case unix.WGPEER_A_PERSISTENT_KEEPALIVE_INTERVAL:
		v, err := parseUint16(
			unix.WGPEER_A_PERSISTENT_KEEPALIVE_INTERVAL, payload)
		if err != nil {
			return nil, errors.Wrap(
				err, "invalid WGPEER_A_PERSISTENT_KEEPALIVE_INTERVAL value")
		}
		return PersistentKeepalive(v), nil

	case unix.WGPEER_A_LAST_HANDSHAKE_TIME:
		if len(payload) != 16 {
			return nil, &AttrLenError{
				Kind: unix.WGPEER_A_LAST_HANDSHAKE_TIME,
				Len:  len(payload),
				Want: 16,
			}
		}
		sec := int64(nlenc.Uint64(payload[0:8]))
		nsec := int64(nlenc.Uint64(payload[8:16]))
		return LastHandshake(time.Unix(sec, nsec)), nil

	case unix.WGPEER_A_RX_BYTES:
		v, err := parseUint64(unix.WGPEER_A_RX_BYTES, payload)
		if err != nil {
			return nil, errors.Wrap(err, "invalid WGPEER_A_RX_BYTES value")
		}
		return RxBytes(v), nil

	case unix.WGPEER_A_TX_BYTES:
		v, err := parseUint64(unix.WGPEER_A_TX_BYTES, payload)
		if err != nil {
			return nil, errors.Wrap(err, "invalid WGPEER_A_TX_BYTES value")
		}
		return TxBytes(v), nil

	case unix.WGPEER_A_PROTOCOL_VERSION:
		v, err := parseUint32(unix.WGPEER_A_PROTOCOL_VERSION, payload)
		if err != nil {
			return nil, errors.Wrap(err, "invalid WGPEER_A_PROTOCOL_VERSION value")
		}
		return ProtocolVersion(v), nil

	case unix.WGPEER_A_ALLOWEDIPS:
		nas, err := netlink.UnmarshalAttributes(payload)
		if err != nil {
			return nil, errors.Wrap(err, "failed to parse WGPEER_A_ALLOWEDIPS")
		}
		list := AllowedIPs{}
		for i, n := range nas {
			group, err := UnmarshalAllowedIP(n.Data)
			if err != nil {
				return nil, errors.Wrapf(
					err, "failed to parse WGPEER_A_ALLOWEDIPS entry %d", i)
			}
			list = append(list, group)
		}
		return list, nil

	}

	return nil, &UnknownAttrError{
		Family: "peer",
		Kind:   na.Type & attrTypeMask,
	}

}
