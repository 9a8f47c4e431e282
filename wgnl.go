package wgnl

import (
	"github.com/mdlayher/genetlink"
	"github.com/mdlayher/netlink"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"
)

// withWireguard runs f against a generic netlink connection with the
// wireguard family resolved. The codec itself never touches the socket,
// this is the only place the module talks to the kernel.
func withWireguard(f func(conn *genetlink.Conn, family genetlink.Family) error) error {

	conn, err := genetlink.Dial(nil)
	if err != nil {
		log.WithError(err).Error("failed to dial generic netlink")
		return err
	}
	defer conn.Close()

	family, err := conn.GetFamily(unix.WG_GENL_NAME)
	if err != nil {
		log.WithError(err).Error("failed to resolve the wireguard family")
		return err
	}

	return f(conn, family)

}

// GetDevice reads the full configuration of a wireguard interface. A large
// peer list arrives split across several dump messages, so peers from
// follow-on messages are folded back into the first.
func GetDevice(name string) (Device, error) {

	data, err := Device{IfName(name)}.Marshal()
	if err != nil {
		return nil, err
	}

	var dev Device
	err = withWireguard(func(conn *genetlink.Conn, family genetlink.Family) error {

		msg := genetlink.Message{
			Header: genetlink.Header{
				Command: unix.WG_CMD_GET_DEVICE,
				Version: unix.WG_GENL_VERSION,
			},
			Data: data,
		}

		msgs, err := conn.Execute(msg, family.ID, netlink.Request|netlink.Dump)
		if err != nil {
			log.WithError(err).Error("wireguard device read failed")
			return err
		}

		for i, m := range msgs {
			d, err := UnmarshalDevice(m.Data)
			if err != nil {
				return errors.Wrapf(err, "failed to parse device message %d", i)
			}
			if i == 0 {
				dev = d
				continue
			}
			dev = mergeDevice(dev, d)
		}

		return nil

	})
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"device": name,
		"attrs":  len(dev),
	}).Debug("device read")

	return dev, nil

}

// SetDevice applies a device configuration to the kernel.
func SetDevice(dev Device) error {

	data, err := dev.Marshal()
	if err != nil {
		return err
	}

	return withWireguard(func(conn *genetlink.Conn, family genetlink.Family) error {

		msg := genetlink.Message{
			Header: genetlink.Header{
				Command: unix.WG_CMD_SET_DEVICE,
				Version: unix.WG_GENL_VERSION,
			},
			Data: data,
		}

		_, err := conn.Execute(msg, family.ID, netlink.Request|netlink.Acknowledge)
		if err != nil {
			log.WithError(err).Error("wireguard device update failed")
			return err
		}

		return nil

	})

}

// mergeDevice folds the peers of a continuation dump message into dev. A
// peer whose public key already appeared carries a continuation of that
// peer's allowed-IP list, anything else is a new peer.
func mergeDevice(dev, next Device) Device {

	for _, a := range next {
		peers, ok := a.(Peers)
		if !ok {
			continue
		}
		for _, peer := range peers {
			dev = mergePeer(dev, peer)
		}
	}

	return dev

}

func mergePeer(dev Device, peer Peer) Device {

	for i, a := range dev {

		peers, ok := a.(Peers)
		if !ok {
			continue
		}

		if key, ok := peer.PublicKey(); ok {
			for j, known := range peers {
				knownKey, ok := known.PublicKey()
				if !ok || knownKey != key {
					continue
				}
				peers[j] = appendAllowedIPs(known, peer)
				return dev
			}
		}

		dev[i] = append(peers, peer)
		return dev

	}

	return append(dev, Peers{peer})

}

// appendAllowedIPs extends the allowed-IP list of known with the entries a
// continuation peer carries for the same public key.
func appendAllowedIPs(known, cont Peer) Peer {

	extra := AllowedIPs{}
	for _, a := range cont {
		if l, ok := a.(AllowedIPs); ok {
			extra = append(extra, l...)
		}
	}
	if len(extra) == 0 {
		return known
	}

	for i, a := range known {
		if l, ok := a.(AllowedIPs); ok {
			known[i] = append(l, extra...)
			return known
		}
	}

	return append(known, extra)

}
