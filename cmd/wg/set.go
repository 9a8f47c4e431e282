package main

import (
	"log"
	"net/netip"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sys/unix"

	"gitlab.com/mergetb/tech/wgnl"
)

func setCommands(root *cobra.Command) {

	var (
		privateKey   string
		listenPort   uint16
		fwmark       uint32
		replacePeers bool
	)
	set := &cobra.Command{
		Use:   "set <ifname>",
		Short: "set wireguard device configuration",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			doSet(args[0], privateKey, listenPort, fwmark, replacePeers)
		},
	}
	set.Flags().StringVarP(
		&privateKey, "private-key", "k", "", "device private key in base64")
	set.Flags().Uint16VarP(
		&listenPort, "listen-port", "p", 0, "udp listen port")
	set.Flags().Uint32VarP(
		&fwmark, "fwmark", "f", 0, "firewall mark for device traffic")
	set.Flags().BoolVarP(
		&replacePeers, "replace-peers", "r", false,
		"replace the peer list instead of extending it")
	root.AddCommand(set)

	var (
		presharedKey string
		endpoint     string
		keepalive    uint16
		allowedIPs   string
		remove       bool
	)
	peer := &cobra.Command{
		Use:   "peer <ifname> <public-key>",
		Short: "set one peer on a wireguard device",
		Args:  cobra.ExactArgs(2),
		Run: func(cmd *cobra.Command, args []string) {
			doSetPeer(args[0], args[1],
				presharedKey, endpoint, keepalive, allowedIPs, remove)
		},
	}
	peer.Flags().StringVarP(
		&presharedKey, "preshared-key", "s", "", "peer preshared key in base64")
	peer.Flags().StringVarP(
		&endpoint, "endpoint", "e", "", "peer endpoint as host:port")
	peer.Flags().Uint16VarP(
		&keepalive, "keepalive", "K", 0, "persistent keepalive interval in seconds")
	peer.Flags().StringVarP(
		&allowedIPs, "allowed-ips", "a", "", "comma separated list of prefixes")
	peer.Flags().BoolVarP(
		&remove, "remove", "R", false, "remove this peer")
	set.AddCommand(peer)

}

func doSet(
	name, privateKey string, listenPort uint16, fwmark uint32, replace bool,
) {

	dev := wgnl.Device{wgnl.IfName(name)}

	if privateKey != "" {
		key, err := wgnl.ParseKey(privateKey)
		if err != nil {
			log.Fatal(err)
		}
		dev = append(dev, wgnl.DevicePrivateKey(key))
	}
	if listenPort != 0 {
		dev = append(dev, wgnl.ListenPort(listenPort))
	}
	if fwmark != 0 {
		dev = append(dev, wgnl.Fwmark(fwmark))
	}
	if replace {
		dev = append(dev, wgnl.DeviceFlags(unix.WGDEVICE_F_REPLACE_PEERS))
	}

	err := wgnl.SetDevice(dev)
	if err != nil {
		log.Fatal(err)
	}

}

func doSetPeer(
	name, publicKey, presharedKey, endpoint string,
	keepalive uint16, allowedIPs string, remove bool,
) {

	key, err := wgnl.ParseKey(publicKey)
	if err != nil {
		log.Fatal(err)
	}
	peer := wgnl.Peer{wgnl.PeerPublicKey(key)}

	if remove {
		peer = append(peer, wgnl.PeerFlags(unix.WGPEER_F_REMOVE_ME))
	}
	if presharedKey != "" {
		psk, err := wgnl.ParseKey(presharedKey)
		if err != nil {
			log.Fatal(err)
		}
		peer = append(peer, wgnl.PresharedKey(psk))
	}
	if endpoint != "" {
		ap, err := netip.ParseAddrPort(endpoint)
		if err != nil {
			log.Fatal(err)
		}
		peer = append(peer, wgnl.Endpoint(ap))
	}
	if keepalive != 0 {
		peer = append(peer, wgnl.PersistentKeepalive(keepalive))
	}
	if allowedIPs != "" {
		list := wgnl.AllowedIPs{}
		for _, s := range strings.Split(allowedIPs, ",") {
			prefix, err := netip.ParsePrefix(strings.TrimSpace(s))
			if err != nil {
				log.Fatal(err)
			}
			list = append(list, wgnl.NewAllowedIP(prefix))
		}
		peer = append(peer, list)
	}

	dev := wgnl.Device{
		wgnl.IfName(name),
		wgnl.Peers{peer},
	}

	err = wgnl.SetDevice(dev)
	if err != nil {
		log.Fatal(err)
	}

}
