package main

import (
	"fmt"
	"log"
	"net/netip"
	"time"

	"github.com/spf13/cobra"

	"gitlab.com/mergetb/tech/wgnl"
)

func showCommands(root *cobra.Command) {

	show := &cobra.Command{
		Use:   "show <ifname>",
		Short: "show wireguard device configuration",
		Args:  cobra.ExactArgs(1),
		Run:   func(cmd *cobra.Command, args []string) { doShow(args[0]) },
	}
	root.AddCommand(show)

}

func doShow(name string) {

	dev, err := wgnl.GetDevice(name)
	if err != nil {
		log.Fatal(err)
	}

	for _, a := range dev {
		switch v := a.(type) {

		case wgnl.IfName:
			fmt.Fprintf(tw, "%s:\t%s\n", green("interface"), string(v))

		case wgnl.IfIndex:
			fmt.Fprintf(tw, "%s:\t%d\n", blue("index"), uint32(v))

		case wgnl.DevicePublicKey:
			fmt.Fprintf(tw, "%s:\t%s\n", blue("public key"), wgnl.Key(v))

		case wgnl.DevicePrivateKey:
			fmt.Fprintf(tw, "%s:\t(hidden)\n", blue("private key"))

		case wgnl.ListenPort:
			fmt.Fprintf(tw, "%s:\t%d\n", blue("listening port"), uint16(v))

		case wgnl.Fwmark:
			if v != 0 {
				fmt.Fprintf(tw, "%s:\t0x%x\n", blue("fwmark"), uint32(v))
			}

		case wgnl.Peers:
			for _, p := range v {
				showPeer(p)
			}

		}
	}

	tw.Flush()

}

func showPeer(p wgnl.Peer) {

	fmt.Fprintln(tw)

	for _, a := range p {
		switch v := a.(type) {

		case wgnl.PeerPublicKey:
			fmt.Fprintf(tw, "%s:\t%s\n", green("peer"), wgnl.Key(v))

		case wgnl.PresharedKey:
			fmt.Fprintf(tw, "%s:\t(hidden)\n", cyan("preshared key"))

		case wgnl.Endpoint:
			fmt.Fprintf(tw, "%s:\t%s\n", cyan("endpoint"), v)

		case wgnl.PersistentKeepalive:
			if v != 0 {
				fmt.Fprintf(tw, "%s:\tevery %d seconds\n",
					cyan("persistent keepalive"), uint16(v))
			}

		case wgnl.LastHandshake:
			t := time.Time(v)
			if !t.IsZero() && t.Unix() != 0 {
				fmt.Fprintf(tw, "%s:\t%s\n", cyan("latest handshake"), t)
			}

		case wgnl.RxBytes:
			fmt.Fprintf(tw, "%s:\t%d received\n", cyan("transfer rx"), uint64(v))

		case wgnl.TxBytes:
			fmt.Fprintf(tw, "%s:\t%d sent\n", cyan("transfer tx"), uint64(v))

		case wgnl.ProtocolVersion:
			fmt.Fprintf(tw, "%s:\t%d\n", cyan("protocol version"), uint32(v))

		case wgnl.AllowedIPs:
			for _, group := range v {
				showAllowedIP(group)
			}

		}
	}

}

func showAllowedIP(group wgnl.AllowedIP) {

	var (
		addr wgnl.IPAddr
		mask wgnl.CIDRMask
	)
	for _, a := range group {
		switch v := a.(type) {
		case wgnl.IPAddr:
			addr = v
		case wgnl.CIDRMask:
			mask = v
		}
	}

	fmt.Fprintf(tw, "%s:\t%s/%d\n",
		cyan("allowed ip"), netip.Addr(addr), uint8(mask))

}
