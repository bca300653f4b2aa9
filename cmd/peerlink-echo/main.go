// Command peerlink-echo is a small demonstration binary exercising the
// full listener/dialer pairing handshake and Send/Receive over a real
// TCP connection. It has no teacher analogue — mini-RPC ships as a
// library only — so it follows the plain standard-library `flag` CLI
// shape common across the example pack's own cmd/ binaries rather than
// introducing a CLI framework dependency for a single demo command.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"

	"github.com/peerlink/peerlink/dialer"
	"github.com/peerlink/peerlink/listener"
	"github.com/peerlink/peerlink/pllog"
)

func main() {
	mode := flag.String("mode", "", "listen or dial")
	port := flag.Int("port", 9090, "listener port (listen mode)")
	addr := flag.String("addr", "127.0.0.1:9090", "server address (dial mode)")
	flag.Parse()

	logger, err := pllog.NewDevelopment()
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to build logger:", err)
		os.Exit(1)
	}

	switch *mode {
	case "listen":
		runListener(*port, logger)
	case "dial":
		runDialer(*addr, logger)
	default:
		fmt.Fprintln(os.Stderr, "usage: peerlink-echo -mode=listen -port=9090")
		fmt.Fprintln(os.Stderr, "       peerlink-echo -mode=dial -addr=127.0.0.1:9090")
		os.Exit(2)
	}
}

func runListener(port int, logger pllog.Logger) {
	ln, err := listener.New(port, listener.WithLogger(logger))
	if err != nil {
		fmt.Fprintln(os.Stderr, "listen failed:", err)
		os.Exit(1)
	}
	defer ln.Close()

	fmt.Println("listening on", ln.Addr())
	for {
		c, err := ln.Accept()
		if err != nil {
			logger.Log("peerlink-echo", "accept", err.Error(), pllog.Warning)
			return
		}
		go func() {
			defer c.Stop()
			for {
				msg, err := c.Receive(5000)
				if err != nil {
					return
				}
				if msg == nil {
					continue
				}
				if err := c.Send(msg); err != nil {
					return
				}
			}
		}()
	}
}

func runDialer(addr string, logger pllog.Logger) {
	d := dialer.New(dialer.WithLogger(logger))
	c, err := d.Dial(addr)
	if err != nil {
		fmt.Fprintln(os.Stderr, "dial failed:", err)
		os.Exit(1)
	}
	defer c.Stop()

	fmt.Println("connected to", addr, "- type a line and press enter to echo it")
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := scanner.Text()
		if err := c.Send([]byte(line)); err != nil {
			fmt.Fprintln(os.Stderr, "send failed:", err)
			return
		}
		reply, err := c.Receive(5000)
		if err != nil {
			fmt.Fprintln(os.Stderr, "receive failed:", err)
			return
		}
		fmt.Println("echo:", string(reply))
	}
}
