package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli"

	"github.com/smarttuppleware/hubprov"
	"github.com/smarttuppleware/hubprov/netman/nmcli"
	"github.com/smarttuppleware/hubprov/provision"
	"github.com/smarttuppleware/hubprov/transport"
	"github.com/smarttuppleware/hubprov/transport/bluez"
)

func main() {
	app := cli.NewApp()
	app.Name = "hubprov"
	app.Usage = "BLE wifi provisioning service for headless hubs"
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "adapter",
			Usage: "bluetooth adapter address to bind",
		},
		cli.StringFlag{
			Name:  "name",
			Usage: "BLE local name to advertise",
		},
		cli.StringFlag{
			Name:     "device-id",
			Usage:    "unique hub identifier reported to clients",
			Required: true,
		},
		cli.StringFlag{
			Name:  "fw",
			Usage: "firmware version reported to clients",
		},
		cli.StringFlag{
			Name:  "auth-token",
			Usage: "shared authorization token expected from clients",
		},
		cli.StringFlag{
			Name:  "iface",
			Usage: "pin the wifi interface (default: auto-select)",
		},
		cli.DurationFlag{
			Name:  "connect-timeout",
			Usage: "budget for a direct connect attempt",
		},
		cli.BoolFlag{
			Name:  "verbose, v",
			Usage: "enable debug logging",
		},
	}
	app.Action = run

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	if c.Bool("verbose") {
		hubprov.SetLogLevelMax()
	}
	log := hubprov.GetLogger()

	cfg, err := hubprov.NewConfig(
		hubprov.OptAdapter(c.String("adapter")),
		hubprov.OptLocalName(c.String("name")),
		hubprov.OptDeviceID(c.String("device-id")),
		hubprov.OptFirmware(c.String("fw")),
		hubprov.OptAuthToken(c.String("auth-token")),
		hubprov.OptInterface(c.String("iface")),
		hubprov.OptConnectTimeout(c.Duration("connect-timeout")),
	)
	if err != nil {
		return err
	}

	mgr := nmcli.New(log)
	att := provision.NewAttempter(mgr, cfg, log)
	coord, err := provision.NewCoordinator(cfg, att, log)
	if err != nil {
		return err
	}

	handlers := transport.Handlers{
		AuthWrite:        coord.HandleAuthWrite,
		CredentialsWrite: coord.HandleCredentialsWrite,
		ScratchWrite:     coord.HandleScratchWrite,
		Scratch:          coord.ReadScratch,
		Identity:         coord.ReadIdentity,
		Status:           coord.ReadStatus,
		Connected:        coord.HandleConnect,
		Disconnected:     coord.HandleDisconnect,
	}
	peripheral := bluez.New(cfg, handlers, log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		s := <-sig
		log.Infof("signal %v, shutting down", s)
		cancel()
	}()

	log.Infof("hub %s starting, advertising as %q", cfg.Identity.DeviceID, cfg.LocalName)
	err = peripheral.Serve(ctx)

	// let any in-flight connection attempt record its outcome
	done := make(chan struct{})
	go func() {
		coord.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Minute):
		log.Warn("shutdown: gave up waiting for the in-flight attempt")
	}

	return err
}
