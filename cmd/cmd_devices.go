package main

import (
	"context"
	"fmt"
	"strconv"
	"text/tabwriter"

	"igloobridge/internal/igloohome"
	"igloobridge/internal/lock"

	"github.com/spf13/cobra"
)

func newDevicesCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "devices",
		Short: "List igloohome devices with their linked bridge",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := opts.newAPIClient()
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
			defer cancel()

			devices, err := client.GetDevices(ctx)
			if err != nil {
				return fmt.Errorf("failed to list devices: %w", err)
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "DEVICE ID\tTYPE\tNAME\tBRIDGE\tBATTERY")
			for _, d := range devices {
				bridge := "-"
				if d.Type == igloohome.DeviceTypeLock {
					bridge = "none"
					if id, ok := igloohome.LinkedBridge(d.DeviceID, devices); ok {
						bridge = id
					}
				}
				battery := "-"
				if d.BatteryLevel != nil {
					battery = strconv.Itoa(*d.BatteryLevel) + "%"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", d.DeviceID, d.Type, d.DeviceName, bridge, battery)
			}
			return w.Flush()
		},
	}
}

func newDeviceCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "device <deviceId>",
		Short: "Show one igloohome device",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := opts.newAPIClient()
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
			defer cancel()

			d, err := client.GetDevice(ctx, args[0])
			if err != nil {
				return fmt.Errorf("failed to get device %s: %w", args[0], err)
			}

			battery := "-"
			if d.BatteryLevel != nil {
				battery = strconv.Itoa(*d.BatteryLevel) + "%"
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintf(w, "Device ID:\t%s\n", d.DeviceID)
			fmt.Fprintf(w, "Type:\t%s\n", d.Type)
			fmt.Fprintf(w, "Name:\t%s\n", d.DeviceName)
			fmt.Fprintf(w, "Paired at:\t%s\n", d.PairedAt)
			fmt.Fprintf(w, "Battery:\t%s\n", battery)
			for _, linked := range d.LinkedDevices {
				fmt.Fprintf(w, "Linked:\t%s (%s)\n", linked.DeviceID, linked.Type)
			}
			return w.Flush()
		},
	}
}

// newJobCmd builds the lock, unlock and open commands
func newJobCmd(opts *cliOptions, action, short string) *cobra.Command {
	return &cobra.Command{
		Use:   action + " <deviceId>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			parsed, err := lock.ParseAction(action)
			if err != nil {
				return err
			}

			client, err := opts.newAPIClient()
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
			defer cancel()

			devices, err := client.GetDevices(ctx)
			if err != nil {
				return fmt.Errorf("failed to list devices: %w", err)
			}

			deviceID := args[0]
			device, ok := igloohome.FindDevice(deviceID, devices)
			if !ok || device.Type != igloohome.DeviceTypeLock {
				return fmt.Errorf("no lock with device ID %s", deviceID)
			}
			bridgeID, ok := igloohome.LinkedBridge(deviceID, devices)
			if !ok {
				return fmt.Errorf("lock %s has no linked bridge", deviceID)
			}

			e := lock.NewEntity(device, client, bridgeID, opts.logger, opts.cfg.ReadOnly)
			if err := e.Do(ctx, parsed); err != nil {
				return err
			}

			if opts.cfg.ReadOnly {
				fmt.Fprintf(cmd.OutOrStdout(), "read-only: would %s %s via bridge %s\n", action, device.DeviceName, bridgeID)
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s job sent via bridge %s\n", device.DeviceName, action, bridgeID)
			return nil
		},
	}
}
