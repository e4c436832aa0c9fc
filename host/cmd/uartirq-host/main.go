// host/cmd/uartirq-host/main.go

// uartirq-host is the host-side companion tool for boards running the
// uartirq driver: a line-oriented listener and sender for exercising the
// on-device selftest and examples, plus an offline loopback check of the
// driver core itself. It is deliberately not interactive so it can drive CI
// loops.
package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jangala-dev/tinygo-uartirq/host/serial"
)

var rootCmd = &cobra.Command{
	Use:           "uartirq-host",
	Short:         "Talk to a board running the uartirq driver",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringP("device", "d", "", "serial device path, e.g. /dev/ttyUSB0")
	rootCmd.PersistentFlags().IntP("baud", "b", 9600, "baud rate (must match the board's Init)")
	viper.BindPFlag("device", rootCmd.PersistentFlags().Lookup("device"))
	viper.BindPFlag("baud", rootCmd.PersistentFlags().Lookup("baud"))

	// UARTIRQ_DEVICE / UARTIRQ_BAUD override the defaults.
	viper.SetEnvPrefix("uartirq")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

// openPort opens the configured device with a short read timeout so the
// listen loop stays responsive to signals.
func openPort() (serial.Port, error) {
	return serial.Open(serial.Config{
		Device:      viper.GetString("device"),
		Baud:        viper.GetInt("baud"),
		ReadTimeout: 100 * time.Millisecond,
	})
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "uartirq-host:", err)
		os.Exit(1)
	}
}
