// host/cmd/uartirq-host/listen.go

package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

var listenCmd = &cobra.Command{
	Use:   "listen",
	Short: "Stream bytes received from the board to stdout",
	Long: `Listen opens the serial device and copies everything the board sends
to stdout until interrupted. With --hex each byte is printed as a hex pair
instead of raw, which is handy when the board is reporting error flags.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		hex, _ := cmd.Flags().GetBool("hex")

		port, err := openPort()
		if err != nil {
			return err
		}
		defer port.Close()

		buf := make([]byte, 256)
		for {
			n, err := port.Read(buf)
			if err != nil && err != io.EOF {
				return err
			}
			if n == 0 {
				continue // read timeout, poll again
			}
			if hex {
				for _, b := range buf[:n] {
					fmt.Printf("%02x ", b)
				}
			} else {
				os.Stdout.Write(buf[:n])
			}
		}
	},
}

func init() {
	listenCmd.Flags().Bool("hex", false, "print bytes as hex pairs")
	rootCmd.AddCommand(listenCmd)
}
