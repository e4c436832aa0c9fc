// host/cmd/uartirq-host/send.go

package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var sendCmd = &cobra.Command{
	Use:   "send [text...]",
	Short: "Send bytes to the board",
	Long: `Send writes its arguments (joined with spaces) to the serial device,
followed by CRLF unless --no-newline is given. With no arguments it copies
stdin to the device instead.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		noNewline, _ := cmd.Flags().GetBool("no-newline")

		port, err := openPort()
		if err != nil {
			return err
		}
		defer port.Close()

		if len(args) == 0 {
			n, err := io.Copy(port, os.Stdin)
			if err != nil {
				return err
			}
			fmt.Fprintf(os.Stderr, "sent %d bytes\n", n)
			return nil
		}

		payload := strings.Join(args, " ")
		if !noNewline {
			payload += "\r\n"
		}
		if _, err := port.Write([]byte(payload)); err != nil {
			return err
		}
		return nil
	},
}

func init() {
	sendCmd.Flags().Bool("no-newline", false, "do not append CRLF")
	rootCmd.AddCommand(sendCmd)
}
