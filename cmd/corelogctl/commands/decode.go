package commands

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/nanolog/corelog/fixup"
	"github.com/nanolog/corelog/handle"
	"github.com/nanolog/corelog/wire"
)

var decodeCmd = &cobra.Command{
	Use:   "decode <path>",
	Short: "Decode a length-prefixed stream of wire.Encode'd messages and print their fields",
	Long: `decode reads a file made of [uint32 big-endian length][wire frame]*
records, decodes each one with wire.Decode, runs fixup.Run against a
fresh local handle.Registry (as a consumer receiving frames produced by
an independent producer would), and prints the resulting name/value
pairs. This exercises the Serializer/Deserializer (C4) and Handle Fixup
(C5) components end to end.`,
	Args: cobra.ExactArgs(1),
	RunE: runDecode,
}

func runDecode(cmd *cobra.Command, args []string) error {
	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("opening %q: %w", args[0], err)
	}
	defer f.Close()

	reg := handle.NewRegistry()
	out := cmd.OutOrStdout()

	var lenBuf [4]byte
	msgIndex := 0
	for {
		if _, err := io.ReadFull(f, lenBuf[:]); err != nil {
			if err == io.EOF {
				return nil
			}
			return fmt.Errorf("reading record length: %w", err)
		}
		n := binary.BigEndian.Uint32(lenBuf[:])

		frame := make([]byte, n)
		if _, err := io.ReadFull(f, frame); err != nil {
			return fmt.Errorf("reading record body: %w", err)
		}

		msg, err := wire.Decode(frame)
		if err != nil {
			return fmt.Errorf("decoding record %d: %w", msgIndex, err)
		}

		msg.SDataHandles = fixup.Run(msg.Payload(), reg, msg.SDataHandles)

		fmt.Fprintf(out, "-- message %d (pri=%d) --\n", msgIndex, msg.Pri)
		msg.Payload().ForEach(func(h uint32, name string, value []byte) bool {
			fmt.Fprintf(out, "  %s = %q\n", name, value)
			return true
		})

		msgIndex++
	}
}
