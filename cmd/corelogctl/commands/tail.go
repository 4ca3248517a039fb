package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nanolog/corelog/persist"
	"github.com/nanolog/corelog/tail"
)

var tailCmd = &cobra.Command{
	Use:   "tail <path>",
	Short: "Read a file once through tail.Source, printing each decoded chunk",
	Long: `tail opens path, drains it through a tail.Source (no following — it
exits at EOF) and persists the resulting read position into an in-process
persist.FileStore under the key "tail/state:<path>", demonstrating the C6/C7
wiring described by the Buffered Tail Source and Persistent State Store
components.`,
	Args: cobra.ExactArgs(1),
	RunE: runTail,
}

func runTail(cmd *cobra.Command, args []string) error {
	path := args[0]

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening %q: %w", path, err)
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat %q: %w", path, err)
	}

	src := tail.New(f)
	store := persist.NewFileStore()
	stateName := "tail/state:" + path

	out := cmd.OutOrStdout()
	for {
		chunk, status, err := src.Fetch()
		if err != nil {
			return fmt.Errorf("fetch: %w", err)
		}
		switch status {
		case tail.StatusOK:
			fmt.Fprint(out, string(chunk))
			src.Ack(len(chunk))
		case tail.StatusEOF:
			st := src.State()
			st.FileSize = uint64(fi.Size())
			buf := tail.EncodeState(st)

			h, err := store.AllocEntry(stateName, len(buf))
			if err != nil {
				return fmt.Errorf("persisting tail state: %w", err)
			}
			dst, err := store.MapEntry(h)
			if err != nil {
				return err
			}
			copy(dst, buf)
			store.UnmapEntry(h)

			fmt.Fprintf(out, "\n-- eof, read position persisted under %q --\n", stateName)
			return nil
		case tail.StatusAgain:
			return nil
		}
	}
}
