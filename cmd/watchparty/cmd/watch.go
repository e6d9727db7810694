package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/skye-hx/watchparty/internal/media"
	"github.com/skye-hx/watchparty/internal/room"
	"github.com/skye-hx/watchparty/internal/session"
	"github.com/skye-hx/watchparty/internal/ui"
)

var flagOut string

var watchCmd = &cobra.Command{
	Use:     "watch <room-code>",
	Aliases: []string{"w", "join"},
	Short:   "Join a room as a viewer",
	Long: `Join a watch party room and receive the host's stream.

Examples:
  watchparty watch AB24CD
  watchparty watch AB24CD --out recording.ivf --name Sam`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWatch(args[0])
	},
}

func init() {
	watchCmd.Flags().StringVar(&flagOut, "out", "", "write the received stream to an IVF file")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(rawCode string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	code, ok := room.NormalizeCode(rawCode)
	if !ok {
		return fmt.Errorf("invalid room code %q", rawCode)
	}

	client, handler, _, err := connect(cfg)
	if err != nil {
		return err
	}
	defer client.Close()

	client.JoinRoom(code, flagName, string(room.RoleViewer))

	stopWait := ui.RunWaitingSpinner("Joining room...")
	_, ok = <-handler.HostStatus
	stopWait()
	if !ok {
		return session.NewError("join room", session.ErrSignalingError)
	}

	var sink media.Sink = media.NewCountingSink()
	if flagOut != "" {
		sink = media.NewFileSink(flagOut)
	}

	if err := runViewerLoop(cfg, client, handler, code, sink); err != nil {
		return err
	}

	if counting, ok := sink.(*media.CountingSink); ok {
		packets, bytes := counting.Stats()
		ui.PrintInfof("Received %d packets (%d bytes)", packets, bytes)
	} else {
		ui.PrintSuccessf("Stream written to %s", flagOut)
	}
	return nil
}
