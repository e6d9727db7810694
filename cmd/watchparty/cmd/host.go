package cmd

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/skye-hx/watchparty/internal/config"
	"github.com/skye-hx/watchparty/internal/media"
	"github.com/skye-hx/watchparty/internal/room"
	"github.com/skye-hx/watchparty/internal/session"
	"github.com/skye-hx/watchparty/internal/ui"
)

var (
	flagNewRoom bool
	flagMedia   string
	flagLoop    bool
	flagLink    string
)

var hostCmd = &cobra.Command{
	Use:     "host [room-code]",
	Aliases: []string{"h"},
	Short:   "Host a room and share a media stream",
	Long: `Host a watch party room and stream a VP8 IVF file to every viewer
that joins.

Examples:
  watchparty host --new --media movie.ivf
  watchparty host AB24CD --media movie.ivf --loop
  watchparty host AB24CD --media movie.ivf --link https://example.com/watch`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if flagMedia == "" {
			return session.WrapError("host", session.ErrNoMedia, "pass --media")
		}
		if !flagNewRoom && len(args) == 0 {
			return fmt.Errorf("specify a room code or pass --new")
		}
		var code string
		if len(args) > 0 {
			code = args[0]
		}
		return runHost(code, flagMedia)
	},
}

func init() {
	hostCmd.Flags().BoolVar(&flagNewRoom, "new", false, "create a fresh room")
	hostCmd.Flags().StringVar(&flagMedia, "media", "", "VP8 IVF file to stream")
	hostCmd.Flags().BoolVar(&flagLoop, "loop", false, "replay the file when it ends")
	hostCmd.Flags().StringVar(&flagLink, "link", "", "link to announce to the room")
	rootCmd.AddCommand(hostCmd)
}

func runHost(rawCode, mediaPath string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	stopSpinner := ui.RunSpinner("Opening media file...")
	source, err := media.NewFileSource(mediaPath, flagLoop)
	stopSpinner()
	if err != nil {
		return session.NewError("open media", err)
	}

	if flagNewRoom {
		rawCode, err = requestNewRoom(cfg)
		if err != nil {
			return err
		}
	}

	code, ok := room.NormalizeCode(rawCode)
	if !ok {
		return fmt.Errorf("invalid room code %q", rawCode)
	}

	client, handler, myID, err := connect(cfg)
	if err != nil {
		return err
	}
	defer client.Close()

	client.JoinRoom(code, flagName, string(room.RoleHost))

	stopWait := ui.RunWaitingSpinner("Joining room...")
	hostID, ok := <-handler.HostStatus
	stopWait()
	if !ok {
		return session.NewError("join room", session.ErrSignalingError)
	}

	// Another live host means we were downgraded; carry on watching
	// instead of sharing.
	if hostID != myID {
		ui.PrintWarning("Host already exists. Joining as a viewer instead.")
		return runViewerLoop(cfg, client, handler, code, media.NewCountingSink())
	}

	ui.RenderRoomInfo(code)

	if flagLink != "" {
		client.ShareURL(code, flagLink)
	}

	mediaDone, err := source.Start()
	if err != nil {
		return session.NewError("start media", err)
	}
	defer source.Stop()

	return runHostLoop(cfg, client, handler, code, source, mediaDone)
}

// requestNewRoom asks the coordinator for a fresh room code.
func requestNewRoom(cfg *config.Client) (string, error) {
	resp, err := http.Post(cfg.ServerURL+"/api/new-room", "application/json", nil)
	if err != nil {
		return "", session.NewError("create room", err)
	}
	defer resp.Body.Close()

	var body struct {
		RoomCode string `json:"roomCode"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", session.NewError("create room", err)
	}
	if body.RoomCode == "" {
		return "", session.WrapError("create room", session.ErrSignalingError, "empty room code")
	}
	return body.RoomCode, nil
}
