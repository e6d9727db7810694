package cmd

import (
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/skye-hx/watchparty/internal/config"
	"github.com/skye-hx/watchparty/internal/session"
	"github.com/skye-hx/watchparty/internal/ui"
)

var (
	flagServer   string
	flagName     string
	flagSTUN     string
	flagTURN     string
	flagTURNUser string
	flagTURNPass string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "watchparty",
	Short: "Host or join a watch party room from the terminal",
	Long: `Watchparty shares a live media stream with a short-lived named room.
The coordinator only relays membership and negotiation messages; the
stream itself flows directly between the host and each viewer over
WebRTC.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt)
	go func() {
		<-sig
		os.Exit(0)
	}()

	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true

	if err := rootCmd.Execute(); err != nil {
		ui.PrintError(err.Error())
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagServer, "server", "", "coordinator base URL")
	rootCmd.PersistentFlags().StringVar(&flagName, "name", "", "display name (default Guest)")
	rootCmd.PersistentFlags().StringVar(&flagSTUN, "stun", "", "STUN server URL")
	rootCmd.PersistentFlags().StringVar(&flagTURN, "turn", "", "TURN server URL")
	rootCmd.PersistentFlags().StringVar(&flagTURNUser, "turn-user", "", "TURN username")
	rootCmd.PersistentFlags().StringVar(&flagTURNPass, "turn-pass", "", "TURN password")
}

func loadConfig() (*config.Client, error) {
	cfg, err := config.LoadClient(config.Options{
		Server:     flagServer,
		STUNServer: flagSTUN,
		TURNServer: flagTURN,
		TURNUser:   flagTURNUser,
		TURNPass:   flagTURNPass,
	})
	if err != nil {
		return nil, session.NewError("load config", err)
	}
	return cfg, nil
}

// connect dials the coordinator and waits for the welcome frame carrying
// our connection identifier.
func connect(cfg *config.Client) (*session.Client, *session.Handler, string, error) {
	stopSpinner := ui.RunConnectionSpinner("Connecting to coordinator...")
	defer stopSpinner()

	client := session.NewClient(cfg.WebSocketURL)
	if err := client.Connect(); err != nil {
		return nil, nil, "", session.NewError("connect", err)
	}

	handler := session.NewHandler(client)
	go handler.Start()

	myID, ok := <-handler.Welcome
	if !ok {
		client.Close()
		return nil, nil, "", session.WrapError("connect", session.ErrClosed, "connection closed before welcome")
	}

	return client, handler, myID, nil
}
