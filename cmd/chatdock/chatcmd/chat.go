package chatcmder

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/floatworksco/chatdock/pkg/config"
	"github.com/floatworksco/chatdock/pkg/logger"
	"github.com/floatworksco/chatdock/tui"
)

const chatLongDesc string = `Open the chat widget in the terminal.

Starts collapsed as a launcher bubble; press enter to expand it into
the chat panel, ctrl+f to toggle full-screen, esc to collapse again.
Messages go to a running chatdock server.

Examples:
  chatdock chat
  chatdock chat --server http://localhost:6061`

const chatShortDesc string = "Open the chat widget"

type chatCommander struct {
	serverURL string
	debug     bool
}

func NewChatCmd() *cobra.Command {
	cmder := &chatCommander{}

	cmd := &cobra.Command{
		Use:   "chat",
		Short: chatShortDesc,
		Long:  chatLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmder.run()
		},
	}

	cmd.Flags().StringVar(&cmder.serverURL, "server", "", "chatdock server URL")
	cmd.Flags().BoolVar(&cmder.debug, "debug", false, "Enable debug logging")

	return cmd
}

func (c *chatCommander) run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	serverURL := cfg.Chat.ServerURL
	if c.serverURL != "" {
		serverURL = c.serverURL
	}

	// The TUI owns the terminal, so debug logs go to a file instead of stderr
	log := zap.NewNop()
	if c.debug || cfg.Debug {
		if f, err := openLogFile(); err == nil {
			log = logger.NewWithOutput(true, f)
			defer f.Close()
		}
	}
	defer log.Sync()

	return tui.Run(serverURL, log)
}

func openLogFile() (*os.File, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}
	dir := filepath.Join(home, ".chatdock")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return os.OpenFile(filepath.Join(dir, "chat.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
}
