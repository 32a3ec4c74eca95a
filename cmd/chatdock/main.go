package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	chatcmder "github.com/floatworksco/chatdock/cmd/chatdock/chatcmd"
	mergecmder "github.com/floatworksco/chatdock/cmd/chatdock/merge"
	pushcmder "github.com/floatworksco/chatdock/cmd/chatdock/push"
	servecmder "github.com/floatworksco/chatdock/cmd/chatdock/serve"
)

const rootLongDesc string = `chatdock is an embeddable support chat: a server that answers chat
messages with an LLM and records every conversation in a
content-addressed Merkle DAG, plus a terminal widget to chat from.`

func main() {
	root := &cobra.Command{
		Use:           "chatdock",
		Short:         "LLM support chat with content-addressed conversation storage",
		Long:          rootLongDesc,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(servecmder.NewServeCmd())
	root.AddCommand(chatcmder.NewChatCmd())
	root.AddCommand(mergecmder.NewMergeCmd())
	root.AddCommand(pushcmder.NewPushCmd())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := root.ExecuteContext(ctx); err != nil {
		os.Stderr.WriteString("Error: " + err.Error() + "\n")
		os.Exit(1)
	}
}
