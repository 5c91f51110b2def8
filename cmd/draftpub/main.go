package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// version is set at build time via ldflags.
var version = "dev"

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var envFile string
	cmd := &cobra.Command{
		Use:   "draftpub",
		Short: "Publish AI-generated articles as WeChat Official Account drafts",
		Long: `draftpub normalizes article payloads, moves their images into the
WeChat material library, renders markdown as styled HTML and creates drafts.

Credentials are read from WEIXIN_APP_ID and WEIXIN_APP_SECRET, from the
environment or the dotenv file. Other settings use the DRAFTPUB_ prefix,
e.g. DRAFTPUB_ADDR or DRAFTPUB_LOG_LEVEL.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before reading the environment")

	cmd.AddCommand(newServeCommand(&envFile))
	cmd.AddCommand(newPublishCommand(&envFile))
	cmd.AddCommand(newSubmitCommand(&envFile))
	cmd.AddCommand(newStatusCommand(&envFile))
	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the draftpub version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "draftpub %s\n", version)
		},
	})
	return cmd
}
