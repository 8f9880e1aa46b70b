package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "termview",
		Short: "Interactive terminal emulator in your terminal",
		Long: `termview runs a shell on a PTY and renders the emulated screen with
tcell. It exists mainly to exercise the engine end to end: snapshots,
input encoding, resize and session lifecycle. Press Ctrl-Q to quit.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runViewer(viewerConfig{
				Shell:   viper.GetString("shell"),
				Term:    viper.GetString("term"),
				History: viper.GetInt("history"),
				Debug:   viper.GetBool("debug"),
			})
		},
	}

	flags := cmd.Flags()
	flags.String("shell", "", "shell to run (default $SHELL)")
	flags.String("term", "xterm-256color", "TERM value advertised to the shell")
	flags.Int("history", 1000, "scrollback lines to retain")
	flags.Bool("debug", false, "log unrecognised escape sequences")

	viper.SetEnvPrefix("TERMVIEW")
	viper.AutomaticEnv()
	_ = viper.BindPFlags(flags)

	return cmd
}
