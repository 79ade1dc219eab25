package main

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/strangerhq/stranger/internal/identity"
)

const configEnv = "STRANGER_CONFIG"

func newRootCmd() *cobra.Command {
	var cfgPath string

	rootCmd := &cobra.Command{
		Use:           "stranger",
		Short:         "Shared-room hide and seek with a patrolling neighbor",
		Long:          "stranger hosts or joins a room where every participant sees everyone else move and chat, while a neighbor patrols the house and chases whoever comes close.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	defaultPath := "config/stranger.toml"
	if p := os.Getenv(configEnv); p != "" {
		defaultPath = p
	}
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", defaultPath, "config file (env "+configEnv+")")

	rootCmd.AddCommand(
		newHostCmd(&cfgPath),
		newJoinCmd(&cfgPath),
		newRendezvousCmd(&cfgPath),
		newVersionCmd(),
	)
	return rootCmd
}

func newHostCmd(cfgPath *string) *cobra.Command {
	var room string
	cmd := &cobra.Command{
		Use:   "host",
		Short: "Host a room as its coordinator",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return play(cmd.Context(), *cfgPath, playOptions{host: true, room: room, ids: identity.Random{}})
		},
	}
	cmd.Flags().StringVar(&room, "room", "", "room id to publish (default: your peer id)")
	return cmd
}

func newJoinCmd(cfgPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "join <room>",
		Short: "Join a hosted room as a follower",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return play(cmd.Context(), *cfgPath, playOptions{room: args[0], ids: identity.Random{}})
		},
	}
}

func newRendezvousCmd(cfgPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "rendezvous",
		Short: "Run the room directory that hosts publish to and joiners resolve from",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serveRendezvous(cmd.Context(), *cfgPath)
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Println("stranger " + version)
		},
	}
}
