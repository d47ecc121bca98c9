package main

import (
	"os"

	"github.com/spf13/cobra"
)

var completionCmd = &cobra.Command{
	Use:   "completion [bash|zsh|fish]",
	Short: "Generate a shell completion script",
	Long: `Generate a completion script for bunsen-rebuild.

Bash:
  $ source <(bunsen-rebuild completion bash)
  # Or install it system-wide:
  $ bunsen-rebuild completion bash > /etc/bash_completion.d/bunsen-rebuild

Zsh:
  $ bunsen-rebuild completion zsh > "${fpath[1]}/_bunsen-rebuild"
  # Requires compinit; start a new shell afterwards.

Fish:
  $ bunsen-rebuild completion fish > ~/.config/fish/completions/bunsen-rebuild.fish
`,
	DisableFlagsInUseLine: true,
	ValidArgs:             []string{"bash", "zsh", "fish"},
	Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	Run: func(cmd *cobra.Command, args []string) {
		switch args[0] {
		case "bash":
			rootCmd.GenBashCompletion(os.Stdout)
		case "zsh":
			rootCmd.GenZshCompletion(os.Stdout)
		case "fish":
			rootCmd.GenFishCompletion(os.Stdout, true)
		}
	},
}

func init() {
	rootCmd.AddCommand(completionCmd)
}
