package cmd

import (
	"fmt"
	"runtime"
	"runtime/debug"

	"github.com/spf13/cobra"
)

// set with -ldflags "-X github.com/rtzll/tldwbot/cmd.version=..."
var (
	version = "dev"
	commit  = ""
	date    = ""
)

type buildStamp struct {
	Version string
	Commit  string
	Date    string
	Dirty   bool
}

// currentBuild fills what ldflags left empty from the VCS stamp go build embeds
func currentBuild() buildStamp {
	stamp := buildStamp{Version: version, Commit: commit, Date: date}
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return stamp
	}
	if stamp.Version == "dev" && info.Main.Version != "" && info.Main.Version != "(devel)" {
		stamp.Version = info.Main.Version
	}
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			if stamp.Commit == "" {
				stamp.Commit = s.Value
			}
		case "vcs.time":
			if stamp.Date == "" {
				stamp.Date = s.Value
			}
		case "vcs.modified":
			stamp.Dirty = s.Value == "true"
		}
	}
	return stamp
}

func (b buildStamp) String() string {
	rev := b.Commit
	if len(rev) > 12 {
		rev = rev[:12]
	}
	if rev == "" {
		rev = "unknown"
	} else if b.Dirty {
		rev += "-dirty"
	}
	built := b.Date
	if built == "" {
		built = "unknown"
	}
	return fmt.Sprintf("tldwbot %s (commit %s, built %s, %s)", b.Version, rev, built, runtime.Version())
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print build and model information",
	Example: `  # Show version information
  tldwbot version`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, currentBuild())
		if config != nil {
			fmt.Fprintf(out, "llm: %s %s\n", config.LLMProvider, config.LLMModel)
		}
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
