// Command maeumctl inspects the catalog and forecasts offline, and talks to a
// running server over the chat socket.
package main

import (
	"fmt"
	"io"
	"os"

	"maeum-toegeun/backend/internal/catalog"

	"github.com/alecthomas/kong"
)

// Context is passed to every command's Run
type Context struct {
	Catalog *catalog.Catalog
	Out     io.Writer
}

var CLI struct {
	Version kong.VersionFlag

	Levels  LevelsCmd  `cmd:"" help:"Show the level table, or the level for a point total."`
	Topics  TopicsCmd  `cmd:"" help:"Rank conversation topics for a profile."`
	Predict PredictCmd `cmd:"" help:"Forecast emotions from an exported record file."`
	Stats   StatsCmd   `cmd:"" help:"Summarize an exported record file."`
	Chat    ChatCmd    `cmd:"" help:"Send one message to a running server and stream the reply."`
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("maeumctl"),
		kong.Description("Workplace wellness backend companion"),
		kong.UsageOnError(),
		kong.Vars{"version": "v1.0.0"},
	)

	cat, err := catalog.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if err := ctx.Run(&Context{Catalog: cat, Out: os.Stdout}); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
