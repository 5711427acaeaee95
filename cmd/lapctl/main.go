package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"lapboard/internal/api"
	"lapboard/internal/client"
)

const usage = `usage: lapctl [-server URL] <command> [args]

commands:
  standings                         print lap times, fastest first
  add -name N -team T -time 1:30.5  submit a lap time
  delete -name N -time 1:30.5       delete a lap time
  track [name]                      show or set the track name
  export                            write the export files on the server
`

func main() {
	server := flag.String("server", getEnv("LAPBOARD_URL", "http://localhost:8080"), "lapboard server URL")
	timeout := flag.Duration("timeout", 5*time.Second, "request timeout")
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	c := client.New(*server, *timeout)

	if err := run(context.Background(), c, os.Stdout, flag.Arg(0), flag.Args()[1:]); err != nil {
		logrus.WithError(err).Fatalf("lapctl %s failed", flag.Arg(0))
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func run(ctx context.Context, c *client.Client, out io.Writer, command string, args []string) error {
	switch command {
	case "standings":
		return printStandings(ctx, c, out)

	case "add":
		fs := flag.NewFlagSet("add", flag.ContinueOnError)
		name := fs.String("name", "", "driver name")
		team := fs.String("team", "", "team")
		lap := fs.String("time", "", "lap time")

		if err := fs.Parse(args); err != nil {
			return err
		}

		if *name == "" || *lap == "" {
			return errors.New("add needs -name and -time")
		}

		if _, err := c.AddLapTime(ctx, *name, *team, *lap); err != nil {
			return err
		}

		return printStandings(ctx, c, out)

	case "delete":
		fs := flag.NewFlagSet("delete", flag.ContinueOnError)
		name := fs.String("name", "", "driver name")
		lap := fs.String("time", "", "lap time")

		if err := fs.Parse(args); err != nil {
			return err
		}

		if err := c.DeleteLapTime(ctx, *name, *lap); err != nil {
			return err
		}

		fmt.Fprintf(out, "Deleted %s for %s\n", *lap, *name)
		return nil

	case "track":
		if len(args) == 0 {
			name, err := c.TrackName(ctx)
			if err != nil {
				return err
			}

			fmt.Fprintln(out, name)
			return nil
		}

		name, err := c.SetTrackName(ctx, args[0])
		if err != nil {
			return err
		}

		fmt.Fprintf(out, "Track set to %s\n", name)
		return nil

	case "export":
		resp, err := c.Export(ctx)
		if err != nil {
			return err
		}

		fmt.Fprintf(out, "%s: %s\n", resp.Message, resp.Filename)
		return nil
	}

	return errors.Errorf("unknown command %q", command)
}

func printStandings(ctx context.Context, c *client.Client, out io.Writer) error {
	standings, err := c.Standings(ctx)
	if err != nil {
		return err
	}

	renderStandings(out, standings)
	return nil
}

func renderStandings(out io.Writer, standings *api.Standings) {
	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.SetStyle(table.StyleRounded)

	if standings.Track != "" {
		t.SetTitle(standings.Track)
	}

	t.AppendHeader(table.Row{"Pos", "Driver", "Team", "Time", ""})

	for _, entry := range standings.Entries {
		marker := ""
		if entry.Fastest {
			marker = "⏱"
		}

		t.AppendRow(table.Row{entry.Position, entry.Driver, entry.Team, entry.Time, marker})
	}

	t.Render()
}
