package main

import (
	"fmt"
	"os"

	"github.com/alecthomas/kong"

	"github.com/iliyamo/event-ticketing-admin/internal/client"
	"github.com/iliyamo/event-ticketing-admin/internal/session"
)

var CLI struct {
	API   string `help:"Base URL of the admin API." env:"SCHEDULE_API_URL" default:"http://localhost:8080"`
	Token string `help:"Organizer access token." env:"SCHEDULE_API_TOKEN"`

	Duration DurationCmd `cmd:"" help:"Show the duration between two HH:MM times."`
	Inspect  InspectCmd  `cmd:"" help:"Print the slots of a schedule payload file."`
	Pull     PullCmd     `cmd:"" help:"Fetch and print the saved schedule of an event."`
	Push     PushCmd     `cmd:"" help:"Save a schedule payload file to an event."`
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("schedulectl"),
		kong.Description("Inspect and manage event schedules"),
		kong.UsageOnError(),
	)

	appCtx := &Context{
		Client:  client.New(CLI.API, nil),
		Session: session.Session{Role: session.RoleOrganizer, Token: CLI.Token},
		Out:     os.Stdout,
	}
	if err := ctx.Run(appCtx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
