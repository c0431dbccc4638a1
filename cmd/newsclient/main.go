package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/JoeWakeling/newswire/internal/client"
	"github.com/JoeWakeling/newswire/internal/directory"
)

var directoryURL string

var rootCmd = &cobra.Command{
	Use:   "newsclient",
	Short: "newsclient - interactive client for the federated news network",
	Run: func(cmd *cobra.Command, args []string) {
		dir := directory.NewClient(directoryURL)
		app := &app{
			dir:        dir,
			aggregator: client.NewAggregator(dir),
			session:    client.NewSession(),
			render:     client.NewRenderer(os.Stdout),
			in:         bufio.NewReader(os.Stdin),
		}
		app.run(cmd.Context())
	},
}

type app struct {
	dir        *directory.Client
	aggregator *client.Aggregator
	session    *client.Session
	render     *client.Renderer
	in         *bufio.Reader
}

func (a *app) run(ctx context.Context) {
	bold := color.New(color.Bold)
	bold.Println("\nWelcome to the news aggregator client!")
	fmt.Println("Type 'help' for a list of commands or 'exit' to close the client.")

	for {
		fmt.Print("> ")
		line, err := a.in.ReadString('\n')
		if err != nil {
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		command, args := parts[0], parts[1:]

		switch command {
		case "exit":
			return
		case "login":
			a.login(ctx, args)
		case "logout":
			a.logout(ctx)
		case "news":
			a.news(ctx, args)
		case "post":
			a.post(ctx)
		case "delete":
			a.delete(ctx, args)
		case "list":
			a.list(ctx)
		case "help":
			a.help()
		default:
			a.render.Failure("Invalid command - type 'help' for available commands")
		}
	}
}

func (a *app) login(ctx context.Context, args []string) {
	if len(args) == 0 {
		a.render.Failure("No login url provided")
		return
	}
	url := args[0]
	if held := a.session.LoggedInURL(); held != "" {
		a.render.Failure("Already logged in to a news service, please log out")
		return
	}

	a.render.Info("\nAttempting to log in to news service @ %s", url)
	username := a.prompt("username")
	password := a.promptPassword()

	if err := a.session.Login(ctx, url, username, password); err != nil {
		a.render.Failure("Login failed: %v", err)
		return
	}
	a.render.Success("Login successful")
}

func (a *app) logout(ctx context.Context) {
	held := a.session.LoggedInURL()
	if held == "" {
		a.render.Failure("Not logged in to a news service")
		return
	}

	a.render.Info("\nAttempting to log out of news service @ %s", held)
	if err := a.session.Logout(ctx); err != nil {
		a.render.Failure("Logout failed: %v", err)
		return
	}
	a.render.Success("Logout successful")
}

func (a *app) news(ctx context.Context, args []string) {
	var q client.NewsQuery
	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		if !ok {
			continue
		}
		switch key {
		case "-id":
			q.AgencyCode = value
		case "-cat":
			q.Category = value
		case "-reg":
			q.Region = value
		case "-date":
			q.Date = value
		}
	}

	if q.AgencyCode != "" {
		a.render.Info("\nAttempting to retrieve stories from agency with id %s", q.AgencyCode)
	} else {
		a.render.Info("\nAttempting to retrieve stories from all agencies")
	}

	reports, err := a.aggregator.Query(ctx, q)
	if err != nil {
		a.render.Failure("%v", err)
		return
	}
	a.render.Report(reports)
}

func (a *app) post(ctx context.Context) {
	held := a.session.LoggedInURL()
	if held == "" {
		a.render.Failure("Not logged in to a news service")
		return
	}

	a.render.Info("\nAttempting to post a story to news service @ %s", held)
	draft := client.StoryDraft{
		Headline: a.prompt("headline"),
		Category: a.prompt("category"),
		Region:   a.prompt("region"),
		Details:  a.prompt("details"),
	}

	if err := a.session.PostStory(ctx, draft); err != nil {
		a.render.Failure("%v", err)
		return
	}
	a.render.Success("Story posted successfully")
}

func (a *app) delete(ctx context.Context, args []string) {
	if len(args) == 0 {
		a.render.Failure("No story key provided")
		return
	}
	held := a.session.LoggedInURL()
	if held == "" {
		a.render.Failure("Not logged in to a news service")
		return
	}

	a.render.Info("\nAttempting to delete story with key %s from news service @ %s", args[0], held)
	if err := a.session.DeleteStory(ctx, args[0]); err != nil {
		a.render.Failure("%v", err)
		return
	}
	a.render.Success("Story deleted successfully")
}

func (a *app) list(ctx context.Context) {
	a.render.Info("\nAttempting to retrieve list of agencies from directory service")
	agencies, err := a.dir.Fetch(ctx)
	if err != nil {
		a.render.Failure("%v", err)
		return
	}

	a.render.Success("%d agencies found", len(agencies))
	for _, agency := range agencies {
		fmt.Printf("%s - %s - %s\n", agency.Name, agency.URL, agency.Code)
	}
	fmt.Println()
}

func (a *app) help() {
	a.render.Info("\nAvailable commands:")
	fmt.Println("list - List all news agencies registered to the directory service\n" +
		"login <url> - Log in to a news service\n" +
		"logout - Log out of a news service\n" +
		"news [-id=<agency_id>] [-cat=<category>] [-reg=<region>] [-date=<date>] - Get news stories\n" +
		"post - Post a news story (requires login)\n" +
		"delete <story_key> - Delete a news story (requires login)\n" +
		"exit - Exit the client")
}

func (a *app) prompt(field string) string {
	color.New(color.FgBlue).Print("?")
	fmt.Printf(" Enter %s > ", field)
	line, _ := a.in.ReadString('\n')
	return strings.TrimSpace(line)
}

func (a *app) promptPassword() string {
	color.New(color.FgBlue).Print("?")
	fmt.Print(" Enter password > ")
	password, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		return ""
	}
	return string(password)
}

func main() {
	rootCmd.Flags().StringVar(&directoryURL, "directory",
		"https://newssites.pythonanywhere.com", "Base URL of the directory service")

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
