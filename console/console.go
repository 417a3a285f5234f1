// Package console is the interactive operator surface: it turns lines of
// text into pool-wide operations. The grammar is line-oriented with
// whitespace-delimited arguments; anything unrecognized prints the listing.
package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/pollherd/pollherd/scrape"
	"github.com/pollherd/pollherd/swarm"
	"github.com/rs/zerolog"
)

// Driver exposes the pool operations the console dispatches to.
type Driver interface {
	Vote(optionID string) swarm.Tally
	SingleVote(optionID string) error
	RandomVote(options []string) (swarm.Tally, error)
	RandomAction(ctx context.Context) swarm.Tally
	BreakRequest(count int) swarm.Tally
	HelpRequest(count int) swarm.Tally
	Leave(count int) int
	More(ctx context.Context, count int) int
	PollOptions(ctx context.Context) ([]scrape.Option, error)
	Debug(ctx context.Context, w io.Writer) error
	TestConnectivity(ctx context.Context, w io.Writer) error
	ClassData(ctx context.Context) ([]byte, error)
	Students(ctx context.Context) ([]string, error)
}

// Console reads operator commands line by line and applies them.
type Console struct {
	driver Driver
	in     io.Reader
	out    io.Writer
	logger zerolog.Logger

	// exit terminates the process; replaced in tests.
	exit func(code int)
}

// New creates a console reading commands from in and reporting to out.
func New(driver Driver, in io.Reader, out io.Writer, logger zerolog.Logger) *Console {
	return &Console{
		driver: driver,
		in:     in,
		out:    out,
		logger: logger.With().Str("component", "console").Logger(),
		exit:   os.Exit,
	}
}

// Run prints the command listing and processes input until it is exhausted.
func (c *Console) Run(ctx context.Context) error {
	fmt.Fprintln(c.out, "\nStarting poll interaction simulation...")
	c.printCommands()

	scanner := bufio.NewScanner(c.in)
	for scanner.Scan() {
		c.Dispatch(ctx, scanner.Text())
	}
	return scanner.Err()
}

// Dispatch applies a single command line.
func (c *Console) Dispatch(ctx context.Context, line string) {
	line = strings.TrimSpace(line)
	if line == "" {
		return
	}

	verb, rest := line, ""
	if i := strings.IndexAny(line, " \t"); i >= 0 {
		verb, rest = line[:i], strings.TrimSpace(line[i+1:])
	}

	switch verb {
	case "exit":
		// immediate termination, no cleanup of open sessions
		c.exit(0)

	case "stop":
		fmt.Fprintln(c.out, "Poll simulation stopped. Waiting for new commands...")

	case "test":
		if err := c.driver.TestConnectivity(ctx, c.out); err != nil {
			fmt.Fprintf(c.out, "Server connectivity test failed: %v\n", err)
		}

	case "debug":
		if err := c.driver.Debug(ctx, c.out); err != nil {
			fmt.Fprintf(c.out, "Debug failed: %v\n", err)
		}

	case "options":
		options, err := c.driver.PollOptions(ctx)
		if err != nil {
			fmt.Fprintf(c.out, "Error fetching poll options: %v\n", err)
			return
		}
		if len(options) == 0 {
			fmt.Fprintln(c.out, "No poll options found")
			return
		}
		for _, o := range options {
			fmt.Fprintf(c.out, "  %s - %s\n", o.ID, o.Text)
		}

	case "vote":
		if rest == "" {
			fmt.Fprintln(c.out, "Please provide an option id.")
			return
		}
		fmt.Fprintf(c.out, "Making all users vote for option: %s\n", rest)
		tally := c.driver.Vote(rest)
		fmt.Fprintf(c.out, "Vote completed: %s users voted successfully\n", tally)

	case "single":
		if rest == "" {
			fmt.Fprintln(c.out, "Please provide an option id.")
			return
		}
		if err := c.driver.SingleVote(rest); err != nil {
			fmt.Fprintf(c.out, "Single vote test: FAILED (%v)\n", err)
			return
		}
		fmt.Fprintln(c.out, "Single vote test: SUCCESS")

	case "random":
		options := splitOptions(rest)
		tally, err := c.driver.RandomVote(options)
		if err != nil {
			if errors.Is(err, swarm.ErrNoOptionsAvailable) {
				fmt.Fprintln(c.out, "No poll options available; provide options separated by commas (e.g. \"random True,False\")")
				return
			}
			fmt.Fprintf(c.out, "Random vote failed: %v\n", err)
			return
		}
		fmt.Fprintf(c.out, "Random vote completed: %s users voted successfully\n", tally)

	case "randAction":
		tally := c.driver.RandomAction(ctx)
		fmt.Fprintf(c.out, "Random actions completed: %s\n", tally)

	case "leave":
		count, ok := c.parseCount(rest)
		if !ok {
			return
		}
		removed := c.driver.Leave(count)
		fmt.Fprintf(c.out, "%d users left the room.\n", removed)

	case "more":
		count, ok := c.parseCount(rest)
		if !ok {
			return
		}
		fmt.Fprintf(c.out, "Making %d users join the room.\n", count)
		added := c.driver.More(ctx, count)
		fmt.Fprintf(c.out, "%d users joined the room.\n", added)

	case "break":
		count, ok := c.parseCount(rest)
		if !ok {
			return
		}
		tally := c.driver.BreakRequest(count)
		fmt.Fprintf(c.out, "Break requests sent: %s\n", tally)

	case "help":
		count, ok := c.parseCount(rest)
		if !ok {
			return
		}
		tally := c.driver.HelpRequest(count)
		fmt.Fprintf(c.out, "Help requests sent: %s\n", tally)

	case "classData":
		body, err := c.driver.ClassData(ctx)
		if err != nil {
			fmt.Fprintf(c.out, "Class data request failed: %v\n", err)
			return
		}
		fmt.Fprintf(c.out, "%s\n", body)

	case "students":
		names, err := c.driver.Students(ctx)
		if err != nil {
			fmt.Fprintf(c.out, "Student listing failed: %v\n", err)
			return
		}
		fmt.Fprintf(c.out, "%d students connected:\n", len(names))
		for _, name := range names {
			fmt.Fprintf(c.out, "  %s\n", name)
		}

	default:
		fmt.Fprintln(c.out, "Invalid command. Here are the available commands:")
		c.printCommands()
	}
}

// parseCount parses a positive user count, complaining like the original
// tool when it is missing or malformed.
func (c *Console) parseCount(arg string) (int, bool) {
	count, err := strconv.Atoi(arg)
	if err != nil || count <= 0 {
		fmt.Fprintln(c.out, "Please provide an amount of users.")
		return 0, false
	}
	return count, true
}

// splitOptions parses a comma-separated option list; empty input yields nil
// so random falls back to the option cache.
func splitOptions(arg string) []string {
	if arg == "" {
		return nil
	}
	parts := strings.Split(arg, ",")
	options := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			options = append(options, p)
		}
	}
	return options
}

func (c *Console) printCommands() {
	fmt.Fprintln(c.out, "Commands:")
	fmt.Fprintln(c.out, "  options - Show current poll options")
	fmt.Fprintln(c.out, "  vote <id> - All users vote for specific option (e.g., \"vote True\")")
	fmt.Fprintln(c.out, "  random [id1,id2,...] - Users vote randomly from given options (or the cached poll)")
	fmt.Fprintln(c.out, "  single <id> - Single user votes for testing")
	fmt.Fprintln(c.out, "  debug - Show debug info for first user session")
	fmt.Fprintln(c.out, "  test - Test basic server connectivity")
	fmt.Fprintln(c.out, "  stop - Stop the simulation")
	fmt.Fprintln(c.out, "  exit - Exit the program")
	fmt.Fprintln(c.out, "  leave <count> - \"count\" users leave the active class")
	fmt.Fprintln(c.out, "  more <count> - \"count\" users join the room")
	fmt.Fprintln(c.out, "  break <count> - \"count\" users request a break")
	fmt.Fprintln(c.out, "  help <count> - \"count\" users request help")
	fmt.Fprintln(c.out, "  randAction - Users make random actions")
	fmt.Fprintln(c.out, "  classData - Fetch the class roster via the teacher API")
	fmt.Fprintln(c.out, "  students - List connected students")
	fmt.Fprintln(c.out, "")
}
