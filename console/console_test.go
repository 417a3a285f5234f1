package console

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/pollherd/pollherd/scrape"
	"github.com/pollherd/pollherd/swarm"
	"github.com/rs/zerolog"
)

// recordingDriver records every dispatched operation.
type recordingDriver struct {
	calls []string

	voteOption    string
	randomOptions []string
	randomErr     error
	counts        map[string]int
	students      []string
	classData     []byte
	classDataErr  error
}

func newRecordingDriver() *recordingDriver {
	return &recordingDriver{counts: make(map[string]int)}
}

func (d *recordingDriver) Vote(optionID string) swarm.Tally {
	d.calls = append(d.calls, "vote")
	d.voteOption = optionID
	return swarm.Tally{OK: 2, Total: 3}
}

func (d *recordingDriver) SingleVote(optionID string) error {
	d.calls = append(d.calls, "single")
	d.voteOption = optionID
	return nil
}

func (d *recordingDriver) RandomVote(options []string) (swarm.Tally, error) {
	d.calls = append(d.calls, "random")
	d.randomOptions = options
	if d.randomErr != nil {
		return swarm.Tally{}, d.randomErr
	}
	return swarm.Tally{OK: 3, Total: 3}, nil
}

func (d *recordingDriver) RandomAction(ctx context.Context) swarm.Tally {
	d.calls = append(d.calls, "randAction")
	return swarm.Tally{OK: 3, Total: 3}
}

func (d *recordingDriver) BreakRequest(count int) swarm.Tally {
	d.calls = append(d.calls, "break")
	d.counts["break"] = count
	return swarm.Tally{OK: count, Total: count}
}

func (d *recordingDriver) HelpRequest(count int) swarm.Tally {
	d.calls = append(d.calls, "help")
	d.counts["help"] = count
	return swarm.Tally{OK: count, Total: count}
}

func (d *recordingDriver) Leave(count int) int {
	d.calls = append(d.calls, "leave")
	d.counts["leave"] = count
	return count
}

func (d *recordingDriver) More(ctx context.Context, count int) int {
	d.calls = append(d.calls, "more")
	d.counts["more"] = count
	return count
}

func (d *recordingDriver) PollOptions(ctx context.Context) ([]scrape.Option, error) {
	d.calls = append(d.calls, "options")
	return []scrape.Option{{ID: "True", Text: "True"}}, nil
}

func (d *recordingDriver) Debug(ctx context.Context, w io.Writer) error {
	d.calls = append(d.calls, "debug")
	return nil
}

func (d *recordingDriver) TestConnectivity(ctx context.Context, w io.Writer) error {
	d.calls = append(d.calls, "test")
	return nil
}

func (d *recordingDriver) ClassData(ctx context.Context) ([]byte, error) {
	d.calls = append(d.calls, "classData")
	return d.classData, d.classDataErr
}

func (d *recordingDriver) Students(ctx context.Context) ([]string, error) {
	d.calls = append(d.calls, "students")
	return d.students, nil
}

func newTestConsole(d Driver, input string) (*Console, *bytes.Buffer) {
	out := &bytes.Buffer{}
	c := New(d, strings.NewReader(input), out, zerolog.Nop())
	c.exit = func(code int) {}
	return c, out
}

func TestDispatch_Vote(t *testing.T) {
	d := newRecordingDriver()
	c, out := newTestConsole(d, "")

	c.Dispatch(context.Background(), "vote True")
	if d.voteOption != "True" {
		t.Errorf("expected vote for True, got %q", d.voteOption)
	}
	if !strings.Contains(out.String(), "2/3 users voted successfully") {
		t.Errorf("missing tally report: %s", out.String())
	}
}

func TestDispatch_VoteWithoutArg(t *testing.T) {
	d := newRecordingDriver()
	c, out := newTestConsole(d, "")

	c.Dispatch(context.Background(), "vote")
	if len(d.calls) != 0 {
		t.Errorf("no operation should run, got %v", d.calls)
	}
	if !strings.Contains(out.String(), "Please provide an option id.") {
		t.Errorf("missing complaint: %s", out.String())
	}
}

func TestDispatch_RandomWithList(t *testing.T) {
	d := newRecordingDriver()
	c, _ := newTestConsole(d, "")

	c.Dispatch(context.Background(), "random True, False ,Maybe")
	want := []string{"True", "False", "Maybe"}
	if len(d.randomOptions) != len(want) {
		t.Fatalf("expected %v, got %v", want, d.randomOptions)
	}
	for i := range want {
		if d.randomOptions[i] != want[i] {
			t.Errorf("option %d: expected %q, got %q", i, want[i], d.randomOptions[i])
		}
	}
}

func TestDispatch_RandomWithoutListFallsBackToCache(t *testing.T) {
	d := newRecordingDriver()
	c, _ := newTestConsole(d, "")

	c.Dispatch(context.Background(), "random")
	if len(d.calls) != 1 || d.calls[0] != "random" {
		t.Fatalf("expected random dispatch, got %v", d.calls)
	}
	if d.randomOptions != nil {
		t.Errorf("expected nil options for cache fallback, got %v", d.randomOptions)
	}
}

func TestDispatch_RandomNoOptionsAvailable(t *testing.T) {
	d := newRecordingDriver()
	d.randomErr = swarm.ErrNoOptionsAvailable
	c, out := newTestConsole(d, "")

	c.Dispatch(context.Background(), "random")
	if !strings.Contains(out.String(), "No poll options available") {
		t.Errorf("missing no-options report: %s", out.String())
	}
}

func TestDispatch_CountCommands(t *testing.T) {
	cases := []struct {
		line string
		op   string
		n    int
	}{
		{"leave 3", "leave", 3},
		{"more 5", "more", 5},
		{"break 2", "break", 2},
		{"help 4", "help", 4},
	}
	for _, tc := range cases {
		t.Run(tc.line, func(t *testing.T) {
			d := newRecordingDriver()
			c, _ := newTestConsole(d, "")
			c.Dispatch(context.Background(), tc.line)
			if d.counts[tc.op] != tc.n {
				t.Errorf("expected %s %d, got %d", tc.op, tc.n, d.counts[tc.op])
			}
		})
	}
}

func TestDispatch_CountCommandsRejectMissingCount(t *testing.T) {
	for _, line := range []string{"leave", "more", "break x", "help 0", "leave -2"} {
		d := newRecordingDriver()
		c, out := newTestConsole(d, "")
		c.Dispatch(context.Background(), line)
		if len(d.calls) != 0 {
			t.Errorf("%q: no operation should run, got %v", line, d.calls)
		}
		if !strings.Contains(out.String(), "Please provide an amount of users.") {
			t.Errorf("%q: missing complaint: %s", line, out.String())
		}
	}
}

func TestDispatch_UnknownPrintsListing(t *testing.T) {
	d := newRecordingDriver()
	c, out := newTestConsole(d, "")

	c.Dispatch(context.Background(), "frobnicate")
	if !strings.Contains(out.String(), "Invalid command.") {
		t.Errorf("missing invalid-command report: %s", out.String())
	}
	if !strings.Contains(out.String(), "randAction - Users make random actions") {
		t.Errorf("missing command listing: %s", out.String())
	}
}

func TestDispatch_BlankLineIsIgnored(t *testing.T) {
	d := newRecordingDriver()
	c, out := newTestConsole(d, "")

	c.Dispatch(context.Background(), "   ")
	if out.Len() != 0 || len(d.calls) != 0 {
		t.Errorf("blank input must be ignored, got output %q calls %v", out.String(), d.calls)
	}
}

func TestDispatch_Exit(t *testing.T) {
	d := newRecordingDriver()
	c, _ := newTestConsole(d, "")
	exited := -1
	c.exit = func(code int) { exited = code }

	c.Dispatch(context.Background(), "exit")
	if exited != 0 {
		t.Errorf("expected exit(0), got %d", exited)
	}
}

func TestDispatch_Students(t *testing.T) {
	d := newRecordingDriver()
	d.students = []string{"guest1__", "guest2__"}
	c, out := newTestConsole(d, "")

	c.Dispatch(context.Background(), "students")
	if !strings.Contains(out.String(), "2 students connected:") {
		t.Errorf("missing student count: %s", out.String())
	}
	if !strings.Contains(out.String(), "guest2__") {
		t.Errorf("missing student name: %s", out.String())
	}
}

func TestDispatch_ClassDataError(t *testing.T) {
	d := newRecordingDriver()
	d.classDataErr = errors.New("status 403")
	c, out := newTestConsole(d, "")

	c.Dispatch(context.Background(), "classData")
	if !strings.Contains(out.String(), "Class data request failed") {
		t.Errorf("missing failure report: %s", out.String())
	}
}

func TestRun_ProcessesLinesUntilEOF(t *testing.T) {
	d := newRecordingDriver()
	c, out := newTestConsole(d, "vote True\nstop\nrandAction\n")

	if err := c.Run(context.Background()); err != nil {
		t.Fatalf("run failed: %v", err)
	}
	want := []string{"vote", "randAction"}
	if len(d.calls) != len(want) {
		t.Fatalf("expected calls %v, got %v", want, d.calls)
	}
	if !strings.Contains(out.String(), "Commands:") {
		t.Errorf("listing not printed on startup: %s", out.String())
	}
	if !strings.Contains(out.String(), "Poll simulation stopped.") {
		t.Errorf("stop report missing: %s", out.String())
	}
}
