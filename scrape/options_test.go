package scrape

import (
	"strings"
	"testing"
)

func TestExtractPollOptions_Buttons(t *testing.T) {
	page := `<html><body>
		<div class="poll-box">
			<button name="poll" id="True">True</button>
			<button name="poll" id="False">False</button>
		</div>
	</body></html>`

	options, err := ExtractPollOptions(strings.NewReader(page))
	if err != nil {
		t.Fatalf("extract failed: %v", err)
	}
	if len(options) != 2 {
		t.Fatalf("expected 2 options, got %d", len(options))
	}
	if options[0].ID != "True" || options[0].Text != "True" {
		t.Errorf("unexpected first option: %+v", options[0])
	}
	if options[1].ID != "False" {
		t.Errorf("unexpected second option: %+v", options[1])
	}
}

func TestExtractPollOptions_RadioFallsBackToValue(t *testing.T) {
	page := `<form>
		<input type="radio" name="poll" value="a">
		<input type="radio" name="poll" value="b">
	</form>`

	options, err := ExtractPollOptions(strings.NewReader(page))
	if err != nil {
		t.Fatalf("extract failed: %v", err)
	}
	if len(options) != 2 {
		t.Fatalf("expected 2 options, got %d", len(options))
	}
	if options[0].ID != "a" || options[1].ID != "b" {
		t.Errorf("unexpected options: %+v", options)
	}
}

func TestExtractPollOptions_NoPoll(t *testing.T) {
	page := `<html><body><h1>Waiting for the next poll...</h1></body></html>`

	options, err := ExtractPollOptions(strings.NewReader(page))
	if err != nil {
		t.Fatalf("extract failed: %v", err)
	}
	if len(options) != 0 {
		t.Errorf("expected no options, got %+v", options)
	}
}

func TestExtractPollOptions_PreservesDocumentOrder(t *testing.T) {
	page := `<div>
		<button class="poll" id="c">C</button>
		<button class="poll" id="a">A</button>
		<button class="poll" id="b">B</button>
	</div>`

	options, err := ExtractPollOptions(strings.NewReader(page))
	if err != nil {
		t.Fatalf("extract failed: %v", err)
	}
	want := []string{"c", "a", "b"}
	for i, id := range want {
		if options[i].ID != id {
			t.Errorf("position %d: expected %q, got %q", i, id, options[i].ID)
		}
	}
}
