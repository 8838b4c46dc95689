// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"strings"
	"testing"
)

func TestValues(t *testing.T) {
	values := Values()
	if len(values) != int(ReleaseFailedId) {
		t.Fatalf("Values() returned %d issues, want %d", len(values), ReleaseFailedId)
	}
	for i, issue := range values {
		if issue.Id() != Id(i+1) {
			t.Errorf("Values()[%d].Id() = %d, want %d", i, issue.Id(), i+1)
		}
		if strings.TrimSpace(string(issue.MarkdownMsg())) == "" {
			t.Errorf("issue %d has an empty message", issue.Id())
		}
		if Get(issue.Id()) != issue {
			t.Errorf("Get(%d) does not return the catalogued issue", issue.Id())
		}
	}
}

func TestIssue_LinksAreCopies(t *testing.T) {
	issue := Get(CompilerNotFoundId)
	links := issue.ExtLinks()
	if len(links) == 0 {
		t.Fatal("CompilerNotFound should link to argc")
	}
	links[0] = "mutated"
	if issue.ExtLinks()[0] == "mutated" {
		t.Error("ExtLinks() should return a copy")
	}
}

func TestIssue_Render(t *testing.T) {
	original := render
	t.Cleanup(func() { render = original })

	var got string
	render = func(in, _ string) (string, error) {
		got = in
		return in, nil
	}

	if _, err := Get(CompilerNotFoundId).Render("dark"); err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !strings.Contains(got, "# argc is not installed!") {
		t.Errorf("rendered markdown missing title:\n%s", got)
	}
	if !strings.Contains(got, "## See also\n- <https://github.com/sigoden/argc>") {
		t.Errorf("rendered markdown missing links:\n%s", got)
	}
}

func TestIssue_RenderGlamour(t *testing.T) {
	out, err := Get(IncludeNotFoundId).Render("notty")
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !strings.Contains(out, "Included file not found") {
		t.Errorf("glamour output missing title:\n%s", out)
	}
}
