package cli_test

import (
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Yeseh/cortex-sub001/internal/cli"
	"github.com/Yeseh/cortex-sub001/internal/service"
)

const rawMemory = `---
created_at: 2026-01-01T00:00:00Z
updated_at: 2026-01-01T00:00:00Z
tags: []
source: import
---
imported body
`

func Test_Add_Then_Show_Prints_Stored_File_When_Invoked(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	stdout := c.MustRun("add", "project/standup", "-m", "daily notes\n", "-t", "work,daily", "--summary", "standup log")

	cli.AssertContains(t, stdout, "added project/standup")

	stdout = c.MustRun("show", "project/standup")

	cli.AssertContains(t, stdout, "tags: [work, daily]")
	cli.AssertContains(t, stdout, "source: user")
	cli.AssertContains(t, stdout, "daily notes")

	if got, want := stdout, c.ReadStoreFile("project/standup.md"); got != strings.TrimSpace(want) {
		t.Errorf("show output differs from file\nshow:\n%s\nfile:\n%s", got, want)
	}

	index := c.ReadStoreFile("project/index.yaml")
	cli.AssertContains(t, index, "path: project/standup")
	cli.AssertContains(t, index, "summary: standup log")

	cli.AssertContains(t, c.ReadStoreFile("index.yaml"), "memory_count: 1")
}

func Test_Add_Reads_Stdin_When_Content_Flag_Missing(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)

	_, stderr, exitCode := c.RunWithInput("piped body\n", "add", "inbox/piped")
	if exitCode != 0 {
		t.Fatalf("exitCode=%d, stderr=%s", exitCode, stderr)
	}

	cli.AssertContains(t, c.ReadStoreFile("inbox/piped.md"), "---\npiped body\n")
}

func Test_Commands_Print_Error_Code_When_Core_Fails(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	c.MustRun("add", "project/notes", "-m", "x")

	for _, tt := range []struct {
		name string
		args []string
		want string
	}{
		{name: "duplicate add", args: []string{"add", "project/notes", "-m", "y"}, want: "(code=DESTINATION_EXISTS)"},
		{name: "invalid path", args: []string{"add", "Project/Notes", "-m", "y"}, want: "(code=INVALID_PATH)"},
		{name: "single segment", args: []string{"show", "notes"}, want: "(code=INVALID_PATH)"},
		{name: "missing memory", args: []string{"show", "project/missing"}, want: "(code=MEMORY_NOT_FOUND)"},
		{name: "missing category", args: []string{"list", "nowhere"}, want: "(code=CATEGORY_NOT_FOUND)"},
		{name: "move to missing category", args: []string{"move", "project/notes", "archive/notes"}, want: "(code=MOVE_FAILED)"},
		{name: "nothing to update", args: []string{"update", "project/notes"}, want: "(code=INVALID_ARGUMENT)"},
		{name: "bad glob", args: []string{"list", "project", "--match", "[a"}, want: "(code=INVALID_ARGUMENT)"},
		{name: "delete non-empty", args: []string{"category", "delete", "project"}, want: "(code=CATEGORY_NOT_EMPTY)"},
		{name: "missing path", args: []string{"remove"}, want: "memory path is required"},
		{name: "bad expiry", args: []string{"add", "project/later", "-m", "x", "--expires-at", "tomorrow"}, want: "--expires-at must be RFC 3339"},
	} {
		stderr := c.MustFail(tt.args...)
		if !strings.Contains(stderr, "error: ") || !strings.Contains(stderr, tt.want) {
			t.Errorf("%s: stderr=%q, want error containing %q", tt.name, stderr, tt.want)
		}
	}

	if !c.StoreFileExists("project/notes.md") {
		t.Error("failed move removed the source memory")
	}
}

func Test_Update_Changes_Tags_And_Content_When_Invoked(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	c.MustRun("add", "project/notes", "-m", "v1", "-t", "old")
	c.MustRun("update", "project/notes", "-m", "v2", "--tags", "new")

	stdout := c.MustRun("show", "project/notes")
	cli.AssertContains(t, stdout, "tags: [new]")
	cli.AssertContains(t, stdout, "v2")
	cli.AssertNotContains(t, stdout, "v1")
}

func Test_Move_And_Remove_Keep_Indexes_Current_When_Invoked(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	c.MustRun("add", "inbox/idea", "-m", "x", "--summary", "big idea")
	c.MustRun("category", "create", "archive")

	stdout := c.MustRun("move", "inbox/idea", "archive/idea")
	cli.AssertContains(t, stdout, "moved inbox/idea -> archive/idea")

	stdout = c.MustRun("list", "archive")
	cli.AssertContains(t, stdout, "archive/idea ~1 tokens - big idea")

	stdout = c.MustRun("list")
	cli.AssertContains(t, stdout, "archive/ (1)")
	cli.AssertNotContains(t, stdout, "inbox/")

	c.MustRun("remove", "archive/idea")

	stdout = c.MustRun("list")
	cli.AssertNotContains(t, stdout, "archive/")

	stderr := c.MustFail("show", "archive/idea")
	cli.AssertContains(t, stderr, "(code=MEMORY_NOT_FOUND)")
}

func Test_List_Filters_By_Glob_And_Prints_JSON_When_Invoked(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	c.MustRun("add", "project/meeting-notes", "-m", "a")
	c.MustRun("add", "project/todo", "-m", "b")
	c.MustRun("add", "project/sub/deep", "-m", "c")

	stdout := c.MustRun("list", "project", "--match", "project/*-notes")
	cli.AssertContains(t, stdout, "project/meeting-notes")
	cli.AssertNotContains(t, stdout, "project/todo")
	cli.AssertContains(t, stdout, "project/sub/ (1)")

	stdout = c.MustRun("list", "project", "--json")

	var listing service.Listing

	err := json.Unmarshal([]byte(stdout), &listing)
	if err != nil {
		t.Fatalf("decode listing: %v\n%s", err, stdout)
	}

	if got, want := len(listing.Memories), 2; got != want {
		t.Errorf("memories=%d, want=%d", got, want)
	}

	if got, want := len(listing.Subcategories), 1; got != want {
		t.Fatalf("subcategories=%d, want=%d", got, want)
	}

	if got, want := listing.Subcategories[0].MemoryCount, 1; got != want {
		t.Errorf("memory_count=%d, want=%d", got, want)
	}
}

func Test_Prune_Removes_Only_Expired_When_Invoked(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	c.MustRun("add", "tmp/old", "-m", "stale", "--expires-at", "2000-01-01T00:00:00Z")
	c.MustRun("add", "tmp/new", "-m", "fresh", "--expires-at", "2999-01-01T00:00:00Z")
	c.MustRun("add", "keep/forever", "-m", "never expires")

	stdout := c.MustRun("list", "tmp")
	cli.AssertNotContains(t, stdout, "tmp/old")
	cli.AssertContains(t, stdout, "tmp/new")

	stdout = c.MustRun("list", "tmp", "--include-expired")
	cli.AssertContains(t, stdout, "tmp/old ~2 tokens [expired]")

	stdout = c.MustRun("prune", "--dry-run")
	if got, want := stdout, "would remove tmp/old"; got != want {
		t.Errorf("dry-run stdout=%q, want=%q", got, want)
	}

	if !c.StoreFileExists("tmp/old.md") {
		t.Fatal("dry-run deleted a file")
	}

	stdout = c.MustRun("prune")
	if got, want := stdout, "removed tmp/old"; got != want {
		t.Errorf("prune stdout=%q, want=%q", got, want)
	}

	if c.StoreFileExists("tmp/old.md") {
		t.Error("expired memory still on disk")
	}

	if got, want := c.MustRun("prune"), "nothing to prune"; got != want {
		t.Errorf("second prune stdout=%q, want=%q", got, want)
	}
}

func Test_Reindex_Warns_But_Succeeds_When_Slugs_Collide(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	c.WriteFile(filepath.Join(c.StoreDir(), "notes", "My Note.md"), rawMemory)
	c.WriteFile(filepath.Join(c.StoreDir(), "notes", "my_note.md"), rawMemory)

	stdout, stderr, exitCode := c.Run("reindex")

	if got, want := exitCode, 0; got != want {
		t.Fatalf("exitCode=%d, want=%d, stderr=%s", got, want, stderr)
	}

	if got, want := strings.TrimSpace(stdout), "reindexed 2 memories in 2 categories"; got != want {
		t.Errorf("stdout=%q, want=%q", got, want)
	}

	cli.AssertContains(t, stderr, "warning: resolved slug collision")
	cli.AssertContains(t, stderr, "notes/my-note-2")

	stdout = c.MustRun("list", "notes")
	cli.AssertContains(t, stdout, "notes/my-note")
	cli.AssertContains(t, stdout, "notes/my-note-2")

	stdout, stderr, exitCode = c.Run("reindex")
	if exitCode != 0 || stderr != "" {
		t.Errorf("second reindex: exitCode=%d stderr=%q", exitCode, stderr)
	}

	cli.AssertContains(t, stdout, "reindexed 2 memories in 2 categories")
}

func Test_Category_Commands_Manage_Descriptions_When_Invoked(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	c.MustRun("category", "create", "projects/alpha", "-d", "first project")

	stdout := c.MustRun("list", "projects")
	cli.AssertContains(t, stdout, "projects/alpha/ (0) - first project")

	c.MustRun("category", "describe", "projects/alpha", "renamed")

	stdout = c.MustRun("list", "projects")
	cli.AssertContains(t, stdout, "projects/alpha/ (0) - renamed")

	c.MustRun("category", "delete", "projects/alpha")

	stdout = c.MustRun("list", "projects")
	cli.AssertNotContains(t, stdout, "projects/alpha")

	stderr := c.MustFail("category", "rename", "projects")
	cli.AssertContains(t, stderr, "unknown action: rename")
}

func Test_Store_Registry_Selects_Root_When_Invoked(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)

	stdout := c.MustRun("store", "add", "work", "work-notes")
	cli.AssertContains(t, stdout, "registered work at "+filepath.Join(c.Dir, "work-notes"))

	c.MustRun("-s", "work", "add", "team/retro", "-m", "went well")

	stdout = c.MustRun("-s", "work", "store", "list")
	cli.AssertContains(t, stdout, "* work\t"+filepath.Join(c.Dir, "work-notes"))

	stdout = c.MustRun("-s", "work", "show", "team/retro")
	cli.AssertContains(t, stdout, "went well")

	if c.StoreFileExists("team/retro.md") {
		t.Error("memory written to the default store")
	}

	stderr := c.MustFail("store", "add", "work", "/elsewhere")
	cli.AssertContains(t, stderr, "store already registered")

	c.MustRun("store", "remove", "work")

	stderr = c.MustFail("--store=work", "list")
	cli.AssertContains(t, stderr, "store not registered: work")
}

func Test_Store_Dir_Flag_Bypasses_Registry_When_Invoked(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	c.MustRun("--store-dir", "local", "add", "a/b", "-m", "x")

	cli.AssertContains(t, c.MustRun("--store-dir=local", "show", "a/b"), "x")

	stdout := c.MustRun("list")
	cli.AssertNotContains(t, stdout, "a/")
}
