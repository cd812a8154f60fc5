package memories

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minddock/minddock/app"
	"github.com/minddock/minddock/internal/api"
	"github.com/minddock/minddock/internal/api/apitest"
	"github.com/minddock/minddock/internal/configuration"
)

func newTestApp(t *testing.T) (*app.App, *apitest.Server) {
	t.Helper()
	server := apitest.NewServer()
	t.Cleanup(server.Close)
	client, err := api.New(api.Options{BaseURL: server.URL(), Timeout: 5 * time.Second})
	require.NoError(t, err)
	a, err := app.NewApp(configuration.Default(), client)
	require.NoError(t, err)
	return a, server
}

func execute(cmd *cobra.Command, args ...string) error {
	cmd.SetArgs(args)
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true
	return cmd.ExecuteContext(context.Background())
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestMemoCmd_CreatesMemo(t *testing.T) {
	a, server := newTestApp(t)
	alice := server.AddUser("alice@example.com", "")

	err := execute(NewMemoCmd(a),
		"--title", "Groceries", "--tags", "home, errand", "--captured-at", "2024-05-01T09:30:00Z",
		"--context", `{"mood":"calm"}`, "milk", "and", "eggs")
	require.NoError(t, err)

	memories := server.Memories(alice.ID)
	require.Len(t, memories, 1)
	assert.Equal(t, "Groceries", memories[0].Title)
	assert.Equal(t, "milk and eggs", memories[0].Content)
	assert.Equal(t, []string{"home", "errand"}, memories[0].Tags)
	assert.Equal(t, "calm", memories[0].Context["mood"])
}

func TestMemoCmd_RequiresTitle(t *testing.T) {
	a, server := newTestApp(t)
	alice := server.AddUser("alice@example.com", "")

	assert.Error(t, execute(NewMemoCmd(a), "milk"))
	assert.Empty(t, server.Memories(alice.ID))
}

func TestMemoCmd_UnknownUser(t *testing.T) {
	a, server := newTestApp(t)
	server.AddUser("alice@example.com", "")

	err := execute(NewMemoCmd(a), "--user", "bob@example.com", "--title", "T", "c")
	assert.EqualError(t, err, `unknown user "bob@example.com"`)
}

func TestTranscribeCmd_UploadsAudio(t *testing.T) {
	a, server := newTestApp(t)
	bob := server.AddUser("bob@example.com", "")
	server.AddUser("alice@example.com", "")
	server.SetTranscript("Call the plumber about the sink")
	path := writeFile(t, "voice.m4a", "not really audio")

	err := execute(NewTranscribeCmd(a), "--user", bob.ID, "--tags", "house", "--device", "phone", path)
	require.NoError(t, err)

	calls := server.TranscribeCalls()
	require.Len(t, calls, 1)
	assert.Equal(t, "voice.m4a", calls[0].Filename)
	assert.Equal(t, bob.ID, calls[0].Fields["owner_id"])
	assert.Equal(t, `["house"]`, calls[0].Fields["tags"])
	assert.Equal(t, "phone", calls[0].Fields["source_device"])
	memories := server.Memories(bob.ID)
	require.Len(t, memories, 1)
	assert.Equal(t, "Call the plumber about the sink", memories[0].Content)
}

func TestTranscribeCmd_MissingFile(t *testing.T) {
	a, server := newTestApp(t)
	server.AddUser("alice@example.com", "")

	assert.Error(t, execute(NewTranscribeCmd(a), filepath.Join(t.TempDir(), "missing.m4a")))
	assert.Empty(t, server.TranscribeCalls())
}

func TestAttachAndDownload(t *testing.T) {
	a, server := newTestApp(t)
	alice := server.AddUser("alice@example.com", "")
	memory := server.AddMemory(alice.ID, "Receipts", "May")
	path := writeFile(t, "receipt.txt", "total: 12.50")

	require.NoError(t, execute(NewAttachCmd(a), memory.ID, path))
	memories := server.Memories(alice.ID)
	require.Len(t, memories[0].Attachments, 1)
	attachment := memories[0].Attachments[0]
	assert.Equal(t, "receipt.txt", attachment.Filename)

	found, err := findAttachment(context.Background(), a, memory.ID, attachment.ID)
	require.NoError(t, err)
	assert.Equal(t, attachment.ID, found.ID)

	output := filepath.Join(t.TempDir(), "copy.txt")
	require.NoError(t, execute(NewDownloadCmd(a), "--output", output, memory.ID, attachment.ID))
	content, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Equal(t, "total: 12.50", string(content))

	// An existing file is overwritten only with --force.
	require.NoError(t, os.WriteFile(output, []byte("stale"), 0o644))
	require.NoError(t, execute(NewDownloadCmd(a), "--force", "--output", output, memory.ID, attachment.ID))
	content, err = os.ReadFile(output)
	require.NoError(t, err)
	assert.Equal(t, "total: 12.50", string(content))
}

func TestAttachCmd_ForeignMemory(t *testing.T) {
	a, server := newTestApp(t)
	server.AddUser("alice@example.com", "")
	bob := server.AddUser("bob@example.com", "")
	memory := server.AddMemory(bob.ID, "Bob's", "secret")
	path := writeFile(t, "x.txt", "x")

	assert.Error(t, execute(NewAttachCmd(a), memory.ID, path))
	assert.Empty(t, server.Memories(bob.ID)[0].Attachments)
}

func TestFindAttachment_Unknown(t *testing.T) {
	a, server := newTestApp(t)
	alice := server.AddUser("alice@example.com", "")
	memory := server.AddMemory(alice.ID, "Receipts", "May")

	_, err := findAttachment(context.Background(), a, memory.ID, "nope")
	assert.EqualError(t, err, "memory "+memory.ID+" has no attachment nope")
}

func TestListAndShowCmd(t *testing.T) {
	a, server := newTestApp(t)
	alice := server.AddUser("alice@example.com", "Alice")
	memory := server.AddMemory(alice.ID, "Trip", "Lisbon")

	require.NoError(t, execute(NewListCmd(a)))
	require.NoError(t, execute(NewShowCmd(a), memory.ID))
	require.NoError(t, execute(NewShowCmd(a), "--json", memory.ID))
	assert.Error(t, execute(NewShowCmd(a), "missing"))
}
