package commands

import (
	"bytes"
	"io"
	"testing"

	"github.com/dyluth/frontdesk/internal/printer"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestRootCommand_ShowsHelpWhenNoSubcommand tests that the root command
// shows help instead of silently succeeding when invoked without a subcommand
func TestRootCommand_ShowsHelpWhenNoSubcommand(t *testing.T) {
	testRoot := &cobra.Command{
		Use:   "frontdesk",
		Short: "Test root command",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	buf := new(bytes.Buffer)
	testRoot.SetOut(buf)
	testRoot.SetErr(buf)

	err := testRoot.Execute()

	assert.NoError(t, err)
	output := buf.String()
	assert.Contains(t, output, "Usage:", "Help should be displayed")
	assert.Contains(t, output, "frontdesk", "Help should show command name")
}

// TestRootCommand_RejectsUnknownFlags tests that unknown flags
// passed to the root command cause an error instead of being silently ignored
func TestRootCommand_RejectsUnknownFlags(t *testing.T) {
	testRoot := &cobra.Command{
		Use:   "frontdesk",
		Short: "Test root command",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
		FParseErrWhitelist: cobra.FParseErrWhitelist{},
	}
	testRoot.SetArgs([]string{"--unknown-flag", "value"})

	buf := new(bytes.Buffer)
	testRoot.SetOut(buf)
	testRoot.SetErr(buf)

	err := testRoot.Execute()
	assert.Error(t, err, "Unknown flag should cause an error")
	assert.Contains(t, err.Error(), "unknown flag", "Error should mention unknown flag")
}

// TestRootCommand_Registered checks every front-desk command is wired to the root.
func TestRootCommand_Registered(t *testing.T) {
	want := []string{"init", "serve", "rooms", "checkin", "checkout", "reserve", "rent", "expense", "summary", "watch", "sync", "seed"}
	for _, name := range want {
		cmd, _, err := rootCmd.Find([]string{name})
		require.NoError(t, err, name)
		assert.Equal(t, name, cmd.Name())
	}

	for _, sub := range []string{"add", "list", "edit", "delete"} {
		cmd, _, err := rootCmd.Find([]string{"rent", sub})
		require.NoError(t, err)
		assert.Equal(t, sub, cmd.Name())
	}
	for _, sub := range []string{"add", "list", "delete"} {
		cmd, _, err := rootCmd.Find([]string{"expense", sub})
		require.NoError(t, err)
		assert.Equal(t, sub, cmd.Name())
	}
}

// TestRootCommand_SubcommandFlags tests that flags meant for a subcommand
// are rejected when passed to the root command
func TestRootCommand_SubcommandFlags(t *testing.T) {
	assert.NotNil(t, checkinCmd.Flags().Lookup("room"))
	assert.Nil(t, rootCmd.Flags().Lookup("room"))
	assert.NotNil(t, rootCmd.PersistentFlags().Lookup("config"))
}

func TestListOptions(t *testing.T) {
	printer.SetOutput(io.Discard, io.Discard)
	t.Cleanup(func() {
		printer.SetOutput(nil, nil)
		listOutput, listFrom, listUntil, listMode, listQuery = "default", "", "", "", ""
	})

	t.Run("valid", func(t *testing.T) {
		listOutput = "jsonl"
		listFrom = "2024-03-01"
		listUntil = "2024-03-31"
		listMode = "gpay"
		listQuery = "asha"

		opts, err := listOptions()
		require.NoError(t, err)
		assert.Equal(t, "jsonl", string(opts.Format))
		require.NotNil(t, opts.Filter)
		assert.Equal(t, "2024-03-01", opts.Filter.From)
		assert.Equal(t, "2024-03-31", opts.Filter.To)
		assert.Equal(t, "gpay", opts.Filter.Mode)
		assert.Equal(t, "asha", opts.Filter.Query)
	})

	t.Run("bad format", func(t *testing.T) {
		listOutput = "xml"
		listFrom, listUntil = "", ""
		_, err := listOptions()
		assert.Error(t, err)
	})

	t.Run("reversed range", func(t *testing.T) {
		listOutput = "default"
		listFrom = "2024-03-31"
		listUntil = "2024-03-01"
		_, err := listOptions()
		assert.Error(t, err)
	})
}
