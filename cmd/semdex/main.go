// Command semdex indexes a project tree for semantic retrieval and answers
// context queries against the index, either directly on the command line or
// as an MCP server over stdio.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"semdex/internal/mcp"
	"semdex/internal/retriever"
	"semdex/internal/store"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

func main() {
	// Logging goes to stderr; stdout carries command output and, under
	// serve, the MCP protocol.
	log.SetOutput(os.Stderr)

	root := &cobra.Command{
		Use:           "semdex",
		Short:         "Semantic retrieval index for project source and docs",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newIndexCmd())
	root.AddCommand(newQueryCmd())
	root.AddCommand(newStatusCmd())
	root.AddCommand(newServeCmd())
	root.AddCommand(newVersionCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// resolveRoot turns an optional positional path argument into an absolute
// project root, defaulting to the current directory.
func resolveRoot(args []string) (string, error) {
	path := "."
	if len(args) > 0 {
		path = args[0]
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to resolve path %q: %w", path, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("failed to access %s: %w", abs, err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%s is not a directory", abs)
	}
	return abs, nil
}

func newIndexCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "index [path]",
		Short: "Bring the retrieval index up to date with the project tree",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root, err := resolveRoot(args)
			if err != nil {
				return err
			}

			engine, st, err := retriever.Open(root)
			if err != nil {
				return err
			}
			defer func() { _ = st.Close() }()

			summary, err := engine.IndexProject(cmd.Context())
			if err != nil {
				return err
			}

			if summary.NoOp {
				color.Green("Index already up to date.")
				return nil
			}
			color.Green("Indexed %d file(s), removed %d.", summary.FilesProcessed, summary.FilesRemoved)
			fmt.Printf("  chunks added:   %d\n", summary.ChunksAdded)
			fmt.Printf("  chunks removed: %d\n", summary.ChunksRemoved)
			if summary.BatchesFailed > 0 {
				color.Yellow("  %d embedding batch(es) failed; affected files retry next run.", summary.BatchesFailed)
			}
			return nil
		},
	}
}

func newQueryCmd() *cobra.Command {
	var path string
	var limit int

	cmd := &cobra.Command{
		Use:   "query <query>",
		Short: "Retrieve the indexed content most relevant to a query",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root, err := resolveRoot([]string{path})
			if err != nil {
				return err
			}

			engine, st, err := retriever.Open(root)
			if err != nil {
				return err
			}
			defer func() { _ = st.Close() }()

			result, err := engine.RetrieveContext(cmd.Context(), args[0], limit)
			if err != nil {
				return err
			}
			if result == "" {
				color.Yellow("No relevant context found.")
				return nil
			}
			fmt.Print(result)
			return nil
		},
	}

	cmd.Flags().StringVarP(&path, "path", "p", ".", "project root to query")
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "maximum context blocks (default 5)")
	return cmd
}

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status [path]",
		Short: "Report index size and the last indexed revision",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root, err := resolveRoot(args)
			if err != nil {
				return err
			}

			engine, st, err := retriever.Open(root)
			if err != nil {
				return err
			}
			defer func() { _ = st.Close() }()

			status, err := engine.Status(cmd.Context())
			if err != nil {
				return err
			}

			if status.ChunkCount == 0 {
				color.Yellow("Not indexed. Run 'semdex index' first.")
				return nil
			}
			color.Green("Indexed.")
			fmt.Printf("  tracked files: %d\n", status.TrackedFiles)
			fmt.Printf("  chunks:        %d\n", status.ChunkCount)
			if status.Revision != "" {
				fmt.Printf("  revision:      %s\n", status.Revision)
			}
			return nil
		},
	}
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run as an MCP server on stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			log.Printf("semdex MCP server v%s starting (driver %s, %s build)...",
				version, store.DriverName, store.BuildMode)

			server, err := mcp.NewServer()
			if err != nil {
				return fmt.Errorf("failed to create MCP server: %w", err)
			}

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			sigChan := make(chan os.Signal, 1)
			signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

			errChan := make(chan error, 1)
			go func() {
				log.Println("MCP server ready, listening on stdio...")
				errChan <- server.Serve(ctx)
			}()

			select {
			case sig := <-sigChan:
				log.Printf("Received signal %v, shutting down...", sig)
				cancel()
				return nil
			case err := <-errChan:
				return err
			}
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version and build information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("semdex %s\n", version)
			fmt.Printf("Build Time: %s\n", buildTime)
			fmt.Printf("Build Mode: %s\n", store.BuildMode)
			fmt.Printf("SQLite Driver: %s\n", store.DriverName)
		},
	}
}
