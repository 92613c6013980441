package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/sadopc/pulse/internal/api"
	"github.com/sadopc/pulse/internal/config"
	"github.com/sadopc/pulse/internal/export"
	"github.com/sadopc/pulse/internal/store"
	"github.com/sadopc/pulse/internal/tui"
)

var (
	dbPath  string
	cfgPath string
)

func main() {
	defaultDB, err := store.DefaultDBPath()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defaultCfg, err := config.DefaultPath()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	rootCmd := &cobra.Command{
		Use:   "pulse",
		Short: "A timeline journal that spaces entries by how long ago they happened",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI()
		},
	}

	rootCmd.PersistentFlags().StringVar(&dbPath, "db", defaultDB, "database path")
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", defaultCfg, "config file path")

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(exportCmd())
	rootCmd.AddCommand(userCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func openStore() (*store.Store, error) {
	return store.New(dbPath)
}

func runTUI() error {
	s, err := openStore()
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer s.Close()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	p := tea.NewProgram(
		tui.NewApp(s, cfg, cfgPath),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)
	_, err = p.Run()
	return err
}

func serveCmd() *cobra.Command {
	var listen string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openStore()
			if err != nil {
				return err
			}
			defer s.Close()

			cfg, err := config.Load(cfgPath)
			if err != nil {
				return err
			}
			if listen == "" {
				listen = cfg.Server.Listen
			}

			fmt.Printf("Listening on %s\n", listen)
			return api.New(s, listen).Run()
		},
	}

	cmd.Flags().StringVar(&listen, "listen", "", "listen address (default from config)")
	return cmd
}

func exportCmd() *cobra.Command {
	var format, out string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export entries to CSV or JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != "csv" && format != "json" {
				return fmt.Errorf("unknown format %q (want csv or json)", format)
			}

			s, err := openStore()
			if err != nil {
				return err
			}
			defer s.Close()

			user, err := s.EnsureLocalUser()
			if err != nil {
				return err
			}
			entries, err := s.ListEntries(store.EntryFilter{UserID: &user.ID})
			if err != nil {
				return err
			}

			if out == "" {
				home, err := os.UserHomeDir()
				if err != nil {
					return err
				}
				name := fmt.Sprintf("pulse-export-%s.%s", time.Now().Format("2006-01-02"), format)
				out = filepath.Join(home, name)
			}

			if format == "csv" {
				err = export.ToCSV(entries, out)
			} else {
				err = export.ToJSON(entries, out)
			}
			if err != nil {
				return err
			}

			fmt.Printf("Exported %d entries to %s\n", len(entries), out)
			return nil
		},
	}

	cmd.Flags().StringVar(&format, "format", "csv", "export format (csv or json)")
	cmd.Flags().StringVar(&out, "out", "", "output path (default ~/pulse-export-DATE.EXT)")
	return cmd
}

func userCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage users",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "new",
		Short: "Create a user and print its secret key",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openStore()
			if err != nil {
				return err
			}
			defer s.Close()

			u, err := s.CreateUser()
			if err != nil {
				return err
			}
			fmt.Printf("Created user %d\n", u.ID)
			fmt.Printf("Secret key: %s\n", u.SecretKey)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List users",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openStore()
			if err != nil {
				return err
			}
			defer s.Close()

			users, err := s.ListUsers()
			if err != nil {
				return err
			}
			if len(users) == 0 {
				fmt.Println("No users yet")
				return nil
			}
			for _, u := range users {
				fmt.Printf("%4d  %s  created %s\n", u.ID, u.SecretKey, u.CreatedAt.Local().Format("2006-01-02 15:04"))
			}
			return nil
		},
	})

	return cmd
}
