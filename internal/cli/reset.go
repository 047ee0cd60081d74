package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/driftwatch/driftwatch/internal/config"
)

// Execute implements the go-flags Commander interface for ResetCommand.
func (c *ResetCommand) Execute(args []string) error {
	if !c.All {
		return fmt.Errorf("reset requires --all flag for safety")
	}

	// Confirmation prompt unless --force
	if !c.Force {
		fmt.Println("⚠ WARNING: This will permanently delete ALL DriftWatch data.")
		fmt.Println("  - All page visit history")
		fmt.Println("  - All daily statistics")
		fmt.Println("  - All cached classifications")
		fmt.Println()
		fmt.Println("This action cannot be undone.")
		fmt.Println()
		fmt.Print(`Type "RESET" to confirm: `)

		scanner := bufio.NewScanner(os.Stdin)
		if !scanner.Scan() {
			return fmt.Errorf("aborted: no input received")
		}
		input := strings.TrimSpace(scanner.Text())
		if input != "RESET" {
			return fmt.Errorf("aborted: confirmation text did not match")
		}
	}

	cfg, err := loadConfig(c.globals)
	if err != nil {
		return err
	}

	// A running daemon holds in-memory session state; resetting through
	// it keeps that state consistent with the database.
	via := "database"
	if resetViaDaemon(cfg) {
		via = "daemon"
	} else {
		store, db, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer db.Close()
		defer store.Close()

		if err := store.Reset(context.Background()); err != nil {
			return fmt.Errorf("reset failed: %w", err)
		}
	}

	if c.globals != nil && c.globals.JSON {
		out := map[string]interface{}{
			"reset":   true,
			"via":     via,
			"message": "all data deleted",
		}
		enc := json.NewEncoder(os.Stdout)
		return enc.Encode(out)
	}

	fmt.Println("Reset all data. DriftWatch is empty.")
	return nil
}

// resetViaDaemon asks a running daemon to perform the reset. Returns false
// if no daemon is listening.
func resetViaDaemon(cfg *config.Config) bool {
	client := &http.Client{Timeout: 2 * time.Second}
	resp, err := client.Post("http://"+cfg.DaemonAddr()+"/reset", "application/json", nil)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}
