package cli

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"

	"github.com/tillpoint-pos/tillpoint/internal/domain"
	"github.com/tillpoint-pos/tillpoint/internal/infra/sqlite"
)

// ─── admin ──────────────────────────────────────────────────────────────────
// Maintenance commands that bypass the API's business rules. They run
// against the store directly and must not be exposed over HTTP.

func init() {
	rootCmd.AddCommand(adminCmd)
	adminCmd.AddCommand(adminSetBalanceCmd)
	adminCmd.AddCommand(adminResetPasswordCmd)
}

var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Maintenance commands against the local store",
}

// openStore opens the configured SQLite store for a one-shot command.
func openStore() (*sqlite.DB, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return sqlite.Open(cfg.Store.Dir)
}

// ─── admin set-balance ──────────────────────────────────────────────────────

var adminSetBalanceCmd = &cobra.Command{
	Use:   "set-balance CUSTOMER_NAME AMOUNT",
	Short: "Overwrite a credit account's balance",
	Long: `Overwrite a customer's credit balance to an exact dollar amount.
The HTTP API only moves balances through charges and payments; this is
the escape hatch for correcting data entry mistakes.`,
	Args: cobra.ExactArgs(2),
	RunE: runAdminSetBalance,
}

func runAdminSetBalance(cmd *cobra.Command, args []string) error {
	name := args[0]
	amount, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		return fmt.Errorf("invalid amount %q: %w", args[1], err)
	}
	if amount < 0 {
		return fmt.Errorf("balance cannot be negative")
	}

	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	ctx := context.Background()
	acct, err := db.GetAccountByName(ctx, name)
	if err != nil {
		return err
	}
	if acct == nil {
		return fmt.Errorf("no credit account named %q", name)
	}

	balance := domain.CentsFromDollars(amount)
	if err := db.SetBalance(ctx, name, balance); err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "Balance for %q: %s -> %s\n", name, acct.Balance, balance)
	return nil
}

// ─── admin reset-password ───────────────────────────────────────────────────

var adminResetPasswordCmd = &cobra.Command{
	Use:   "reset-password USERNAME NEW_PASSWORD",
	Short: "Reset a user's password",
	Args:  cobra.ExactArgs(2),
	RunE:  runAdminResetPassword,
}

func runAdminResetPassword(cmd *cobra.Command, args []string) error {
	username, password := args[0], args[1]

	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	ctx := context.Background()
	user, err := db.GetUserByUsername(ctx, username)
	if err != nil {
		return err
	}
	if user == nil {
		return fmt.Errorf("no user named %q", username)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	user.PasswordHash = string(hash)
	if err := db.UpdateUser(ctx, *user); err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "Password reset for %q\n", username)
	return nil
}
