package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"

	"github.com/tillpoint-pos/tillpoint/internal/domain"
)

// ─── seed ───────────────────────────────────────────────────────────────────

func init() {
	rootCmd.AddCommand(seedCmd)
	seedCmd.Flags().String("admin-user", "admin", "Username for the initial admin")
	seedCmd.Flags().String("admin-password", "", "Password for the initial admin (required)")
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Initialize the store with an admin user",
	Long: `Create the initial admin user in a fresh store. Running against a
store that already has the user is an error; use
'tillpoint admin reset-password' instead.`,
	RunE: runSeed,
}

func runSeed(cmd *cobra.Command, args []string) error {
	username, _ := cmd.Flags().GetString("admin-user")
	password, _ := cmd.Flags().GetString("admin-password")
	if password == "" {
		return fmt.Errorf("--admin-password is required")
	}

	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	user, err := db.CreateUser(context.Background(), domain.User{
		Username:     username,
		PasswordHash: string(hash),
		Role:         "admin",
		Permissions:  domain.RolePermissions("admin"),
		IsActive:     true,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "Created admin user %q (id %d)\n", user.Username, user.ID)
	return nil
}
