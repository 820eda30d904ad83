package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Skotchmaster/storefront/internal/db"
	"github.com/Skotchmaster/storefront/internal/mykafka"
	"github.com/Skotchmaster/storefront/internal/repo"
	"github.com/Skotchmaster/storefront/internal/service"
)

var adminUsername, adminPassword string

var createAdminCmd = &cobra.Command{
	Use:   "create-admin",
	Short: "Create an administrator account",
	Long: `Creates a user with admin rights. Usage:

	storefront create-admin --username ops --password secret
`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		gdb, err := openDB(cmd)
		if err != nil {
			return err
		}
		defer db.Close(gdb)

		svc := &service.AuthService{Repo: &repo.GormRepo{DB: gdb}, Producer: mykafka.NopPublisher{}}
		user, err := svc.CreateAdmin(baseContext(cmd), adminUsername, adminPassword)
		if errors.Is(err, service.ErrConflict) {
			return fmt.Errorf("username %q is already taken", adminUsername)
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "created admin %s (id %d)\n", user.Username, user.ID)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(createAdminCmd)
	createAdminCmd.Flags().StringVar(&adminUsername, "username", "", "admin username")
	createAdminCmd.Flags().StringVar(&adminPassword, "password", "", "admin password")
	_ = createAdminCmd.MarkFlagRequired("username")
	_ = createAdminCmd.MarkFlagRequired("password")
}
