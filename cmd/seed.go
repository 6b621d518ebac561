/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"

	"github.com/inkwell-social/apiserver/config"
	"github.com/inkwell-social/apiserver/internal/db"
	"github.com/inkwell-social/apiserver/internal/services"
	"github.com/inkwell-social/apiserver/internal/store"
	"github.com/spf13/cobra"
)

// seedCmd upserts the canonical role table. Safe to run repeatedly.
var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Upsert the canonical roles into the database",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.LoadConfig()

		dbConn, err := db.Open(cmd.Context(), cfg)
		if err != nil {
			return fmt.Errorf("open database failed: %w", err)
		}
		defer dbConn.Close()

		users := services.NewUserService(
			store.NewUserRepository(dbConn),
			store.NewRoleRepository(dbConn),
			cfg.AdminEmail,
		)
		if err := users.SeedRoles(cmd.Context()); err != nil {
			return fmt.Errorf("seed roles failed: %w", err)
		}

		roles, err := users.Roles(cmd.Context())
		if err != nil {
			return fmt.Errorf("list roles failed: %w", err)
		}
		for _, role := range roles {
			marker := ""
			if role.Default {
				marker = " (default)"
			}
			fmt.Printf("%s\t0x%02x%s\n", role.Name, role.Permissions, marker)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(seedCmd)
}
