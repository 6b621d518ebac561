/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/inkwell-social/apiserver/config"
	"github.com/inkwell-social/apiserver/internal/mailer"
	"github.com/inkwell-social/apiserver/internal/mq"
	"github.com/spf13/cobra"
)

// mailworkerCmd consumes queued mail jobs and delivers them over SMTP.
var mailworkerCmd = &cobra.Command{
	Use:   "mailworker",
	Short: "Runs the outbound mail delivery worker",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.LoadConfig()

		queue, err := mq.NewFromConfig(cmd.Context(), cfg.MQ)
		if err != nil {
			return fmt.Errorf("connect broker failed: %w", err)
		}
		defer queue.Close()

		worker := mailer.NewWorker(queue, cfg.Mail, mailer.NewSMTPSender(cfg.Mail))
		if err := worker.Run(cmd.Context()); err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("mail worker stopped: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(mailworkerCmd)
}
