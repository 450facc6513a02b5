package main

import (
	"time"

	"github.com/sahilchouksey/college-admin-api/app"
	"github.com/sahilchouksey/college-admin-api/database"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the tables of both datastores",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := app.Bootstrap()
			if err != nil {
				return err
			}
			defer rt.Close()

			if err := rt.Migrate(); err != nil {
				return err
			}
			logrus.Info("migration completed")
			return nil
		},
	}
}

func seedCmd() *cobra.Command {
	var sampleData bool

	command := &cobra.Command{
		Use:   "seed",
		Short: "Seed the super admin from ADMIN_EMAIL/ADMIN_PASSWORD",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := app.Bootstrap()
			if err != nil {
				return err
			}
			defer rt.Close()

			if err := rt.Migrate(); err != nil {
				return err
			}

			seeder := database.NewSeeder(rt.Superadmin.DB())
			return seeder.SeedAll(cmd.Context(), database.SeedOptions{
				AdminEmail:    rt.Config.ADMIN_EMAIL,
				AdminPassword: rt.Config.ADMIN_PASSWORD,
				SampleData:    sampleData,
			})
		},
	}
	command.Flags().BoolVar(&sampleData, "sample-data", false, "also seed sample universities")

	return command
}

func reconcileCmd() *cobra.Command {
	var grace time.Duration

	command := &cobra.Command{
		Use:   "reconcile",
		Short: "Finish or reverse head assignments interrupted mid-way",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := app.Bootstrap()
			if err != nil {
				return err
			}
			defer rt.Close()

			if !cmd.Flags().Changed("grace") {
				grace = rt.Config.RECONCILE_GRACE_PERIOD
			}

			report, err := rt.Assignments.Reconcile(cmd.Context(), grace)
			if err != nil {
				return err
			}

			logrus.WithFields(logrus.Fields{
				"scanned":     report.Scanned,
				"completed":   report.Completed,
				"compensated": report.Compensated,
				"errored":     report.Errored,
			}).Info("reconcile pass finished")
			return nil
		},
	}
	command.Flags().DurationVar(&grace, "grace", 5*time.Minute, "only touch intents untouched for at least this long")

	return command
}
