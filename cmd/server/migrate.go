package main

import (
	"context"
	"encoding/json"
	"os"
	"time"

	"ecodrive-backend/database"
	"ecodrive-backend/repository"
	"ecodrive-backend/service"

	"github.com/spf13/cobra"
)

func migrateCommand() *cobra.Command {
	var seed bool
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger(cfg.Log)
			db, err := database.Open(cfg.Database, logger)
			if err != nil {
				return err
			}
			defer func() { _ = database.Close(db) }()

			if err := database.Migrate(db); err != nil {
				return err
			}
			logger.Info("数据库迁移完成")
			if seed {
				return database.Seed(db, time.Now(), logger)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&seed, "seed", false, "insert sample data into an empty database")
	return cmd
}

func rankCommand() *cobra.Command {
	var (
		region string
		limit  int
	)
	cmd := &cobra.Command{
		Use:   "rank",
		Short: "Print the priority ranking of locations as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger(cfg.Log)
			db, err := database.Open(cfg.Database, logger)
			if err != nil {
				return err
			}
			defer func() { _ = database.Close(db) }()

			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()
			locations := service.NewLocationService(repository.NewLocationStore(db), repository.NewDriveStore(db), nil)
			ranked, err := locations.Rank(ctx, region, limit)
			if err != nil {
				return err
			}

			type row struct {
				ID               uint   `json:"id"`
				Name             string `json:"name"`
				Region           string `json:"region"`
				PriorityScore    int    `json:"priority_score"`
				Tier             string `json:"tier"`
				DaysSinceCleanup *int   `json:"days_since_cleanup"`
			}
			rows := make([]row, len(ranked))
			for i, r := range ranked {
				rows[i] = row{r.Location.ID, r.Location.Name, r.Location.Region, r.PriorityScore, string(r.Tier), r.DaysSinceCleanup}
			}
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(rows)
		},
	}
	cmd.Flags().StringVar(&region, "region", "", "only rank this region")
	cmd.Flags().IntVar(&limit, "limit", 10, "maximum number of locations")
	return cmd
}
