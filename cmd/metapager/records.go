package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Alp4ka/metapager/gormstore"
)

var seedFlags struct {
	count  int
	author uint64
	status string
	start  string
	meta   []string
}

// seedCmd inserts records titled "1".."count", created one minute apart.
// Every --meta key=value pair is stored on each record; the value may use
// {n} for the record's ordinal.
var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Insert sample records",
	RunE: func(cmd *cobra.Command, _ []string) error {
		start := time.Now().UTC().Truncate(time.Second)
		if seedFlags.start != "" {
			var err error
			if start, err = time.Parse(time.RFC3339, seedFlags.start); err != nil {
				return fmt.Errorf("invalid --start: %w", err)
			}
		}

		templates, err := parsePairs(seedFlags.meta)
		if err != nil {
			return err
		}

		for n := 1; n <= seedFlags.count; n++ {
			ordinal := strconv.Itoa(n)

			rec := &gormstore.Record{
				Title:     ordinal,
				Status:    seedFlags.status,
				AuthorID:  seedFlags.author,
				CreatedAt: start.Add(time.Duration(n) * time.Minute),
				Meta:      make(map[string]string, len(templates)),
			}
			for key, tmpl := range templates {
				rec.Meta[key] = strings.ReplaceAll(tmpl, "{n}", ordinal)
			}

			if err = current.store.Put(cmd.Context(), rec); err != nil {
				return err
			}
		}

		current.logger.Info("Records seeded", zap.Int("count", seedFlags.count))

		return nil
	},
}

var setMetaCmd = &cobra.Command{
	Use:   "set-meta <record-id> <key> <value>",
	Short: "Set an auxiliary attribute of a record",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseUint(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid record id '%s': %w", args[0], err)
		}

		return current.store.SetMeta(cmd.Context(), id, args[1], args[2])
	},
}

var deleteFlags struct {
	metaKey   string
	metaValue string
}

var deleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Delete records carrying an attribute value",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if deleteFlags.metaKey == "" {
			return fmt.Errorf("--meta-key is required")
		}

		removed, err := current.store.DeleteByMeta(cmd.Context(), deleteFlags.metaKey, deleteFlags.metaValue)
		if err != nil {
			return err
		}

		current.logger.Info("Records deleted", zap.Int64("count", removed))

		return nil
	},
}

func parsePairs(pairs []string) (map[string]string, error) {
	ret := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("expected key=value, got '%s'", pair)
		}

		ret[key] = value
	}

	return ret, nil
}

func init() {
	seedCmd.Flags().IntVar(&seedFlags.count, "count", 20, "number of records")
	seedCmd.Flags().Uint64Var(&seedFlags.author, "author", 1, "author id of the records")
	seedCmd.Flags().StringVar(&seedFlags.status, "status", "publish", "status of the records")
	seedCmd.Flags().StringVar(&seedFlags.start, "start", "", "RFC3339 creation time of record zero")
	seedCmd.Flags().StringArrayVar(&seedFlags.meta, "meta", nil, "attribute key={n}-template, repeatable")

	deleteCmd.Flags().StringVar(&deleteFlags.metaKey, "meta-key", "", "attribute key")
	deleteCmd.Flags().StringVar(&deleteFlags.metaValue, "meta-value", "", "attribute value")
}
