package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/photosearch/internal/config"
	"github.com/kailas-cloud/photosearch/internal/domain/photo"
	"github.com/kailas-cloud/photosearch/internal/domain/search/result"
	"github.com/kailas-cloud/photosearch/internal/transport/response"
	"github.com/kailas-cloud/photosearch/internal/usecase/ingest"
	"github.com/kailas-cloud/photosearch/internal/version"
)

type ingester interface {
	Ingest(ctx context.Context, up photo.Upload) (ingest.Outcome, error)
}

type searcher interface {
	Search(ctx context.Context, query string) ([]result.Result, error)
}

type services struct {
	ingest ingester
	search searcher
	logger *zap.Logger
}

type builder func(ctx context.Context, env string) (services, func(), error)

func newRootCmd(build builder) *cobra.Command {
	var env string

	root := &cobra.Command{
		Use:          "photosearchctl",
		Short:        "Operate the photo search index",
		Long:         "photosearchctl indexes single uploads and runs label queries against the photo search index.",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVarP(&env, "env", "e", config.GetEnv(), "Config environment (local, dev, prod)")

	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version info",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "photosearchctl %s (%s)\n", version.Version, version.Commit)
		},
	})

	root.AddCommand(newIngestCmd(build, &env))
	root.AddCommand(newSearchCmd(build, &env))
	return root
}

func newIngestCmd(build builder, env *string) *cobra.Command {
	var bucket, key string

	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Detect labels for one stored image and index it",
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, cleanup, err := build(cmd.Context(), *env)
			if err != nil {
				return err
			}
			defer cleanup()

			out, err := svc.ingest.Ingest(cmd.Context(), photo.Upload{
				Bucket:    bucket,
				Key:       key,
				EventTime: time.Now(),
			})
			if err != nil {
				_, body := response.IngestError(err)
				svc.logger.Error("Ingest failed", zap.Error(err))
				return fmt.Errorf("%s: %w", body.Message, err)
			}

			p := out.Photo
			return printJSON(cmd.OutOrStdout(), response.IngestResponse{
				Message:   response.MsgIndexed,
				ObjectKey: p.ObjectKey(),
				Labels:    p.Labels(),
			})
		},
	}
	cmd.Flags().StringVar(&bucket, "bucket", "", "Source bucket")
	cmd.Flags().StringVar(&key, "key", "", "Object key")
	_ = cmd.MarkFlagRequired("bucket")
	_ = cmd.MarkFlagRequired("key")
	return cmd
}

func newSearchCmd(build builder, env *string) *cobra.Command {
	return &cobra.Command{
		Use:   "search <query>",
		Short: "Find photos whose labels match the query",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, cleanup, err := build(cmd.Context(), *env)
			if err != nil {
				return err
			}
			defer cleanup()

			results, err := svc.search.Search(cmd.Context(), args[0])
			if err != nil {
				_, body := response.SearchError(err)
				return fmt.Errorf("%s: %w", body.Message, err)
			}
			return printJSON(cmd.OutOrStdout(), response.NewSearchResponse(results))
		},
	}
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
