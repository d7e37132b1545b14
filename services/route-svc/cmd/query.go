package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"routefinder/pkg/apperror"
	"routefinder/pkg/client"
	"routefinder/services/route-svc/internal/matrixio"
)

type queryOptions struct {
	matrixPath string
	source     int
	maxLength  int64
	stats      bool
}

func newQueryCmd() *cobra.Command {
	opts := &queryOptions{}
	defaults := client.DefaultClientConfig()

	cmd := &cobra.Command{
		Use:   "query",
		Short: "Find routes on a running server",
		Long: "Reads a matrix file, sends it to route-svc and prints the routes.\n" +
			"Vertices are numbered from 1, the same as in the console.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var maxLength *int64
			if cmd.Flags().Changed("max") {
				maxLength = &opts.maxLength
			}
			return runQuery(cmd, opts, maxLength)
		},
	}

	flags := cmd.Flags()
	flags.String("addr", defaults.Address, "route-svc gRPC address")
	flags.StringVarP(&opts.matrixPath, "matrix", "m", "", "matrix file")
	flags.IntVarP(&opts.source, "source", "s", 1, "first vertex, from 1 to n")
	flags.Int64Var(&opts.maxLength, "max", 0, "maximal route length (server default when omitted)")
	flags.Duration("timeout", defaults.Timeout, "per-call timeout (default from retry.timeout)")
	flags.Int("retries", defaults.MaxRetries, "retries on transient errors (default from retry.max_attempts)")
	flags.BoolVar(&opts.stats, "stats", false, "print matrix statistics too")
	_ = cmd.MarkFlagRequired("matrix")

	return cmd
}

// clientConfig берёт секцию retry из конфигурации, явные флаги важнее
func clientConfig(cmd *cobra.Command) client.ClientConfig {
	flags := cmd.Flags()
	addr, _ := flags.GetString("addr")

	cc := client.DefaultClientConfig()
	if cfg, err := loadConfig(); err == nil {
		cc = client.FromRetryConfig(addr, cfg.Retry)
	}
	cc.Address = addr

	if flags.Changed("timeout") {
		cc.Timeout, _ = flags.GetDuration("timeout")
	}
	if flags.Changed("retries") {
		cc.MaxRetries, _ = flags.GetInt("retries")
	}
	return cc
}

func runQuery(cmd *cobra.Command, opts *queryOptions, maxLength *int64) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	m, err := matrixio.ReadFile(opts.matrixPath)
	if err != nil {
		return err
	}
	if opts.source < 1 || opts.source > m.Size() {
		return apperror.OutOfRangeVertex(opts.source, 1, m.Size())
	}

	c, err := client.NewRouteClient(ctx, clientConfig(cmd))
	if err != nil {
		return err
	}
	defer c.Close()

	resp, err := c.FindRoutes(ctx, m, opts.source-1, maxLength)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Algorithm: %s\n", resp.Algorithm)
	fmt.Fprint(out, matrixio.FormatRoutes(resp.Routes))

	if opts.stats {
		s := resp.Stats
		fmt.Fprintf(out, "Vertices: %d, edges: %d, negative: %d, self-loops: %d, density: %.3f, symmetric: %t\n",
			s.VertexCount, s.EdgeCount, s.NegativeCount, s.SelfLoopCount, s.Density, s.IsSymmetric)
	}
	return nil
}
