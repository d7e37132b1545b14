package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"routefinder/pkg/audit"
	"routefinder/pkg/logger"
	"routefinder/services/route-svc/internal/console"
	"routefinder/services/route-svc/internal/matrixio"
	"routefinder/services/route-svc/internal/service"
)

const consoleUsage = "[Utility format]: route-svc console input.txt output.txt error.txt"

func newConsoleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "console <input> <output> <errors>",
		Short: "Interactive menu over a matrix file",
		Args: func(_ *cobra.Command, args []string) error {
			if len(args) != 3 {
				return errors.New(consoleUsage)
			}
			return nil
		},
		RunE: runConsole,
	}
}

func runConsole(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	// stdout занят меню: логи только в файл
	output := "discard"
	if cfg.Log.Output == "file" {
		output = "file"
	}
	initLogger(cfg, output)

	auditCfg := auditConfig(cfg)
	if auditCfg.Backend == "stdout" || auditCfg.Backend == "" {
		auditCfg.Backend = "noop"
	}
	auditDB, closeDB, err := openAuditDB(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeDB()

	auditLogger, err := audit.New(auditCfg, audit.WithDB(auditDB))
	if err != nil {
		return fmt.Errorf("failed to create audit logger: %w", err)
	}
	audit.SetGlobal(auditLogger)
	defer auditLogger.Close()

	errLog := logger.NewErrorLog(logger.ErrorLogConfig{
		Path:         args[2],
		FallbackPath: cfg.ErrorLog.FallbackPath,
		MaxSize:      cfg.ErrorLog.MaxSize,
		MaxBackups:   cfg.ErrorLog.MaxBackups,
	})
	defer errLog.Close()

	format, err := matrixio.ParseFormat(cfg.Routing.ExportFormat)
	if err != nil {
		format = matrixio.FormatText
	}

	session := console.NewSession(console.Config{
		InputPath:    args[0],
		OutputPath:   args[1],
		ExportFormat: format,
	}, service.NewRouteService(cfg.Routing, service.WithServiceName(cfg.App.Name)), errLog,
		cmd.InOrStdin(), cmd.OutOrStdout())

	return session.Run(ctx)
}
