// Command importer applies a batch import file to a remote record API. It runs
// the same reconciliation as the server and writes the changed students back
// in one batch.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/bbsmart-api/internal/dto"
	"github.com/noah-isme/bbsmart-api/internal/models"
	"github.com/noah-isme/bbsmart-api/internal/recordclient"
	"github.com/noah-isme/bbsmart-api/internal/service"
	"github.com/noah-isme/bbsmart-api/pkg/config"
	"github.com/noah-isme/bbsmart-api/pkg/logger"
	"github.com/noah-isme/bbsmart-api/pkg/retry"
)

const serviceTokenTTL = 15 * time.Minute

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	var (
		kind     = flag.String("kind", "", "import kind: STUDENT, GRADE, ACTIVITY or ADVISOR")
		file     = flag.String("file", "", "JSON file holding an array of records (or {\"records\": [...]})")
		baseURL  = flag.String("base-url", cfg.RecordAPI.BaseURL, "record API base URL")
		token    = flag.String("token", cfg.RecordAPI.Token, "bearer token for the record API")
		semester = flag.String("semester", "", "active semester override, e.g. 1/2567")
		dryRun   = flag.Bool("dry-run", false, "reconcile and report without writing")
	)
	flag.Parse()
	if *kind == "" || *file == "" {
		flag.Usage()
		os.Exit(2)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	raw, err := os.ReadFile(*file)
	if err != nil {
		logr.Fatal("read import file", zap.String("file", *file), zap.Error(err))
	}
	recordsIn, err := parseRecords(raw)
	if err != nil {
		logr.Fatal("parse import file", zap.String("file", *file), zap.Error(err))
	}

	if *token == "" {
		// mint a short-lived service token from the shared secret
		auth := service.NewAuthService(service.AuthConfig{Secret: cfg.JWT.Secret, Issuer: cfg.JWT.Issuer, Audience: cfg.JWT.Audience}, logr)
		*token, _, err = auth.IssueToken("importer", models.RoleRegistrar, "Batch importer", serviceTokenTTL)
		if err != nil {
			logr.Fatal("issue service token", zap.Error(err))
		}
	}

	client := recordclient.New(recordclient.Config{
		BaseURL: *baseURL,
		Token:   *token,
		Timeout: cfg.RecordAPI.Timeout,
		Logger:  logr,
	})

	policy := retry.DefaultPolicy()
	policy.Attempts = cfg.Imports.RetryAttempts
	policy.Delay = cfg.Imports.RetryDelay

	records := service.NewRecordService(client, nil, nil, nil, logr, 0)
	settings := service.NewSettingsService(records, cfg.Imports.DefaultSemester, logr)
	imports := service.NewImportService(client, settings, nil, nil, nil, logr, service.ImportConfig{
		MaxBatchSize:    cfg.Imports.MaxBatchSize,
		DefaultSemester: cfg.Imports.DefaultSemester,
		Retry:           policy,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	actor := &models.JWTClaims{UserID: "importer", Role: models.RoleRegistrar}
	req := dto.ImportRequest{Records: recordsIn, ActiveSemester: *semester}
	run := imports.Import
	if *dryRun {
		run = imports.Preview
	}
	result, err := run(ctx, actor, *kind, req)
	if err != nil {
		logr.Fatal("import failed", zap.String("kind", *kind), zap.Error(err))
	}

	printSummary(result)
}

func parseRecords(raw []byte) ([]json.RawMessage, error) {
	var list []json.RawMessage
	if err := json.Unmarshal(raw, &list); err == nil {
		return list, nil
	}
	var wrapped dto.ImportRequest
	if err := json.Unmarshal(raw, &wrapped); err != nil {
		return nil, fmt.Errorf("expected a JSON array or an object with records: %w", err)
	}
	if wrapped.Records == nil {
		return nil, fmt.Errorf("no records found")
	}
	return wrapped.Records, nil
}

func printSummary(result *dto.ImportResult) {
	mode := "applied"
	if result.DryRun {
		mode = "dry run"
	}
	fmt.Printf("%s import (%s), active semester %s\n", result.Kind, mode, result.ActiveSemester)
	fmt.Printf("  updated: %d\n", result.UpdatedCount)
	for _, id := range result.UpdatedIDs {
		fmt.Printf("    %s\n", id)
	}
	fmt.Printf("  skipped: %d\n", len(result.Skipped))
	for _, skip := range result.Skipped {
		fmt.Printf("    #%d %s (%s)\n", skip.Index, skip.StudentID, skip.Reason)
	}
}
