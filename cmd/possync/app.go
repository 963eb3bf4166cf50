package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"pos-cloud-sync/internal/application"
	"pos-cloud-sync/internal/domain"
	"pos-cloud-sync/internal/identity"
	"pos-cloud-sync/internal/infrastructure/firestore"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"
)

func newApp(logger zerolog.Logger) *cli.App {
	return &cli.App{
		Name:  "possync",
		Usage: "push and pull tenant records against the cloud store",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "token", Usage: "bearer token", EnvVars: []string{"POSSYNC_TOKEN"}},
			&cli.StringFlag{Name: "project", Usage: "default project id", EnvVars: []string{"FIRESTORE_PROJECT_ID"}},
			&cli.StringFlag{Name: "base-url", Value: firestore.DefaultBaseURL, EnvVars: []string{"FIRESTORE_BASE_URL"}},
			&cli.DurationFlag{Name: "timeout", Value: firestore.DefaultTimeout, EnvVars: []string{"FIRESTORE_TIMEOUT"}},
			&cli.IntFlag{Name: "max-depth", Value: firestore.DefaultMaxDepth, EnvVars: []string{"CODEC_MAX_DEPTH"}},
			&cli.StringFlag{Name: "default-audience", EnvVars: []string{"IDENTITY_DEFAULT_AUDIENCE"}},
			&cli.BoolFlag{Name: "verbose", Aliases: []string{"v"}},
		},
		Before: func(c *cli.Context) error {
			_ = godotenv.Load()
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:      "push",
				Usage:     "upsert one JSON record read from --file or stdin",
				ArgsUsage: "<collection>",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "file", Aliases: []string{"f"}, Usage: "JSON file, - for stdin", Value: "-"},
				},
				Action: func(c *cli.Context) error {
					collection, err := collectionArg(c)
					if err != nil {
						return err
					}
					rec, err := readRecord(c.String("file"), c.App.Reader)
					if err != nil {
						return err
					}
					svc, id := syncService(c, logger)
					result, err := svc.Push(c.Context, id, collection, rec)
					if err != nil {
						return err
					}
					return writeOutput(c.App.Writer, result)
				},
			},
			{
				Name:      "pull",
				Usage:     "print records changed after --since",
				ArgsUsage: "<collection>",
				Flags: []cli.Flag{
					&cli.Int64Flag{Name: "since", Usage: "epoch milliseconds"},
				},
				Action: func(c *cli.Context) error {
					collection, err := collectionArg(c)
					if err != nil {
						return err
					}
					var since *int64
					if c.IsSet("since") {
						v := c.Int64("since")
						since = &v
					}
					svc, id := syncService(c, logger)
					records, err := svc.Pull(c.Context, id, collection, since)
					if err != nil {
						return err
					}
					return writeOutput(c.App.Writer, records)
				},
			},
			{
				Name:  "whoami",
				Usage: "print the identity derived from the token",
				Action: func(c *cli.Context) error {
					id := resolveIdentity(c)
					return writeOutput(c.App.Writer, map[string]any{
						"tenant_id":   id.TenantID,
						"project_id":  id.ProjectID,
						"established": id.Established(),
					})
				},
			},
		},
	}
}

func resolveIdentity(c *cli.Context) domain.Identity {
	base := domain.Identity{ProjectID: c.String("project")}
	token := c.String("token")
	if token == "" {
		return base
	}
	return identity.NewResolver(c.String("default-audience")).WithToken(base, token)
}

func syncService(c *cli.Context, logger zerolog.Logger) (*application.SyncService, domain.Identity) {
	if !c.Bool("verbose") {
		logger = logger.Level(zerolog.WarnLevel)
	}
	client := firestore.NewClient(firestore.Options{
		BaseURL:   c.String("base-url"),
		ProjectID: c.String("project"),
		Timeout:   c.Duration("timeout"),
		MaxDepth:  c.Int("max-depth"),
	}, logger)
	return application.NewSyncService(client, nil, logger), resolveIdentity(c)
}

func collectionArg(c *cli.Context) (string, error) {
	collection := strings.TrimSpace(c.Args().First())
	if collection == "" {
		return "", fmt.Errorf("collection argument is required")
	}
	return collection, nil
}

func readRecord(path string, stdin io.Reader) (domain.Record, error) {
	var r io.Reader = stdin
	if path != "" && path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open record file: %w", err)
		}
		defer f.Close()
		r = f
	}

	decoder := json.NewDecoder(r)
	decoder.UseNumber()
	var rec domain.Record
	if err := decoder.Decode(&rec); err != nil || rec == nil {
		return nil, fmt.Errorf("record must be a JSON object")
	}
	return rec, nil
}

func writeOutput(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
