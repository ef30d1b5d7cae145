package app

import (
	"context"
	"fmt"
	"log"

	"latexify/internal/export"
	"latexify/internal/extract"
	"latexify/internal/gateway/config"
	"latexify/internal/llm"
	"latexify/internal/templatestore"
	"latexify/internal/view"
)

// Deps builds the collaborators every view shares. The exporter is returned
// alongside so callers can report where exports go.
func Deps(ctx context.Context, cfg *config.Config) (view.Deps, *export.Exporter, error) {
	lister, err := newLister(cfg)
	if err != nil {
		return view.Deps{}, nil, err
	}
	gen, err := llm.NewGeminiClient(ctx, cfg.LLM.APIKey, cfg.LLM.Model)
	if err != nil {
		return view.Deps{}, nil, fmt.Errorf("failed to init generator: %w", err)
	}
	log.Printf("app: generator %s", gen.Name())

	exporter := export.New(cfg.Export.FileName)
	return view.Deps{
		Templates: lister,
		Fetcher:   templatestore.NewHTTPFetcher(nil),
		Extractor: extract.New(),
		Generator: gen,
		Exporter:  exporter,
	}, exporter, nil
}

func newLister(cfg *config.Config) (templatestore.Lister, error) {
	tc := cfg.Template
	if !tc.S3Ready() {
		if !cfg.IsLocal() {
			return nil, fmt.Errorf("template store: TEMPLATE_S3_ENDPOINT and credentials are required outside local env")
		}
		log.Printf("app: template store: directory %s", tc.LocalDir)
		return templatestore.NewDirStore(tc.LocalDir), nil
	}
	store, err := templatestore.NewS3Store(templatestore.S3Config{
		Endpoint:  tc.Endpoint,
		Region:    tc.Region,
		AccessKey: tc.AccessKey,
		SecretKey: tc.SecretKey,
		Bucket:    tc.Bucket,
		Prefix:    tc.Prefix,
		UseSSL:    tc.UseSSL,
		URLExpiry: tc.URLExpiry,
	})
	if err != nil {
		return nil, fmt.Errorf("template store: %w", err)
	}
	log.Printf("app: template store: s3 %s/%s", tc.Bucket, tc.Prefix)
	return store, nil
}
