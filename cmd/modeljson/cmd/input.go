package cmd

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/spf13/cobra"
	slogcontext "github.com/veqryn/slog-context"

	"ocm.software/open-component-model/bindings/go/modeljson"
	"ocm.software/open-component-model/bindings/go/modeljson/config"
	"ocm.software/open-component-model/bindings/go/modeljson/internal/flags/enum"
	"ocm.software/open-component-model/bindings/go/modeljson/model"
)

const (
	FlagSchema   = "schema"
	FlagDangling = "dangling"
	FlagStdin    = "-"
	stdinURI     = "stdin.json"
)

func registerSchemaFlag(cmd *cobra.Command) {
	cmd.Flags().StringSlice(FlagSchema, nil, `schema definition file declaring the namespaces of the document.
Can be repeated; schemas of the configuration are registered first.`)
}

func registerDanglingFlag(cmd *cobra.Command) {
	enum.Var(cmd.Flags(), FlagDangling, []string{
		modeljson.DanglingThrow.String(),
		modeljson.DanglingRecord.String(),
		modeljson.DanglingDiscard.String(),
	}, `handling of references to objects outside of any document
   throw:   fail after writing
   record:  report as document error
   discard: drop silently`)
}

// loadDocument reads the document named by path, or stdin for "-". Other
// documents it references are loaded on demand from the file system.
func loadDocument(cmd *cobra.Command, path string) (*model.Document, *config.Config, error) {
	ctx := cmd.Context()
	cfg, err := configFrom(ctx)
	if err != nil {
		return nil, nil, err
	}
	schemas, err := cmd.Flags().GetStringSlice(FlagSchema)
	if err != nil {
		return nil, nil, err
	}
	registry, err := cfg.Registry(schemas...)
	if err != nil {
		return nil, nil, fmt.Errorf("could not load schemas: %w", err)
	}

	opts := cfg.LoadOptions(registry)
	opts.UnresolvedReferenceHandler = func(err *modeljson.UnresolvedReferenceError) {
		slogcontext.FromCtx(ctx).Debug("unresolved reference", slog.String("source", err.Source), slog.String("token", err.Token))
	}
	set := model.NewDocumentSet(registry, model.WithLoader(&modeljson.FileLoader{Options: opts}))

	if path == FlagStdin {
		doc := set.Create(stdinURI)
		if err := modeljson.Load(ctx, cmd.InOrStdin(), doc, opts); err != nil {
			return nil, nil, err
		}
		return doc, cfg, nil
	}
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	doc := set.Create(filepath.ToSlash(path))
	if err := modeljson.LoadFile(ctx, doc, opts); err != nil {
		return nil, nil, err
	}
	return doc, cfg, nil
}

// saveOptions applies the flags changed on cmd to the configured save options.
func saveOptions(cmd *cobra.Command, cfg *config.Config) (*modeljson.SaveOptions, error) {
	opts := cfg.SaveOptions()
	if flag := cmd.Flags().Lookup(FlagDangling); flag != nil && flag.Changed {
		name, err := enum.Get(cmd.Flags(), FlagDangling)
		if err != nil {
			return nil, err
		}
		if opts.Dangling, err = modeljson.ParseDanglingPolicy(name); err != nil {
			return nil, err
		}
	}
	return opts, nil
}
