package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"ocm.software/open-component-model/bindings/go/modeljson"
)

const (
	FlagOutput    = "output"
	FlagIndent    = "indent"
	FlagCanonical = "canonical"
	FlagEncoding  = "encoding"
)

func newFormat() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "format [flags] {file|-}",
		Short: "Load a document and write it back in normalized form",
		Long: `Load a document and write it back. References are rewritten in their
default form, namespace prefixes are reassigned and attributes are written in
class order. The result goes to stdout unless --output is given.`,
		Example: `  modeljson format --schema library.yaml --indent 2 library.json
  cat library.json | modeljson format --schema library.yaml --canonical -`,
		Args: cobra.ExactArgs(1),
		RunE: runFormat,
	}
	registerSchemaFlag(cmd)
	registerDanglingFlag(cmd)
	cmd.Flags().StringP(FlagOutput, "o", "", "file to write to instead of stdout")
	cmd.Flags().Int(FlagIndent, 0, "spaces per indentation level, 0 writes compact JSON")
	cmd.Flags().Bool(FlagCanonical, false, "write RFC 8785 canonical JSON, ignores --indent")
	cmd.Flags().String(FlagEncoding, "", "character encoding of the output, e.g. utf-16le")
	return cmd
}

func runFormat(cmd *cobra.Command, args []string) (err error) {
	doc, cfg, err := loadDocument(cmd, args[0])
	if err != nil {
		return err
	}
	if errs := doc.Errors(); len(errs) > 0 {
		return fmt.Errorf("document %s has %d errors, run validate for details: %w", doc.URI(), len(errs), errs[0])
	}

	opts, err := saveOptions(cmd, cfg)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed(FlagIndent) {
		if opts.Indent, err = cmd.Flags().GetInt(FlagIndent); err != nil {
			return err
		}
	}
	if cmd.Flags().Changed(FlagCanonical) {
		if opts.Canonical, err = cmd.Flags().GetBool(FlagCanonical); err != nil {
			return err
		}
	}
	if cmd.Flags().Changed(FlagEncoding) {
		if opts.Encoding, err = cmd.Flags().GetString(FlagEncoding); err != nil {
			return err
		}
	}

	out := cmd.OutOrStdout()
	path, err := cmd.Flags().GetString(FlagOutput)
	if err != nil {
		return err
	}
	if path != "" {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("could not create output file: %w", err)
		}
		defer func() {
			err = errors.Join(err, f.Close())
		}()
		out = f
	}

	if err := modeljson.Save(cmd.Context(), out, doc, opts); err != nil {
		return err
	}
	if path == "" && !opts.Canonical && opts.Indent > 0 {
		_, err = io.WriteString(out, "\n")
	}
	return err
}
