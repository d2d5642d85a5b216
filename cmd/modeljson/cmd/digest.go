package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"ocm.software/open-component-model/bindings/go/modeljson"
)

func newDigest() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "digest [flags] {file|-}",
		Short: "Print the sha256 digest of the canonical form of a document",
		Long: `Print the digest of the canonical serialization of a document. Documents
that differ only in formatting, key order or namespace prefixes of equal
namespaces have the same digest.`,
		Args: cobra.ExactArgs(1),
		RunE: runDigest,
	}
	registerSchemaFlag(cmd)
	registerDanglingFlag(cmd)
	return cmd
}

func runDigest(cmd *cobra.Command, args []string) error {
	doc, cfg, err := loadDocument(cmd, args[0])
	if err != nil {
		return err
	}
	opts, err := saveOptions(cmd, cfg)
	if err != nil {
		return err
	}
	dgst, err := modeljson.Digest(cmd.Context(), doc, opts)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), dgst.String())
	return err
}
