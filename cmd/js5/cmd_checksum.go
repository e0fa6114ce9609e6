package main

import (
	"context"
	"fmt"
	"os"

	"github.com/skyline93/js5/internal/checksum"
	"github.com/skyline93/js5/internal/crypto"
	"github.com/skyline93/js5/internal/errors"
	"github.com/spf13/cobra"
)

var cmdChecksum = &cobra.Command{
	Use:   "checksum",
	Short: "Build and verify checksum tables",
}

var cmdChecksumEncode = &cobra.Command{
	Use:   "encode FILE",
	Short: "Write the checksum table of the cache",
	Long: `
The "checksum encode" command computes the checksum table of every archive in
the cache and writes it to FILE, or to stdout when FILE is "-".

Without flags the compact form is written. --whirlpool adds the whirlpool
digests of the archives and of the table itself; adding --modulus/--exponent
signs the table digest with the given RSA key.

EXIT STATUS
===========

Exit status is 0 if the command was successful, and non-zero if there was any error.
`,
	Args:              cobra.ExactArgs(1),
	DisableAutoGenTag: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runChecksumEncode(cmd.Context(), cmd, checksumOptions, args[0])
	},
}

var cmdChecksumVerify = &cobra.Command{
	Use:   "verify FILE",
	Short: "Verify a checksum table against the cache",
	Long: `
The "checksum verify" command decodes the checksum table in FILE, checking
its digest, and compares it with the table computed from the cache. Use the
same format flags as for "checksum encode", with the public key for signed
tables.

EXIT STATUS
===========

Exit status is 0 if the table matches the cache, and non-zero otherwise.
`,
	Args:              cobra.ExactArgs(1),
	DisableAutoGenTag: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runChecksumVerify(cmd.Context(), cmd, checksumOptions, args[0])
	},
}

// ChecksumOptions bundles all options for the checksum commands.
type ChecksumOptions struct {
	Whirlpool bool
	Modulus   string
	Exponent  string
}

var checksumOptions ChecksumOptions

func init() {
	cmdRoot.AddCommand(cmdChecksum)
	cmdChecksum.AddCommand(cmdChecksumEncode, cmdChecksumVerify)

	f := cmdChecksum.PersistentFlags()
	f.BoolVar(&checksumOptions.Whirlpool, "whirlpool", false, "use the extended form with whirlpool digests")
	f.StringVar(&checksumOptions.Modulus, "modulus", "", "RSA `modulus` of the table signature (decimal, or hex with 0x)")
	f.StringVar(&checksumOptions.Exponent, "exponent", "", "RSA `exponent` of the table signature")
}

func (opts ChecksumOptions) mode() (checksum.Mode, error) {
	signed := opts.Modulus != "" || opts.Exponent != ""
	switch {
	case signed && !opts.Whirlpool:
		return nil, errors.Fatal("--modulus and --exponent sign the whirlpool digest and require --whirlpool")
	case !signed && opts.Whirlpool:
		return checksum.Whirlpool{}, nil
	case !signed:
		return checksum.Plain{}, nil
	}

	key, err := crypto.ParseKey(opts.Modulus, opts.Exponent)
	if err != nil {
		return nil, err
	}
	return checksum.Signed{Key: key}, nil
}

func runChecksumEncode(ctx context.Context, cmd *cobra.Command, opts ChecksumOptions, name string) error {
	mode, err := opts.mode()
	if err != nil {
		return err
	}

	fsys, err := openCache(ctx)
	if err != nil {
		return err
	}
	defer fsys.Close()

	table, err := fsys.Checksums(ctx)
	if err != nil {
		return err
	}

	buf, err := checksum.Encode(table, mode)
	if err != nil {
		return err
	}

	if name == "-" {
		_, err = cmd.OutOrStdout().Write(buf)
		return errors.WithStack(err)
	}
	return errors.WithStack(os.WriteFile(name, buf, 0644))
}

func runChecksumVerify(ctx context.Context, cmd *cobra.Command, opts ChecksumOptions, name string) error {
	mode, err := opts.mode()
	if err != nil {
		return err
	}

	buf, err := os.ReadFile(name)
	if err != nil {
		return errors.WithStack(err)
	}

	want, err := checksum.Decode(buf, mode)
	if err != nil {
		return err
	}

	fsys, err := openCache(ctx)
	if err != nil {
		return err
	}
	defer fsys.Close()

	have, err := fsys.Checksums(ctx)
	if err != nil {
		return err
	}
	if _, ok := mode.(checksum.Plain); ok {
		have = compactTable(have)
	}

	if !want.Equal(have) {
		return errors.Fatalf("checksum table %v does not match the cache", name)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%d archives verified\n", len(have.Archives))
	return nil
}

func compactTable(cs checksum.CacheChecksum) checksum.CacheChecksum {
	out := checksum.CacheChecksum{Archives: make([]checksum.DictionaryChecksum, len(cs.Archives))}
	for i, entry := range cs.Archives {
		out.Archives[i] = entry.Compact()
	}
	return out
}
