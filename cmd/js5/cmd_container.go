package main

import (
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/skyline93/js5/internal/container"
	"github.com/skyline93/js5/internal/errors"
	"github.com/skyline93/js5/internal/js5"
	"github.com/spf13/cobra"
)

var cmdWrite = &cobra.Command{
	Use:   "write ARCHIVE CONTAINER [FILE]",
	Short: "Store a container",
	Long: `
The "write" command stores the contents of FILE, or of stdin when FILE is
omitted, as a container. ARCHIVE is an archive id or "meta". Writing to the
archive following the last one creates it.

With --compression the data is wrapped in a container envelope first.

EXIT STATUS
===========

Exit status is 0 if the command was successful, and non-zero if there was any error.
`,
	Args:              cobra.RangeArgs(2, 3),
	DisableAutoGenTag: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWrite(cmd.Context(), cmd, writeOptions, args)
	},
}

var cmdRead = &cobra.Command{
	Use:   "read ARCHIVE CONTAINER",
	Short: "Print a container",
	Long: `
The "read" command writes the contents of a container to stdout, or to the
file given with --output. With --decode the container envelope is removed and
the uncompressed data is written instead.

EXIT STATUS
===========

Exit status is 0 if the command was successful, and non-zero if there was any error.
`,
	Args:              cobra.ExactArgs(2),
	DisableAutoGenTag: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runRead(cmd.Context(), cmd, readOptions, args)
	},
}

var cmdStat = &cobra.Command{
	Use:   "stat ARCHIVE CONTAINER",
	Short: "Show how a container is stored",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runStat(cmd.Context(), cmd, args)
	},
}

// WriteOptions bundles all options for the write command.
type WriteOptions struct {
	Compression string
	Version     int
}

// ReadOptions bundles all options for the read command.
type ReadOptions struct {
	Output string
	Decode bool
}

var (
	writeOptions WriteOptions
	readOptions  ReadOptions
)

func init() {
	cmdRoot.AddCommand(cmdWrite, cmdRead, cmdStat)

	f := cmdWrite.Flags()
	f.StringVar(&writeOptions.Compression, "compression", "", "wrap the data in an envelope compressed with `type` (none, bzip2, gzip)")
	f.IntVar(&writeOptions.Version, "version", -1, "append `n` as the envelope version trailer")

	f = cmdRead.Flags()
	f.StringVarP(&readOptions.Output, "output", "o", "", "write the container to `file`")
	f.BoolVar(&readOptions.Decode, "decode", false, "remove the container envelope")
}

func parseHandle(archive, c string) (js5.Handle, error) {
	a, err := js5.ParseArchiveID(archive)
	if err != nil {
		return js5.Handle{}, err
	}
	id, err := strconv.ParseUint(c, 10, 32)
	if err != nil {
		return js5.Handle{}, errors.Wrapf(err, "invalid container id %q", c)
	}
	return js5.Handle{Archive: a, Container: js5.ContainerID(id)}, nil
}

func runWrite(ctx context.Context, cmd *cobra.Command, opts WriteOptions, args []string) error {
	h, err := parseHandle(args[0], args[1])
	if err != nil {
		return err
	}

	var data []byte
	if len(args) == 3 {
		data, err = os.ReadFile(args[2])
	} else {
		data, err = io.ReadAll(cmd.InOrStdin())
	}
	if err != nil {
		return errors.WithStack(err)
	}

	if opts.Compression != "" {
		comp, err := container.ParseCompression(opts.Compression)
		if err != nil {
			return err
		}
		c := container.Container{Compression: comp, Data: data}
		if opts.Version >= 0 {
			if opts.Version > 0xFFFF {
				return errors.Errorf("version %d does not fit in two bytes", opts.Version)
			}
			c.Version, c.HasVersion = uint16(opts.Version), true
		}
		if data, err = container.Encode(c); err != nil {
			return err
		}
	}

	fsys, err := openCache(ctx)
	if err != nil {
		return err
	}
	defer fsys.Close()

	if err := fsys.Write(h.Archive, h.Container, data); err != nil {
		return err
	}
	return fsys.Close()
}

func runRead(ctx context.Context, cmd *cobra.Command, opts ReadOptions, args []string) error {
	h, err := parseHandle(args[0], args[1])
	if err != nil {
		return err
	}

	fsys, err := openCache(ctx)
	if err != nil {
		return err
	}
	defer fsys.Close()

	data, err := fsys.Read(h.Archive, h.Container)
	if err != nil {
		return err
	}

	if opts.Decode {
		c, err := container.Decode(data)
		if err != nil {
			return err
		}
		data = c.Data
	}

	if opts.Output != "" {
		return errors.WithStack(os.WriteFile(opts.Output, data, 0644))
	}
	_, err = cmd.OutOrStdout().Write(data)
	return errors.WithStack(err)
}

func runStat(ctx context.Context, cmd *cobra.Command, args []string) error {
	h, err := parseHandle(args[0], args[1])
	if err != nil {
		return err
	}

	fsys, err := openCache(ctx)
	if err != nil {
		return err
	}
	defer fsys.Close()

	st, err := fsys.Stat(h.Archive, h.Container)
	if err != nil {
		return err
	}

	sectors := make([]string, len(st.Sectors))
	for i, n := range st.Sectors {
		sectors[i] = strconv.FormatUint(uint64(n), 10)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "container %v\n", st.Handle)
	fmt.Fprintf(out, "  size:    %d\n", st.Record.Size)
	fmt.Fprintf(out, "  sectors: %s\n", strings.Join(sectors, " "))
	fmt.Fprintf(out, "  sha256:  %s\n", hex.EncodeToString(st.SHA256[:]))
	return nil
}
