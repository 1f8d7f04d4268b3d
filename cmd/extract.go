package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"text/tabwriter"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/slackito/zip/pkg/reader"
	"github.com/slackito/zip/pkg/source"
)

func run(cmd *cobra.Command, args []string) error {
	if len(args) < 1 || len(args) > 3 {
		cmd.Usage()
		os.Exit(1)
	}

	limit := int64(-1)
	if len(args) == 3 {
		n, err := strconv.ParseInt(args[2], 10, 64)
		if err != nil || n < 0 {
			log.Errorf("error: LENGTH must be a non-negative integer, got %q", args[2])
			cmd.Usage()
			os.Exit(1)
		}
		limit = n
	}

	src, err := source.Open(cmd.Context(), args[0])
	if err != nil {
		log.Errorf("error opening archive (location: %s), err: %v", args[0], err)
		return err
	}
	defer func() {
		if err := src.Close(); err != nil {
			log.Errorf("error closing archive (location: %s), err: %v", args[0], err)
		}
	}()

	z, err := reader.NewReader(src)
	if err != nil {
		log.Errorf("error reading archive structure (location: %s), err: %v", args[0], err)
		return err
	}

	if len(args) == 1 {
		return list(z)
	}
	return extract(z, args[1], limit)
}

// list prints one line per entry: name, modification time, compressed and
// uncompressed sizes.
func list(z *reader.Reader) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	it := z.Files()
	for it.Next() {
		fi := it.Info()
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\n", fi.Name, fi.Modified, fi.CompressedSize, fi.UncompressedSize)
	}
	if err := it.Err(); err != nil {
		log.Errorf("error listing archive entries, err: %v", err)
		return err
	}
	return w.Flush()
}

// extract writes one entry into a local file. A negative limit means the
// whole entry; otherwise only the first limit bytes are written, unverified.
func extract(z *reader.Reader, name string, limit int64) error {
	fi, err := z.Info(name)
	if err != nil {
		log.Errorf("error locating entry (name: %s), err: %v", name, err)
		return err
	}

	dest := outFile
	if dest == "" {
		dest = filepath.Base(fi.Name.String())
	}
	f, err := os.Create(dest)
	if err != nil {
		log.Errorf("error creating file (name: %s), err: %v", dest, err)
		return err
	}
	defer func() {
		if err := f.Close(); err != nil {
			log.Errorf("error closing file (name: %s), err: %v", dest, err)
		}
	}()

	if limit >= 0 {
		err = z.ExtractFirst(fi, limit, f)
	} else {
		err = z.Extract(fi, f)
	}
	if err != nil {
		log.Errorf("error extracting entry (name: %s), err: %v", name, err)
		return err
	}
	return nil
}
