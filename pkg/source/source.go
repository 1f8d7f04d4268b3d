// Package source resolves archive locations into the seekable byte sources
// the reader needs. Local paths are opened directly; s3:// and http(s)://
// locations become random-access views served by ranged requests, so only
// the archive structure and the requested entries are ever transferred.
package source

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"

	bufra "github.com/avvmoto/buf-readerat"
	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/snabb/httpreaderat"

	"github.com/slackito/zip/pkg/aws"
)

// cacheSize is the read cache placed in front of remote sources. Reading an
// archive seeks a lot between small records; half a megabyte spans the whole
// central directory of most archives, so listing costs one request.
const cacheSize = 512 * 1024

// Source is a seekable view of an archive plus whatever must be closed when
// done with it.
type Source struct {
	io.ReadSeeker
	closers []io.Closer
}

// Close releases everything behind the source. Reads are invalid afterwards.
func (s *Source) Close() error {
	var errs *multierror.Error
	for _, c := range s.closers {
		errs = multierror.Append(errs, c.Close())
	}
	return errs.ErrorOrNil()
}

// Open resolves location and returns a random-access source for it. The
// context covers the whole lifetime of a remote source, not just its
// construction.
func Open(ctx context.Context, location string) (*Source, error) {
	switch {
	case strings.HasPrefix(location, "s3://"):
		return openS3(ctx, location)
	case strings.HasPrefix(location, "http://"), strings.HasPrefix(location, "https://"):
		return openHTTP(ctx, location)
	}
	return openFile(location)
}

func openFile(path string) (*Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open archive")
	}
	return &Source{ReadSeeker: f, closers: []io.Closer{f}}, nil
}

func openS3(ctx context.Context, location string) (*Source, error) {
	u, err := url.Parse(location)
	if err != nil {
		return nil, errors.Wrapf(err, "parse S3 location %s", location)
	}
	bucket, key := u.Host, strings.TrimPrefix(u.Path, "/")
	if bucket == "" || key == "" {
		return nil, errors.Errorf("S3 location must look like s3://bucket/key, got %s", location)
	}

	obj, err := aws.NewClient().Object(ctx, bucket, key)
	if err != nil {
		return nil, err
	}
	log.Debugf("opened S3 archive (bucket: %s)(key: %s)(size: %d)", bucket, key, obj.Size())

	cached := bufra.NewBufReaderAt(obj, cacheSize)
	return &Source{ReadSeeker: io.NewSectionReader(cached, 0, obj.Size())}, nil
}

func openHTTP(ctx context.Context, location string) (*Source, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "build request for %s", location)
	}

	// The backing store holds the whole body if the server turns out not to
	// support range requests.
	store := httpreaderat.NewDefaultStore()
	remote, err := httpreaderat.New(nil, req, store)
	if err != nil {
		store.Close()
		return nil, errors.Wrapf(err, "open %s", location)
	}
	log.Debugf("opened HTTP archive (url: %s)(size: %d)", location, remote.Size())

	cached := bufra.NewBufReaderAt(remote, cacheSize)
	return &Source{
		ReadSeeker: io.NewSectionReader(cached, 0, remote.Size()),
		closers:    []io.Closer{store},
	}, nil
}
