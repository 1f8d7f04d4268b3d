// Package aws adapts S3 objects into the random-access byte sources the
// archive reader works on, one ranged GET per read.
package aws

import (
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// Client is an abstraction layer for interacting with AWS services.
type Client struct {
	s3 *s3.S3
}

// NewClient creates a new AWS client, expecting that the environment
// variables configure the credentials and region.
func NewClient() *Client {
	sess := session.Must(session.NewSessionWithOptions(session.Options{
		SharedConfigState: session.SharedConfigEnable,
	}))
	return &Client{
		s3: s3.New(sess),
	}
}

// Object resolves the size of the object at bucket/key and returns a
// read-only random-access view of it. No data is fetched until ReadAt is
// called.
func (c *Client) Object(ctx context.Context, bucket, key string) (*Object, error) {
	head, err := c.s3.HeadObjectWithContext(ctx, &s3.HeadObjectInput{
		Bucket: &bucket,
		Key:    &key,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "head S3 object (bucket: %s)(key: %s)", bucket, key)
	}
	if head.ContentLength == nil {
		return nil, errors.Errorf("S3 object has no content length (bucket: %s)(key: %s)", bucket, key)
	}
	return &Object{
		client: c,
		ctx:    ctx,
		bucket: bucket,
		key:    key,
		size:   *head.ContentLength,
	}, nil
}

// Object is an io.ReaderAt over a single S3 object. Reads are stateless
// ranged GETs, so an Object may be shared between goroutines. The context
// given to Client.Object covers every read; io.ReaderAt leaves no room to
// pass one per call.
type Object struct {
	client *Client
	ctx    context.Context
	bucket string
	key    string
	size   int64
}

// Size returns the object's content length as reported by S3.
func (o *Object) Size() int64 { return o.size }

// ReadAt implements io.ReaderAt with one ranged GET per call. Wrap an
// Object in a caching layer before handing it to anything that reads in
// small pieces.
func (o *Object) ReadAt(p []byte, off int64) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	if off >= o.size {
		return 0, io.EOF
	}
	byteRange := fmt.Sprintf("bytes=%v-%v", off, off+int64(len(p))-1)
	log.Debugf("getting S3 object (bucket: %s)(key: %s)(range: %s)", o.bucket, o.key, byteRange)

	response, err := o.client.s3.GetObjectWithContext(o.ctx, &s3.GetObjectInput{
		Bucket: &o.bucket,
		Key:    &o.key,
		Range:  &byteRange,
	})
	if err != nil {
		return 0, errors.Wrapf(err, "get S3 object (bucket: %s)(key: %s)(range: %s)", o.bucket, o.key, byteRange)
	}
	defer response.Body.Close()

	n, err := io.ReadFull(response.Body, p)
	switch err {
	case nil:
		return n, nil
	case io.ErrUnexpectedEOF, io.EOF:
		// The range was clamped at the end of the object.
		return n, io.EOF
	default:
		return n, errors.Wrapf(err, "read S3 object body (bucket: %s)(key: %s)", o.bucket, o.key)
	}
}
