package server

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/lumen-dev/lumen/internal/errors"
)

// S3Client is the slice of the S3 API the archiver uses. *s3.Client
// satisfies it; tests inject fakes.
type S3Client interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Archiver uploads a session's frame history for replay debugging.
//
//	cfg, _ := config.LoadDefaultConfig(ctx)
//	arch := server.NewArchiver(s3.NewFromConfig(cfg), "my-bucket", "sessions/")
type Archiver struct {
	client S3Client
	bucket string
	prefix string
}

// NewArchiver creates an archiver writing under prefix in bucket.
func NewArchiver(client S3Client, bucket, prefix string) *Archiver {
	return &Archiver{client: client, bucket: bucket, prefix: prefix}
}

// encodeHistory packs frames into one object: a sequence number and a
// length prefix per frame, both big-endian, then the frame bytes.
func encodeHistory(entries []FrameEntry) []byte {
	var buf bytes.Buffer
	var hdr [12]byte
	for _, e := range entries {
		binary.BigEndian.PutUint64(hdr[0:8], e.Seq)
		binary.BigEndian.PutUint32(hdr[8:12], uint32(len(e.Frame)))
		buf.Write(hdr[:])
		buf.Write(e.Frame)
	}
	return buf.Bytes()
}

// Archive uploads a session's retained frames. The object key is
// prefix/sessionID.frames.
func (a *Archiver) Archive(ctx context.Context, sessionID string, entries []FrameEntry) error {
	if len(entries) == 0 {
		return nil
	}
	key := fmt.Sprintf("%s%s.frames", a.prefix, sessionID)
	_, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(encodeHistory(entries)),
		ContentType: aws.String("application/octet-stream"),
		Metadata: map[string]string{
			"session-id":  sessionID,
			"frame-count": fmt.Sprintf("%d", len(entries)),
			"archived-at": time.Now().UTC().Format(time.RFC3339),
		},
	})
	if err != nil {
		return errors.New("E103").WithDetailf("session %s, %d frames", sessionID, len(entries)).Wrap(err)
	}
	return nil
}
