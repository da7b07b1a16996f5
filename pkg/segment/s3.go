package segment

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/dafgraph/backend/pkg/common"
)

// S3Source reads segments from per-work JSON export dumps stored in an S3
// bucket, one object per work ("<prefix>/<work>.json"). Exports hold the
// work's segments in source order.
type S3Source struct {
	client *awss3.Client
	bucket string
	prefix string
}

func NewS3Source(client *awss3.Client, bucket string, prefix string) *S3Source {
	return &S3Source{client: client, bucket: bucket, prefix: strings.Trim(prefix, "/")}
}

func (s *S3Source) key(work string) string {
	return path.Join(s.prefix, work+".json")
}

func (s *S3Source) ListWorks(ctx context.Context) ([]string, error) {
	var works []string
	var token *string
	for {
		out, err := s.client.ListObjectsV2(ctx, &awss3.ListObjectsV2Input{
			Bucket:            aws.String(s.bucket),
			Prefix:            aws.String(s.prefix),
			ContinuationToken: token,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to list segment exports: %w", err)
		}
		for _, obj := range out.Contents {
			name := path.Base(aws.ToString(obj.Key))
			if !strings.HasSuffix(name, ".json") {
				continue
			}
			works = append(works, strings.TrimSuffix(name, ".json"))
		}
		if out.NextContinuationToken == nil {
			break
		}
		token = out.NextContinuationToken
	}
	return works, nil
}

func (s *S3Source) FetchSegments(ctx context.Context, work string, startPage string, limit int) ([]common.Segment, error) {
	out, err := s.client.GetObject(ctx, &awss3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(work)),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch segment export for %s: %w", work, err)
	}
	defer out.Body.Close()

	raw, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read segment export for %s: %w", work, err)
	}

	var all []common.Segment
	if err := json.Unmarshal(raw, &all); err != nil {
		return nil, fmt.Errorf("malformed segment export for %s: %w", work, err)
	}

	var segments []common.Segment
	for _, seg := range all {
		if startPage != "" {
			_, page, err := ParseSegmentID(seg.ID)
			if err != nil || page != startPage {
				continue
			}
		}
		segments = append(segments, seg)
		if limit > 0 && len(segments) >= limit {
			break
		}
	}
	return segments, nil
}
