package storage

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scripttb/720CRM-sub000/pkg/config"
)

type fakePutter struct {
	input *s3.PutObjectInput
	body  []byte
	err   error
}

func (f *fakePutter) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.input = in
	f.body, _ = io.ReadAll(in.Body)
	return &s3.PutObjectOutput{}, f.err
}

func TestS3Archive_Put(t *testing.T) {
	fake := &fakePutter{}
	a := &S3Archive{client: fake, bucket: "saft-archive"}

	err := a.Put(context.Background(), "saft/owner-1/x.xml", []byte("<AuditFile/>"), "application/xml")
	require.NoError(t, err)
	assert.Equal(t, "saft-archive", aws.ToString(fake.input.Bucket))
	assert.Equal(t, "saft/owner-1/x.xml", aws.ToString(fake.input.Key))
	assert.Equal(t, "application/xml", aws.ToString(fake.input.ContentType))
	assert.Equal(t, "<AuditFile/>", string(fake.body))
}

func TestS3Archive_PutError(t *testing.T) {
	a := &S3Archive{client: &fakePutter{err: errors.New("denied")}, bucket: "b"}
	assert.Error(t, a.Put(context.Background(), "k", nil, "application/xml"))
}

func TestNewS3Archive_RequiresBucket(t *testing.T) {
	_, err := NewS3Archive(context.Background(), config.StorageConfig{})
	assert.Error(t, err)
}
