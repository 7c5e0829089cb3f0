package storage

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUploader struct {
	input *s3.PutObjectInput
	body  string
	err   error
}

func (f *fakeUploader) Upload(ctx context.Context, input *s3.PutObjectInput, opts ...func(*manager.Uploader)) (*manager.UploadOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.input = input
	data, _ := io.ReadAll(input.Body)
	f.body = string(data)
	return &manager.UploadOutput{Location: "https://amexan.s3.amazonaws.com/" + aws.ToString(input.Key)}, nil
}

func TestS3StoreUpload(t *testing.T) {
	fake := &fakeUploader{}
	store := &S3Store{bucket: "amexan", uploader: fake}

	url, err := store.Upload(context.Background(), "7/phone.png", strings.NewReader("png"), "image/png")
	require.NoError(t, err)

	assert.Equal(t, "https://amexan.s3.amazonaws.com/7/phone.png", url)
	assert.Equal(t, "amexan", aws.ToString(fake.input.Bucket))
	assert.Equal(t, "image/png", aws.ToString(fake.input.ContentType))
	assert.Equal(t, types.ObjectCannedACLPublicRead, fake.input.ACL)
	assert.Equal(t, "png", fake.body)
}

func TestS3StoreUploadError(t *testing.T) {
	store := &S3Store{bucket: "amexan", uploader: &fakeUploader{err: errors.New("denied")}}

	_, err := store.Upload(context.Background(), "k", strings.NewReader(""), "")
	assert.ErrorContains(t, err, "denied")
}
