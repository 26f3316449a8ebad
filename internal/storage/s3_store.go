// Package storage はギャラリー画像のオブジェクトストレージを提供する。
package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// ObjectStore はギャラリー画像の保存先を抽象化するインターフェース。
type ObjectStore interface {
	// Put はオブジェクトを保存し、公開URLを返す。
	Put(ctx context.Context, key string, body io.Reader, contentType string) (string, error)
	// Delete はオブジェクトを削除する。存在しない場合もエラーにしない。
	Delete(ctx context.Context, key string) error
	// KeyFromURL は公開URLからオブジェクトキーを取り出す。
	// このストアが発行したURLでない場合はfalseを返す。
	KeyFromURL(publicURL string) (string, bool)
}

// S3API はS3Storeが使用するS3クライアントのサブセット。
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// S3Store はS3互換ストレージにギャラリー画像を保存する。
type S3Store struct {
	client        S3API
	bucket        string
	publicBaseURL string
}

// NewS3Store はS3Storeを生成する。
// publicBaseURLが空の場合はバケットの仮想ホスト形式URLを使用する。
func NewS3Store(client S3API, bucket, region, publicBaseURL string) *S3Store {
	if publicBaseURL == "" {
		publicBaseURL = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", bucket, region)
	}
	return &S3Store{
		client:        client,
		bucket:        bucket,
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
	}
}

// Put はオブジェクトを保存し、公開URLを返す。
func (s *S3Store) Put(ctx context.Context, key string, body io.Reader, contentType string) (string, error) {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:       aws.String(s.bucket),
		Key:          aws.String(key),
		Body:         body,
		ContentType:  aws.String(contentType),
		CacheControl: aws.String("public, max-age=3600"),
	})
	if err != nil {
		return "", fmt.Errorf("storage: s3 put %s: %w", key, err)
	}
	return s.publicBaseURL + "/" + key, nil
}

// Delete はオブジェクトを削除する。
func (s *S3Store) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("storage: s3 delete %s: %w", key, err)
	}
	return nil
}

// KeyFromURL は公開URLからオブジェクトキーを取り出す。
func (s *S3Store) KeyFromURL(publicURL string) (string, bool) {
	prefix := s.publicBaseURL + "/"
	if !strings.HasPrefix(publicURL, prefix) {
		return "", false
	}
	key := strings.TrimPrefix(publicURL, prefix)
	if key == "" || strings.Contains(key, "..") {
		return "", false
	}
	return key, true
}

// GalleryKey はアップロード画像のオブジェクトキーを生成する。
// 拡張子は元ファイル名から小文字で引き継ぐ。
func GalleryKey(id, filename string) string {
	ext := strings.ToLower(path.Ext(filename))
	return "gallery/" + id + ext
}

// compile-time interface check
var _ ObjectStore = (*S3Store)(nil)
