package services

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nozoku/nozoku-server/internal/common"
	sc "github.com/nozoku/nozoku-server/internal/server/config"
	"github.com/nozoku/nozoku-server/internal/server/models"
	"github.com/nozoku/nozoku-server/internal/server/repositories/repomanager"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return s3.NewPresignClient(c)
	}

	presignPutObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignPutObject(ctx, in, optFns...)
	}
	presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignGetObject(ctx, in, optFns...)
	}
)

// StorageService hands out presigned object-storage URLs so clients upload
// and download media directly, and maintains each user's ordered media list.
// The server never proxies file bytes.
type StorageService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	config      *sc.Config
}

func NewStorageService(db *sql.DB, repomanager repomanager.RepositoryManager, config *sc.Config) *StorageService {
	return &StorageService{
		db:          db,
		repomanager: repomanager,
		config:      config,
	}
}

// MediaStorageKey returns a fresh key for a media upload, partitioned by date.
func MediaStorageKey(userID string) string {
	d := time.Now()
	return fmt.Sprintf("media/%s/%d/%d/%d/%v", userID, d.Year(), d.Month(), d.Day(), uuid.New())
}

// VerificationStorageKey returns a fresh key for an identity document upload.
// The kind is "id" or "selfie".
func VerificationStorageKey(userID, kind string) string {
	return fmt.Sprintf("verification/%s/%s/%v", userID, kind, uuid.New())
}

func (s *StorageService) getPresignClient() (*s3.PresignClient, error) {
	cfg, err := loadDefaultAWSConfig(context.Background(),
		config.WithRegion(s.config.S3Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			s.config.S3RootUser,     // MINIO_ROOT_USER
			s.config.S3RootPassword, // MINIO_ROOT_PASSWORD
			"",
		)))
	if err != nil {
		return nil, err
	}

	client := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(s.config.S3BaseEndpoint)
	})

	return newS3PresignClient(client), nil
}

// GetPresignedPutUrl presigns an upload for key, valid for 15 minutes.
func (s *StorageService) GetPresignedPutUrl(ctx context.Context, key string) (string, error) {

	presignClient, err := s.getPresignClient()
	if err != nil {
		return "", err
	}

	bucket := s.config.S3Bucket

	// Presigned PUT
	req, err := presignPutObject(presignClient, ctx, &s3.PutObjectInput{
		Bucket: &bucket,
		Key:    &key,
	}, s3.WithPresignExpires(15*time.Minute))

	if err != nil {
		return "", err
	}

	return req.URL, nil
}

// GetPresignedGetUrl presigns a download for key, valid for 15 minutes.
func (s *StorageService) GetPresignedGetUrl(ctx context.Context, key string) (string, error) {

	presignClient, err := s.getPresignClient()
	if err != nil {
		return "", err
	}

	bucket := s.config.S3Bucket

	// Presigned GET
	req, err := presignGetObject(presignClient, ctx, &s3.GetObjectInput{
		Bucket: &bucket,
		Key:    &key,
	}, s3.WithPresignExpires(15*time.Minute))
	if err != nil {
		return "", err
	}

	return req.URL, nil
}

// BeginMediaUpload allocates a storage key for the user and presigns the
// upload URL. The client PUTs the bytes, then calls AddMedia with the key.
func (s *StorageService) BeginMediaUpload(ctx context.Context, userID string) (string, string, error) {
	key := MediaStorageKey(userID)
	url, err := s.GetPresignedPutUrl(ctx, key)
	if err != nil {
		return "", "", err
	}
	return key, url, nil
}

// AddMedia appends an uploaded object to the user's media list. Position is
// assigned by the store, after the current tail.
func (s *StorageService) AddMedia(ctx context.Context, userID, postID, storageKey string) (*models.MediaItem, error) {
	if storageKey == "" {
		return nil, common.ErrorValidation
	}
	return s.repomanager.Media(s.db).Add(ctx, &models.MediaItem{
		UserID:     userID,
		PostID:     postID,
		StorageKey: storageKey,
	})
}

// ListMedia returns the user's media in list order, each with a presigned
// download URL.
func (s *StorageService) ListMedia(ctx context.Context, userID string) ([]*MediaView, error) {
	items, err := s.repomanager.Media(s.db).ListForUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	views := make([]*MediaView, 0, len(items))
	for _, item := range items {
		url, err := s.GetPresignedGetUrl(ctx, item.StorageKey)
		if err != nil {
			return nil, err
		}
		views = append(views, &MediaView{Item: item, URL: url})
	}
	return views, nil
}

// MediaView pairs a media item with a short-lived download URL.
type MediaView struct {
	Item *models.MediaItem `json:"item"`
	URL  string            `json:"url"`
}

// BeginVerificationUpload presigns upload URLs for the two identity
// documents. The client uploads both, then submits the keys for review.
func (s *StorageService) BeginVerificationUpload(ctx context.Context, userID string) (idKey, idURL, selfieKey, selfieURL string, err error) {
	idKey = VerificationStorageKey(userID, "id")
	idURL, err = s.GetPresignedPutUrl(ctx, idKey)
	if err != nil {
		return "", "", "", "", err
	}

	selfieKey = VerificationStorageKey(userID, "selfie")
	selfieURL, err = s.GetPresignedPutUrl(ctx, selfieKey)
	if err != nil {
		return "", "", "", "", err
	}
	return idKey, idURL, selfieKey, selfieURL, nil
}
