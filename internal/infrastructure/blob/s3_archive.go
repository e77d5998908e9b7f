// Package blob guarda las fichas de trazabilidad emitidas en un bucket S3 (AWS S3 o MinIO).
package blob

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/jhoicas/Lotes-api/internal/application/lot"
	"github.com/jhoicas/Lotes-api/pkg/config"
)

var _ lot.SheetArchive = (*S3Archive)(nil)

// ErrAlreadyArchived la clave ya existe: una ficha archivada no se sobrescribe.
var ErrAlreadyArchived = errors.New("la ficha ya está archivada")

// S3Archive archiva fichas como objetos create-only bajo Prefix.
type S3Archive struct {
	client *s3.Client
	bucket string
	prefix string
}

// NewS3Archive construye el archivo desde la configuración. Sin credenciales explícitas
// se usa la cadena por defecto de AWS (env, perfil, rol).
func NewS3Archive(ctx context.Context, cfg config.ArchiveConfig) (*S3Archive, error) {
	if cfg.S3Bucket == "" {
		return nil, fmt.Errorf("ARCHIVE_S3_BUCKET requerido")
	}
	region := cfg.S3Region
	if region == "" {
		region = "us-east-1"
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("configuración AWS: %w", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.S3PathStyle
		if cfg.S3Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.S3Endpoint)
		}
	})
	return NewS3ArchiveWithClient(client, cfg.S3Bucket, cfg.S3Prefix), nil
}

// NewS3ArchiveWithClient usa un cliente ya construido.
func NewS3ArchiveWithClient(client *s3.Client, bucket, prefix string) *S3Archive {
	return &S3Archive{client: client, bucket: bucket, prefix: prefix}
}

// Archive sube el PDF. Falla con ErrAlreadyArchived si la clave ya existe.
func (a *S3Archive) Archive(ctx context.Context, key string, doc []byte, metadata map[string]string) error {
	objectKey := path.Join(a.prefix, key)
	if _, err := a.client.HeadObject(ctx, &s3.HeadObjectInput{Bucket: &a.bucket, Key: &objectKey}); err == nil {
		return fmt.Errorf("%s: %w", objectKey, ErrAlreadyArchived)
	}
	_, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      &a.bucket,
		Key:         &objectKey,
		Body:        bytes.NewReader(doc),
		ContentType: aws.String("application/pdf"),
		Metadata:    metadata,
	})
	if err != nil {
		return fmt.Errorf("subir %s: %w", objectKey, err)
	}
	return nil
}
