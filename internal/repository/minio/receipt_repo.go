package minio

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/DRSN-tech/inventory-backend/internal/cfg"
	"github.com/DRSN-tech/inventory-backend/pkg/e"
	"github.com/jimlawless/whereami"
	"github.com/minio/minio-go/v7"
)

const receiptContentType = "application/json"

// ReceiptRepo хранит чеки продаж в MinIO, по объекту на продажу.
type ReceiptRepo struct {
	mc  *minio.Client
	cfg *cfg.MinIOCfg
}

func NewReceiptRepo(mc *minio.Client, cfg *cfg.MinIOCfg) *ReceiptRepo {
	return &ReceiptRepo{
		mc:  mc,
		cfg: cfg,
	}
}

// Upload перезаписывает чек продажи, повторная загрузка безопасна.
func (r *ReceiptRepo) Upload(ctx context.Context, saleID int64, data []byte) error {
	_, err := r.mc.PutObject(ctx, r.cfg.BucketName, ReceiptKey(saleID), bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: receiptContentType,
	})
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}

func (r *ReceiptRepo) Get(ctx context.Context, saleID int64) ([]byte, error) {
	obj, err := r.mc.GetObject(ctx, r.cfg.BucketName, ReceiptKey(saleID), minio.GetObjectOptions{})
	if err != nil {
		return nil, r.mapErr(err, saleID)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, r.mapErr(err, saleID)
	}

	return data, nil
}

func (r *ReceiptRepo) mapErr(err error, saleID int64) error {
	if minio.ToErrorResponse(err).Code == "NoSuchKey" {
		return e.WithDetail(e.ErrReceiptNotFound, "sale %d", saleID)
	}

	return e.Wrap(whereami.WhereAmI(), err)
}

// ReceiptKey возвращает ключ объекта чека.
func ReceiptKey(saleID int64) string {
	return fmt.Sprintf("receipts/%d.json", saleID)
}
