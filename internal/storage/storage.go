// Package storage 把商品图片引用解析为客户端可访问的 URL。
package storage

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"

	"github.com/MorseWayne/boutique_shop/internal/domain"
)

// URLResolver 图片地址解析接口
type URLResolver interface {
	Resolve(ctx context.Context, ref string) (string, error)
}

// isAbsolute 已经是完整 URL 的引用原样返回
func isAbsolute(ref string) bool {
	return strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://")
}

// StaticResolver 以固定前缀拼接相对路径
type StaticResolver struct {
	baseURL string
}

// NewStaticResolver 创建静态解析器，baseURL 为空时原样返回引用
func NewStaticResolver(baseURL string) *StaticResolver {
	return &StaticResolver{baseURL: strings.TrimRight(baseURL, "/")}
}

func (s *StaticResolver) Resolve(ctx context.Context, ref string) (string, error) {
	if s.baseURL == "" || isAbsolute(ref) {
		return ref, nil
	}
	return s.baseURL + "/" + strings.TrimLeft(ref, "/"), nil
}

// presigner minio.Client 的子集
type presigner interface {
	PresignedGetObject(ctx context.Context, bucketName, objectName string, expires time.Duration, reqParams url.Values) (*url.URL, error)
}

// MinioResolver 为存放在 MinIO 中的图片生成临时签名地址
// 占位图不在对象存储中，交给 fallback 处理
type MinioResolver struct {
	client   presigner
	bucket   string
	expiry   time.Duration
	fallback URLResolver
}

// MinioOptions MinIO 连接参数
type MinioOptions struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Secure    bool
	Expiry    time.Duration
}

// NewMinioResolver 连接 MinIO 并创建解析器
func NewMinioResolver(opts MinioOptions, fallback URLResolver) (*MinioResolver, error) {
	client, err := minio.New(opts.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, ""),
		Secure: opts.Secure,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}
	if opts.Expiry <= 0 {
		opts.Expiry = 15 * time.Minute
	}
	return &MinioResolver{client: client, bucket: opts.Bucket, expiry: opts.Expiry, fallback: fallback}, nil
}

func (m *MinioResolver) Resolve(ctx context.Context, ref string) (string, error) {
	if isAbsolute(ref) {
		return ref, nil
	}
	if ref == domain.PlaceholderImage && m.fallback != nil {
		return m.fallback.Resolve(ctx, ref)
	}

	u, err := m.client.PresignedGetObject(ctx, m.bucket, strings.TrimLeft(ref, "/"), m.expiry, url.Values{})
	if err != nil {
		return "", fmt.Errorf("presign %s: %w", ref, err)
	}
	return u.String(), nil
}

// ResolveAll 逐个解析，失败的引用保留原值并记录日志
func ResolveAll(ctx context.Context, r URLResolver, refs []string, logger *zap.Logger) []string {
	out := make([]string, len(refs))
	for i, ref := range refs {
		resolved, err := r.Resolve(ctx, ref)
		if err != nil {
			logger.Warn("image url resolution failed", zap.String("ref", ref), zap.Error(err))
			resolved = ref
		}
		out[i] = resolved
	}
	return out
}
