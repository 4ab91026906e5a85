package catalogview

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
)

// ProductsPath 商品列表接口路径
const ProductsPath = "/api/v1/products"

// TransientError 网络失败或服务端 5xx，保留当前列表并允许用户重试
type TransientError struct {
	Status int
	Err    error
}

func (e *TransientError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("catalog temporarily unavailable (status %d): %v", e.Status, e.Err)
	}
	return fmt.Sprintf("catalog temporarily unavailable: %v", e.Err)
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

// IsTransient 判断错误是否可重试
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}

// envelope 服务端统一响应
type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// HTTPFetcher 通过 HTTP 接口拉取商品列表
type HTTPFetcher struct {
	client *resty.Client
}

// NewHTTPFetcher 创建拉取器，超时由传输层负责
func NewHTTPFetcher(baseURL string, timeout time.Duration) *HTTPFetcher {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json")
	return &HTTPFetcher{client: client}
}

// WithBearerToken 为后续请求附加身份令牌
func (f *HTTPFetcher) WithBearerToken(token string) *HTTPFetcher {
	f.client.SetAuthToken(token)
	return f
}

// FetchPage 请求指定页
func (f *HTTPFetcher) FetchPage(ctx context.Context, filters Filters, page int) (*Page, error) {
	res, err := f.client.R().
		SetContext(ctx).
		SetQueryParamsFromValues(filters.Values(page)).
		Get(ProductsPath)
	if err != nil {
		return nil, &TransientError{Err: err}
	}

	status := res.StatusCode()
	var env envelope
	decodeErr := json.Unmarshal(res.Body(), &env)

	switch {
	case status >= http.StatusInternalServerError || status == http.StatusTooManyRequests:
		msg := env.Message
		if decodeErr != nil || msg == "" {
			msg = http.StatusText(status)
		}
		return nil, &TransientError{Status: status, Err: errors.New(msg)}
	case status >= http.StatusBadRequest:
		return nil, fmt.Errorf("list products: status %d: %s", status, env.Message)
	case decodeErr != nil:
		return nil, fmt.Errorf("decode products response: %w", decodeErr)
	case env.Code != 0:
		return nil, fmt.Errorf("list products: code %d: %s", env.Code, env.Message)
	}

	var out Page
	if err := json.Unmarshal(env.Data, &out); err != nil {
		return nil, fmt.Errorf("decode products page: %w", err)
	}
	if out.Products == nil {
		out.Products = []Product{}
	}
	return &out, nil
}
