package middleware

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"net"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// レスポンスキャッシュの保存先の約束（本番はRedis、テストはインメモリ）
type CacheStore interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// キャッシュに入れるレスポンス一式
type cachedResponse struct {
	Status      int    `json:"status"`
	ContentType string `json:"content_type"`
	Body        []byte `json:"body"`
}

// CachePageはGETレスポンスをTTLの間キャッシュする。
// キーはメソッド+パス+クエリ文字列。書き込みによる無効化はしない
// （TTL内の古い一覧は許容する）。ストア障害時はそのままハンドラへ流す
func CachePage(store CacheStore, ttl time.Duration) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			if req.Method != http.MethodGet {
				return next(c)
			}

			key := cacheKey(req)
			ctx := req.Context()

			//ヒットすればそのまま返す
			if b, ok, err := store.Get(ctx, key); err == nil && ok {
				var cached cachedResponse
				if err := json.Unmarshal(b, &cached); err == nil {
					return c.Blob(cached.Status, cached.ContentType, cached.Body)
				}
			}

			//ミスならハンドラの出力を記録しながら実行
			rec := &responseRecorder{ResponseWriter: c.Response().Writer}
			c.Response().Writer = rec

			if err := next(c); err != nil {
				return err
			}

			//200だけキャッシュする
			if rec.status != http.StatusOK {
				return nil
			}

			b, err := json.Marshal(cachedResponse{
				Status:      rec.status,
				ContentType: rec.Header().Get(echo.HeaderContentType),
				Body:        rec.body.Bytes(),
			})
			if err != nil {
				return nil
			}

			_ = store.Set(ctx, key, b, ttl)
			return nil
		}
	}
}

func cacheKey(req *http.Request) string {
	key := "page:" + req.Method + ":" + req.URL.Path
	if req.URL.RawQuery != "" {
		key += "?" + req.URL.RawQuery
	}
	return key
}

// 書き込み内容を控えつつ下のwriterへ流す
type responseRecorder struct {
	http.ResponseWriter
	status int
	body   bytes.Buffer
}

func (r *responseRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (r *responseRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	r.body.Write(b)
	return r.ResponseWriter.Write(b)
}

func (r *responseRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (r *responseRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	return r.ResponseWriter.(http.Hijacker).Hijack()
}
