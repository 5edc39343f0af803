package captcha

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"guestbook/backend/internal/config"
	"guestbook/backend/internal/monitoring"
)

// 验证结果标签
const (
	OutcomeSuccess  = "success"
	OutcomeRejected = "rejected"
	OutcomeSkipped  = "skipped"
	OutcomeError    = "error"
)

// maxResponseBytes 验证接口响应体读取上限
const maxResponseBytes = 64 * 1024

// Verifier 人机验证客户端
//
// 调用第三方验证接口判断令牌是否有效，任何异常都视为验证失败。
type Verifier struct {
	secret     string
	verifyURL  string
	httpClient *http.Client
	logger     *zap.Logger
	metrics    *monitoring.Metrics
}

// verifyResponse 验证接口响应，只关心 success 字段
type verifyResponse struct {
	Success    bool     `json:"success"`
	ErrorCodes []string `json:"error-codes"`
}

// NewVerifier 创建人机验证客户端
func NewVerifier(cfg config.CaptchaConfig, logger *zap.Logger, metrics *monitoring.Metrics) *Verifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	verifyURL := cfg.VerifyURL
	if verifyURL == "" {
		verifyURL = config.DefaultVerifyURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Verifier{
		secret:    cfg.Secret,
		verifyURL: verifyURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger:  logger.Named("captcha"),
		metrics: metrics,
	}
}

// Verify 验证令牌
//
// 令牌或密钥为空时不发起请求直接返回 false。
// 只发送一次请求，不重试。
func (v *Verifier) Verify(ctx context.Context, token string) bool {
	if token == "" {
		v.metrics.RecordCaptcha(OutcomeSkipped, 0)
		return false
	}
	if v.secret == "" {
		v.logger.Warn("captcha secret not configured, rejecting token")
		v.metrics.RecordCaptcha(OutcomeSkipped, 0)
		return false
	}

	form := url.Values{}
	form.Set("secret", v.secret)
	form.Set("response", token)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.verifyURL, strings.NewReader(form.Encode()))
	if err != nil {
		v.logger.Error("failed to build captcha request", zap.Error(err))
		v.metrics.RecordCaptcha(OutcomeError, 0)
		return false
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	startTime := time.Now()
	resp, err := v.httpClient.Do(req)
	duration := time.Since(startTime)
	if err != nil {
		v.logger.Warn("captcha provider unreachable", zap.Error(err), zap.Duration("duration", duration))
		v.metrics.RecordCaptcha(OutcomeError, duration)
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		v.logger.Warn("captcha provider returned non-2xx status", zap.Int("status", resp.StatusCode))
		v.metrics.RecordCaptcha(OutcomeError, duration)
		return false
	}

	var result verifyResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&result); err != nil {
		v.logger.Warn("failed to decode captcha response", zap.Error(err))
		v.metrics.RecordCaptcha(OutcomeError, duration)
		return false
	}

	if !result.Success {
		v.logger.Info("captcha token rejected", zap.Strings("error_codes", result.ErrorCodes))
		v.metrics.RecordCaptcha(OutcomeRejected, duration)
		return false
	}

	v.metrics.RecordCaptcha(OutcomeSuccess, duration)
	return true
}
