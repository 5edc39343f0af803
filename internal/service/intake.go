package service

import (
	"context"
	"errors"
	"path"
	"strings"

	"go.uber.org/zap"

	"guestbook/backend/internal/domain"
	"guestbook/backend/internal/media"
	"guestbook/backend/internal/monitoring"
	"guestbook/backend/internal/storage"
)

// CaptchaVerifier 人机验证
type CaptchaVerifier interface {
	Verify(ctx context.Context, token string) bool
}

// MediaAcceptor 图片接收策略
type MediaAcceptor interface {
	Accept(ctx context.Context, fieldName, declaredType string, data []byte) (*media.Accepted, error)
}

// IntakeStore 接收流程需要的存储操作
type IntakeStore interface {
	storage.SubmissionRepository
	storage.MediaRepository
}

// IntakeService 编排留言提交、图片上传和图片列表。
type IntakeService struct {
	store        IntakeStore
	verifier     CaptchaVerifier
	acceptor     MediaAcceptor
	publicPrefix string
	log          *zap.Logger
	metrics      *monitoring.Metrics
}

// NewIntakeService 创建接收服务。publicPrefix 为图片对外访问前缀，如 "/uploads"。
func NewIntakeService(
	store IntakeStore,
	verifier CaptchaVerifier,
	acceptor MediaAcceptor,
	publicPrefix string,
	log *zap.Logger,
	metrics *monitoring.Metrics,
) *IntakeService {
	if log == nil {
		log = zap.NewNop()
	}
	if publicPrefix == "" {
		publicPrefix = "/uploads"
	}
	return &IntakeService{
		store:        store,
		verifier:     verifier,
		acceptor:     acceptor,
		publicPrefix: "/" + strings.Trim(publicPrefix, "/"),
		log:          log.Named("intake"),
		metrics:      metrics,
	}
}

// SubmitInput 定义留言提交的输入。
type SubmitInput struct {
	Name         string
	Message      string
	CaptchaToken string
}

// UploadInput 定义一个上传字段。
type UploadInput struct {
	FieldName   string
	ContentType string
	Data        []byte
}

// UploadResult 上传成功的结果。
type UploadResult struct {
	Filename string `json:"filename"`
	Path     string `json:"path"`
}

// SubmitMessage 处理一次留言提交
//
// 顺序：清洗 → 校验姓名 → 校验内容 → 人机验证 → 落库。
// 任何一步失败都不会执行后续步骤。
func (s *IntakeService) SubmitMessage(ctx context.Context, input SubmitInput) (*domain.Submission, error) {
	name := strings.TrimSpace(domain.Sanitize(input.Name))
	message := strings.TrimSpace(domain.Sanitize(input.Message))

	if err := domain.ValidateName(name); err != nil {
		s.metrics.RecordSubmission(monitoring.ResultRejected, reasonFor(err))
		return nil, err
	}
	if err := domain.ValidateMessage(message); err != nil {
		s.metrics.RecordSubmission(monitoring.ResultRejected, reasonFor(err))
		return nil, err
	}

	if input.CaptchaToken == "" {
		s.metrics.RecordSubmission(monitoring.ResultRejected, reasonFor(domain.ErrMissingCaptcha))
		return nil, domain.ErrMissingCaptcha
	}
	if !s.verifier.Verify(ctx, input.CaptchaToken) {
		s.metrics.RecordSubmission(monitoring.ResultRejected, reasonFor(domain.ErrCaptchaFailed))
		return nil, domain.ErrCaptchaFailed
	}

	submission := &domain.Submission{
		Name:    name,
		Message: message,
	}
	if err := s.store.InsertMessage(ctx, submission); err != nil {
		s.log.Error("failed to store submission", zap.Error(err))
		s.metrics.RecordSubmission(monitoring.ResultError, "store")
		return nil, domain.NewStoreError("insert message", err)
	}

	s.log.Info("submission stored", zap.Uint64("id", submission.ID))
	s.metrics.RecordSubmission(monitoring.ResultAccepted, "")
	return submission, nil
}

// UploadImage 接收一张图片
//
// 文件先写入内容存储再落库。落库失败时文件保留为孤儿文件，由巡检处理。
func (s *IntakeService) UploadImage(ctx context.Context, input UploadInput) (*UploadResult, error) {
	accepted, err := s.acceptor.Accept(ctx, input.FieldName, input.ContentType, input.Data)
	if err != nil {
		if errors.Is(err, domain.ErrFieldIgnored) {
			err = domain.ErrNoImage
		}
		if domain.IsRejection(err) {
			s.metrics.RecordUpload(monitoring.ResultRejected, reasonFor(err), 0)
		} else {
			s.log.Error("failed to write upload", zap.Error(err))
			s.metrics.RecordUpload(monitoring.ResultError, "io", 0)
		}
		return nil, err
	}

	asset := &domain.MediaAsset{
		Filename:    accepted.Filename,
		ContentType: accepted.ContentType,
		Size:        accepted.Size,
	}
	if err := s.store.InsertMediaAsset(ctx, asset); err != nil {
		s.log.Warn("media record not stored, content file left as orphan",
			zap.String("filename", accepted.Filename),
			zap.Error(err),
		)
		s.metrics.RecordUpload(monitoring.ResultError, "store", 0)
		return nil, domain.NewStoreError("insert media asset", err)
	}

	s.log.Info("image stored",
		zap.String("filename", accepted.Filename),
		zap.Int64("size", accepted.Size),
	)
	s.metrics.RecordUpload(monitoring.ResultAccepted, "", accepted.Size)

	return &UploadResult{
		Filename: accepted.Filename,
		Path:     s.PublicPath(accepted.Filename),
	}, nil
}

// ListImages 返回全部图片的访问路径，最新的在前
func (s *IntakeService) ListImages(ctx context.Context) ([]string, error) {
	assets, err := s.store.ListMediaAssets(ctx)
	if err != nil {
		return nil, domain.NewStoreError("list media assets", err)
	}

	paths := make([]string, 0, len(assets))
	for _, a := range assets {
		paths = append(paths, s.PublicPath(a.Filename))
	}
	return paths, nil
}

// PublicPath 返回文件的对外访问路径
func (s *IntakeService) PublicPath(filename string) string {
	return path.Join(s.publicPrefix, filename)
}

// reasonFor 指标中的拒绝原因标签
func reasonFor(err error) string {
	switch {
	case errors.Is(err, domain.ErrInvalidName):
		return "invalid_name"
	case errors.Is(err, domain.ErrInvalidMessage):
		return "invalid_message"
	case errors.Is(err, domain.ErrMissingCaptcha):
		return "missing_captcha"
	case errors.Is(err, domain.ErrCaptchaFailed):
		return "captcha_failed"
	case errors.Is(err, domain.ErrUnsupportedType):
		return "unsupported_type"
	case errors.Is(err, domain.ErrTooLarge):
		return "too_large"
	case errors.Is(err, domain.ErrNoImage):
		return "no_image"
	}
	return "other"
}
