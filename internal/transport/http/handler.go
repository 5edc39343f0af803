package httptransport

import (
	"errors"
	"html"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"guestbook/backend/internal/config"
	"guestbook/backend/internal/domain"
	"guestbook/backend/internal/media"
	"guestbook/backend/internal/service"
	"guestbook/backend/internal/storage"
)

// 留言表单字段
const (
	FormFieldName    = "name"
	FormFieldMessage = "message"
	FormFieldCaptcha = "g-recaptcha-response"
)

// Handler 聚合所有 HTTP 处理逻辑。
type Handler struct {
	intake   *service.IntakeService
	content  storage.ContentStore
	maxBytes int64
	log      *zap.Logger
}

// NewHandler 创建处理器
func NewHandler(intake *service.IntakeService, content storage.ContentStore, maxBytes int64, log *zap.Logger) *Handler {
	if maxBytes <= 0 {
		maxBytes = config.DefaultMaxUploadBytes
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{
		intake:   intake,
		content:  content,
		maxBytes: maxBytes,
		log:      log.Named("http"),
	}
}

// submit 处理留言表单
//
// 业务拒绝也返回 200，由页面直接展示 HTML 片段；只有存储故障返回 500。
func (h *Handler) submit(c *gin.Context) {
	input := service.SubmitInput{
		Name:         c.PostForm(FormFieldName),
		Message:      c.PostForm(FormFieldMessage),
		CaptchaToken: c.PostForm(FormFieldCaptcha),
	}

	_, err := h.intake.SubmitMessage(c.Request.Context(), input)
	switch {
	case err == nil:
		htmlFragment(c, http.StatusOK, MsgSubmitSaved)
	case domain.IsRejection(err):
		htmlFragment(c, http.StatusOK, GetErrorMessage(err))
	default:
		htmlFragment(c, http.StatusInternalServerError, MsgSubmitFailed)
	}
}

// upload 处理图片上传
//
// 逐个读取 multipart 分段，只处理第一个 image 字段，其余字段跳过。
func (h *Handler) upload(c *gin.Context) {
	reader, err := c.Request.MultipartReader()
	if err != nil {
		BadRequest(c, MsgInvalidMultipart)
		return
	}

	for {
		part, err := reader.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			h.readFailed(c, err)
			return
		}

		if part.FormName() != media.FieldName {
			_, _ = io.Copy(io.Discard, part)
			_ = part.Close()
			continue
		}

		// 多读一个字节，超限判断交给 acceptor
		data, err := io.ReadAll(io.LimitReader(part, h.maxBytes+1))
		_ = part.Close()
		if err != nil {
			h.readFailed(c, err)
			return
		}

		result, err := h.intake.UploadImage(c.Request.Context(), service.UploadInput{
			FieldName:   part.FormName(),
			ContentType: part.Header.Get("Content-Type"),
			Data:        data,
		})
		if err != nil {
			if domain.IsRejection(err) {
				Error(c, statusFor(err), GetErrorMessage(err))
				return
			}
			InternalError(c, MsgUploadFailed)
			return
		}

		SuccessWithMsg(c, MsgUploadSaved, result)
		return
	}

	BadRequest(c, GetErrorMessage(domain.ErrNoImage))
}

// readFailed 读取请求体失败：超过全局限制为 413，其余视为格式错误
func (h *Handler) readFailed(c *gin.Context, err error) {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		Error(c, http.StatusRequestEntityTooLarge, GetErrorMessage(domain.ErrTooLarge))
		return
	}
	h.log.Debug("malformed multipart body", zap.Error(err))
	BadRequest(c, MsgInvalidMultipart)
}

// listImages 返回图片访问路径数组，最新的在前
func (h *Handler) listImages(c *gin.Context) {
	paths, err := h.intake.ListImages(c.Request.Context())
	if err != nil {
		h.log.Error("failed to list images", zap.Error(err))
		InternalError(c, MsgListFailed)
		return
	}
	c.JSON(http.StatusOK, paths)
}

// serveUpload 输出已上传的图片
func (h *Handler) serveUpload(c *gin.Context) {
	name := c.Param("filename")

	rc, info, err := h.content.Open(c.Request.Context(), name)
	if err != nil {
		if errors.Is(err, storage.ErrContentNotFound) || errors.Is(err, storage.ErrInvalidContentName) {
			NotFound(c, MsgImageNotFound)
			return
		}
		h.log.Error("failed to open upload", zap.String("filename", name), zap.Error(err))
		InternalError(c, MsgInternalError)
		return
	}
	defer rc.Close()

	contentType := info.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.Header("Cache-Control", "public, max-age=86400, immutable")
	c.Header("X-Content-Type-Options", "nosniff")
	if !info.ModTime.IsZero() {
		c.Header("Last-Modified", info.ModTime.UTC().Format(http.TimeFormat))
	}
	c.DataFromReader(http.StatusOK, info.Size, contentType, rc, map[string]string{
		"Content-Disposition": "inline; filename=" + strconv.Quote(info.Name),
	})
}

// htmlFragment 输出 <h1> 片段，内容做 HTML 转义
func htmlFragment(c *gin.Context, status int, text string) {
	c.Data(status, "text/html; charset=utf-8", []byte("<h1>"+html.EscapeString(text)+"</h1>"))
}
