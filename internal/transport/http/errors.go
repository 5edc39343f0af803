package httptransport

import (
	"errors"
	"net/http"

	"guestbook/backend/internal/domain"
)

// 面向访客的错误消息（业务错误 -> 西班牙语）
var errorMessages = map[error]string{
	domain.ErrInvalidName:     "Nombre inválido: usa entre 3 y 50 letras",
	domain.ErrInvalidMessage:  "Mensaje inválido: debe tener entre 10 y 500 caracteres",
	domain.ErrMissingCaptcha:  "Falta la verificación del captcha",
	domain.ErrCaptchaFailed:   "La verificación del captcha falló, inténtalo de nuevo",
	domain.ErrUnsupportedType: "Tipo de archivo no permitido: solo JPEG, PNG o WebP",
	domain.ErrTooLarge:        "La imagen supera el tamaño máximo de 5 MB",
	domain.ErrNoImage:         "No se recibió ninguna imagen",
}

// errorStatus 上传接口的错误状态码
var errorStatus = map[error]int{
	domain.ErrUnsupportedType: http.StatusUnsupportedMediaType,
	domain.ErrTooLarge:        http.StatusRequestEntityTooLarge,
	domain.ErrNoImage:         http.StatusBadRequest,
}

// 通用消息
const (
	MsgSuccess          = "Éxito"
	MsgSubmitSaved      = "Mensaje guardado en la base de datos ✅"
	MsgSubmitFailed     = "Error al guardar el mensaje, inténtalo más tarde"
	MsgUploadSaved      = "Imagen subida correctamente"
	MsgUploadFailed     = "Error al guardar la imagen, inténtalo más tarde"
	MsgInvalidForm      = "Formulario inválido"
	MsgInvalidMultipart = "La solicitud debe ser multipart/form-data"
	MsgListFailed       = "No se pudo obtener la lista de imágenes"
	MsgImageNotFound    = "Imagen no encontrada"
	MsgNotFound         = "Recurso no encontrado"
	MsgUnhealthy        = "Servicio no disponible"
	MsgInternalError    = "Error interno del servidor"
)

// GetErrorMessage 获取错误的访客提示
func GetErrorMessage(err error) string {
	for target, msg := range errorMessages {
		if errors.Is(err, target) {
			return msg
		}
	}
	return MsgInternalError
}

// statusFor 返回上传错误对应的 HTTP 状态码，未知错误为 500
func statusFor(err error) int {
	for target, status := range errorStatus {
		if errors.Is(err, target) {
			return status
		}
	}
	return http.StatusInternalServerError
}
