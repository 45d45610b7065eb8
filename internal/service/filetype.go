package service

import (
	"webhook-chat-go/internal/model"

	"github.com/h2non/filetype"
)

// DetectMessageType 根据文件头推断消息类型：图片、音频，其余一律视为文档。
func DetectMessageType(data []byte) string {
	switch {
	case filetype.IsImage(data):
		return model.MessageTypeImage
	case filetype.IsAudio(data):
		return model.MessageTypeAudio
	default:
		return model.MessageTypeDocument
	}
}

// DetectContentType 返回文件的 MIME 类型，无法识别时为 application/octet-stream。
func DetectContentType(data []byte) string {
	kind, err := filetype.Match(data)
	if err != nil || kind == filetype.Unknown {
		return "application/octet-stream"
	}
	return kind.MIME.Value
}
