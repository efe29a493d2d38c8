package util

import (
	"errors"
	"io"
	"net/http"
	"strings"
)

const (
	MimePDF         = "application/pdf"
	MimeText        = "text/"
	MimeOctetStream = "application/octet-stream"
)

// AllowedSubmissionTypes 提交作业前的本地文件类型白名单
var AllowedSubmissionTypes = []string{MimePDF, MimeText, MimeOctetStream}

// SniffMimeType 读取文件头校验 MIME 类型
// allowedTypes: 允许的 MIME 前缀或完整类型，如 "text/", "application/pdf"
func SniffMimeType(reader io.Reader, allowedTypes []string) (string, error) {
	buffer := make([]byte, 512)
	n, err := reader.Read(buffer)
	if err != nil && err != io.EOF {
		return "", err
	}

	mimeType := http.DetectContentType(buffer[:n])

	for _, allowed := range allowedTypes {
		if strings.HasPrefix(mimeType, allowed) || mimeType == allowed {
			return mimeType, nil
		}
	}

	return mimeType, errors.New("invalid file type: " + mimeType)
}
