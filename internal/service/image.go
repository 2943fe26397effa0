package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/knownet/post-service/internal/ai"
	"go.uber.org/zap"
)

const (
	MAX_IMAGE_SIZE      = 5 << 20
	POST_IMAGES_PATH    = "post-images"
	PROFILE_IMAGES_PATH = "profile-images"
	CDN_UPLOAD_ROUTE    = "/upload"
)

var allowedImageExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".webp": true,
}

// UploadedImage is the stored location of an image plus its bytes, which are
// kept for multimodal enrichment of posts.
type UploadedImage struct {
	URL   string
	Image *ai.Image
}

type imageUploader struct {
	logger     *zap.Logger
	cdnOrigin  string
	httpClient *http.Client
}

func newImageUploader(logger *zap.Logger, cdnOrigin string) *imageUploader {
	return &imageUploader{
		logger:     logger,
		cdnOrigin:  cdnOrigin,
		httpClient: &http.Client{Timeout: time.Second * 30},
	}
}

func (s *postService) UploadImage(ctx context.Context, fileHeader *multipart.FileHeader) (*UploadedImage, error) {
	return s.images.upload(ctx, fileHeader, POST_IMAGES_PATH)
}

// upload validates the file and pushes it to the CDN under path. Without a CDN
// origin the image is inlined as a data URL.
func (s *imageUploader) upload(ctx context.Context, fileHeader *multipart.FileHeader, path string) (*UploadedImage, error) {
	if fileHeader.Size > MAX_IMAGE_SIZE {
		return nil, ErrFileTooLarge
	}

	ext := strings.ToLower(filepath.Ext(fileHeader.Filename))
	if !allowedImageExtensions[ext] {
		return nil, ErrFileMustHaveAValidExtension
	}

	file, err := fileHeader.Open()
	if err != nil {
		s.logger.Sugar().Errorf("failed to open file: %s", err.Error())
		return nil, ErrInternal
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, MAX_IMAGE_SIZE+1))
	if err != nil {
		s.logger.Sugar().Errorf("failed to read file: %s", err.Error())
		return nil, ErrInternal
	}
	if len(data) > MAX_IMAGE_SIZE {
		return nil, ErrFileTooLarge
	}

	mimeType := http.DetectContentType(data)
	if !strings.HasPrefix(mimeType, "image/") {
		return nil, ErrFileMustBeImage
	}

	img := &ai.Image{Data: data, MimeType: mimeType}

	if s.cdnOrigin == "" {
		return &UploadedImage{
			URL:   fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(data)),
			Image: img,
		}, nil
	}

	url, err := s.uploadImageToCDN(ctx, path, fileHeader.Filename, data)
	if err != nil {
		return nil, err
	}

	return &UploadedImage{URL: url, Image: img}, nil
}

func (s *imageUploader) uploadImageToCDN(ctx context.Context, path string, filename string, data []byte) (string, error) {
	url := s.cdnOrigin + CDN_UPLOAD_ROUTE

	var requestBody bytes.Buffer
	writer := multipart.NewWriter(&requestBody)

	fileWriter, err := writer.CreateFormFile("file", filename)
	if err != nil {
		s.logger.Sugar().Errorf("failed to create file part for CDN request: %s", err.Error())
		return "", ErrInternal
	}

	if _, err := fileWriter.Write(data); err != nil {
		s.logger.Sugar().Errorf("failed to copy file content for CDN request: %s", err.Error())
		return "", ErrInternal
	}

	if err := writer.WriteField("path", path); err != nil {
		s.logger.Sugar().Errorf("failed to write path field for CDN request: %s", err.Error())
		return "", ErrInternal
	}

	if err := writer.Close(); err != nil {
		s.logger.Sugar().Errorf("failed to close writer for CDN request: %s", err.Error())
		return "", ErrInternal
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &requestBody)
	if err != nil {
		s.logger.Sugar().Errorf("failed to create CDN request: %s", err.Error())
		return "", ErrInternal
	}

	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Add("type", "IMAGE")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		s.logger.Sugar().Errorf("failed to do CDN request: %s", err.Error())
		return "", ErrFailedToUploadPostImageToCDN
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		s.logger.Sugar().Errorf("failed to read response body from CDN: %s", err.Error())
		return "", ErrInternal
	}

	if resp.StatusCode != http.StatusOK {
		var bodyJSON map[string]interface{}
		if err := json.Unmarshal(body, &bodyJSON); err != nil {
			s.logger.Sugar().Errorf("failed to decode error response from CDN: %s", err.Error())
		} else {
			s.logger.Sugar().Errorf("ERROR from CDN endpoint(%s), code(%d), details: %s", CDN_UPLOAD_ROUTE, resp.StatusCode, bodyJSON["details"])
		}
		return "", ErrFailedToUploadPostImageToCDN
	}

	return strings.TrimSpace(string(body)), nil
}
