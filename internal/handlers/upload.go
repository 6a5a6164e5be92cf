package handlers

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"ngabarin/gateway/internal/compose"
	"ngabarin/gateway/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

var allowedExts = map[models.AttachmentKind][]string{
	models.KindImage:    {".jpg", ".jpeg", ".png", ".gif", ".webp"},
	models.KindVideo:    {".mp4", ".webm", ".mov", ".avi", ".3gp"},
	models.KindAudio:    {".mp3", ".wav", ".ogg", ".m4a"},
	models.KindDocument: {".pdf", ".doc", ".docx", ".txt", ".zip"},
}

// Upload directories per kind, also the :type segment of file URLs
var kindDirs = map[models.AttachmentKind]string{
	models.KindImage:    "images",
	models.KindVideo:    "videos",
	models.KindAudio:    "audios",
	models.KindDocument: "files",
}

// queryKinds maps the type query parameter to a kind. "file" is the older name
// for documents.
var queryKinds = map[string]models.AttachmentKind{
	"image":    models.KindImage,
	"video":    models.KindVideo,
	"audio":    models.KindAudio,
	"file":     models.KindDocument,
	"document": models.KindDocument,
}

// UploadFile stores a picked file and answers with a selection the client
// can attach to its draft as is
func (h *Handler) UploadFile(c *fiber.Ctx) error {
	// Get file from form
	file, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "No file uploaded",
		})
	}

	if file.Size > h.MaxUploadBytes {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error": fmt.Sprintf("File size exceeds limit of %dMB (uploaded: %.2fMB)",
				h.MaxUploadBytes/(1024*1024), float64(file.Size)/(1024*1024)),
		})
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))

	// Without an explicit type the file is classified by its name
	var kind models.AttachmentKind
	if fileType := c.Query("type"); fileType != "" {
		k, ok := queryKinds[fileType]
		if !ok {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"success": false,
				"error":   "Invalid file type. Must be: image, video, audio, or file",
			})
		}
		if !isAllowedExtension(ext, k) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"success": false,
				"error":   fmt.Sprintf("File extension %s not allowed for type %s", ext, fileType),
			})
		}
		kind = k
	} else {
		if !isAllowedExtension(ext, "") {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"success": false,
				"error":   fmt.Sprintf("File extension %s not allowed", ext),
			})
		}
		kind = compose.Classify(file.Filename)
		if kind == models.KindDocument {
			// Formats the upload lists accept beyond the classification map
			kind = allowedKind(ext)
		}
	}

	// Create upload directory if not exists
	dir := kindDirs[kind]
	uploadPath := filepath.Join(h.UploadDir, dir)
	if err := os.MkdirAll(uploadPath, 0755); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Failed to create upload directory",
		})
	}

	// Generate unique filename
	filename := fmt.Sprintf("%s-%d%s", uuid.New().String(), time.Now().Unix(), ext)
	fullPath := filepath.Join(uploadPath, filename)

	if err := c.SaveFile(file, fullPath); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Failed to save file",
		})
	}

	fileURL := fmt.Sprintf("/uploads/%s/%s", dir, filename)

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"filename": file.Filename,
			"size":     file.Size,
			"type":     dir,
			"url":      fileURL,
			"attachment": fiber.Map{
				"kind":        kind,
				"sourceRef":   fileURL,
				"displayName": file.Filename,
			},
		},
	})
}

// isAllowedExtension checks ext against one kind, or against every kind when
// kind is empty
func isAllowedExtension(ext string, kind models.AttachmentKind) bool {
	for k, exts := range allowedExts {
		if kind != "" && k != kind {
			continue
		}
		for _, e := range exts {
			if e == ext {
				return true
			}
		}
	}
	return false
}

// GetFile serves uploaded files
func (h *Handler) GetFile(c *fiber.Ctx) error {
	fileType := c.Params("type")
	filename := c.Params("filename")

	if !isUploadDir(fileType) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "Invalid file type",
		})
	}
	if filename == "" || filepath.Base(filename) != filename || strings.HasPrefix(filename, ".") {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "Invalid file name",
		})
	}

	filePath := filepath.Join(h.UploadDir, fileType, filename)

	file, err := os.Open(filePath)
	if os.IsNotExist(err) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"error":   "File not found",
		})
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Failed to open file",
		})
	}
	defer file.Close()

	fileInfo, err := file.Stat()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Failed to get file info",
		})
	}

	ext := strings.ToLower(filepath.Ext(filename))
	c.Set("Content-Type", getContentType(ext))
	c.Set("Content-Length", fmt.Sprintf("%d", fileInfo.Size()))

	// Stream file to client
	if _, err := io.Copy(c.Response().BodyWriter(), file); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Failed to send file",
		})
	}

	return nil
}

// allowedKind returns the kind whose allow-list holds ext, document otherwise
func allowedKind(ext string) models.AttachmentKind {
	for k, exts := range allowedExts {
		for _, e := range exts {
			if e == ext {
				return k
			}
		}
	}
	return models.KindDocument
}

func isUploadDir(name string) bool {
	for _, dir := range kindDirs {
		if dir == name {
			return true
		}
	}
	return false
}

// getContentType returns content type based on file extension
func getContentType(ext string) string {
	switch ext {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	case ".mp4":
		return "video/mp4"
	case ".webm":
		return "video/webm"
	case ".mov":
		return "video/quicktime"
	case ".avi":
		return "video/x-msvideo"
	case ".3gp":
		return "video/3gpp"
	case ".mp3":
		return "audio/mpeg"
	case ".wav":
		return "audio/wav"
	case ".ogg":
		return "audio/ogg"
	case ".m4a":
		return "audio/mp4"
	case ".pdf":
		return "application/pdf"
	case ".doc":
		return "application/msword"
	case ".docx":
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	case ".txt":
		return "text/plain"
	case ".zip":
		return "application/zip"
	default:
		return "application/octet-stream"
	}
}
