package v1

import (
	"errors"
	"fmt"
	"mime/multipart"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	maxProofSize = 5 << 20
	uploadsPath  = "/uploads"
)

var (
	errProofTooLarge = errors.New("payment proof must be at most 5 MB")
	errProofType     = errors.New("payment proof must be a jpg, png or pdf file")

	proofExtensions = map[string]bool{".jpg": true, ".jpeg": true, ".png": true, ".pdf": true}
)

// Uploads stores payment proofs on local disk. Files are served back under /uploads.
type Uploads struct {
	dir string
}

func NewUploads(dir string) *Uploads {
	return &Uploads{dir: dir}
}

func (u *Uploads) Dir() string {
	return u.dir
}

func checkProof(file *multipart.FileHeader) error {
	if file.Size > maxProofSize {
		return errProofTooLarge
	}
	if !proofExtensions[strings.ToLower(filepath.Ext(file.Filename))] {
		return errProofType
	}

	return nil
}

// Save writes the file under a random name and returns its public path.
func (u *Uploads) Save(ctx *gin.Context, file *multipart.FileHeader) (string, error) {
	if err := os.MkdirAll(u.dir, 0o755); err != nil {
		return "", fmt.Errorf("os.MkdirAll -> %w", err)
	}

	name := uuid.NewString() + strings.ToLower(filepath.Ext(file.Filename))
	if err := ctx.SaveUploadedFile(file, filepath.Join(u.dir, name)); err != nil {
		return "", fmt.Errorf("ctx.SaveUploadedFile -> %w", err)
	}

	return path.Join(uploadsPath, name), nil
}

// Remove deletes a file previously returned by Save.
func (u *Uploads) Remove(publicPath string) {
	if publicPath == "" {
		return
	}
	_ = os.Remove(filepath.Join(u.dir, path.Base(publicPath)))
}
