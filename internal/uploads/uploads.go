// Package uploads models file-upload inputs as a closed sum type and drives
// the external upload collaborator. Presence of a file is encoded in the
// type, never probed at runtime.
package uploads

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"strings"

	"github.com/google/uuid"
)

// ErrUploadFailed indicates the upload collaborator returned no usable
// location. It is distinct from transport errors, which are wrapped as-is.
var ErrUploadFailed = errors.New("upload returned no location")

// Input enumerates the upload shapes a handler may produce: NoFile when
// nothing was attached, SingleFile for one named file, and NamedFileSet for
// a required avatar plus an optional cover image.
type Input interface {
	isInput()
}

// NoFile is the absence of an upload.
type NoFile struct{}

// SingleFile references one file received on local disk.
type SingleFile struct {
	Field string
	Path  string
}

// NamedFileSet is the registration upload shape: avatar required, cover
// image optional.
type NamedFileSet struct {
	Avatar     SingleFile
	CoverImage *SingleFile
}

func (NoFile) isInput()       {}
func (SingleFile) isInput()   {}
func (NamedFileSet) isInput() {}

// Result carries the locations produced for an Input. URL is set for
// SingleFile; Avatar and CoverImage are set for NamedFileSet.
type Result struct {
	URL        string
	Avatar     string
	CoverImage string
}

// AssetStorage is the opaque upload(file) → location collaborator.
type AssetStorage interface {
	Save(ctx context.Context, name string, r io.Reader) (string, error)
}

// Service streams local files into asset storage.
type Service struct {
	storage AssetStorage
}

// NewService constructs an upload service.
func NewService(storage AssetStorage) *Service {
	if storage == nil {
		panic("uploads: storage must not be nil")
	}
	return &Service{storage: storage}
}

// Upload dispatches on the input shape and uploads every file it names.
func (s *Service) Upload(ctx context.Context, in Input) (Result, error) {
	switch v := in.(type) {
	case NoFile:
		return Result{}, nil
	case SingleFile:
		url, err := s.uploadOne(ctx, v)
		if err != nil {
			return Result{}, err
		}
		return Result{URL: url}, nil
	case NamedFileSet:
		avatarURL, err := s.uploadOne(ctx, v.Avatar)
		if err != nil {
			return Result{}, err
		}
		result := Result{Avatar: avatarURL}
		if v.CoverImage != nil {
			coverURL, err := s.uploadOne(ctx, *v.CoverImage)
			if err != nil {
				return Result{}, err
			}
			result.CoverImage = coverURL
		}
		return result, nil
	default:
		return Result{}, fmt.Errorf("uploads: unknown input shape %T", in)
	}
}

func (s *Service) uploadOne(ctx context.Context, f SingleFile) (string, error) {
	if strings.TrimSpace(f.Path) == "" {
		return "", fmt.Errorf("uploads: %s has no local file", f.Field)
	}

	file, err := os.Open(f.Path)
	if err != nil {
		return "", fmt.Errorf("open %s upload: %w", f.Field, err)
	}
	defer file.Close()

	key := path.Join(f.Field, uuid.NewString()+path.Ext(f.Path))
	location, err := s.storage.Save(ctx, key, file)
	if err != nil {
		return "", fmt.Errorf("save %s upload: %w", f.Field, err)
	}
	if strings.TrimSpace(location) == "" {
		return "", fmt.Errorf("%s: %w", f.Field, ErrUploadFailed)
	}

	return location, nil
}
