package secrets

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/koishi/kdeploy/domain"
)

// FileStore is the on-disk layout read by File:
//
//	secrets:
//	  koishi.deploy.timezone: Asia/Tokyo
//	fields:
//	  db:
//	    password: s3cret
//	attachments:
//	  gcp.files:
//	    pull-image.json: ./keys/pull-image.json
//
// Attachment paths are relative to the store file.
type FileStore struct {
	Secrets     map[string]string            `yaml:"secrets"`
	Fields      map[string]map[string]string `yaml:"fields"`
	Attachments map[string]map[string]string `yaml:"attachments"`
}

// File implements domain.SecretProvider on a local YAML store.
type File struct {
	// Delims of secret references; DefaultDelims when zero.
	Delims Delims

	store FileStore
	dir   string
}

var (
	_ domain.SecretProvider = (*File)(nil)
	_ Lookup                = (*File)(nil)
)

// LoadFile reads a FileStore from path.
func LoadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read secret store: %w", err)
	}
	var s FileStore
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse secret store %s: %w", path, err)
	}
	return NewFile(s, filepath.Dir(path)), nil
}

// NewFile wraps an in-memory store. baseDir anchors relative attachment paths.
func NewFile(s FileStore, baseDir string) *File {
	return &File{store: s, dir: baseDir}
}

func (f *File) Resolve(_ context.Context, key string) (string, error) {
	v, ok := f.store.Secrets[key]
	if !ok {
		return "", fmt.Errorf("secret %q not found", key)
	}
	return v, nil
}

func (f *File) Secret(ctx context.Context, key string) (string, error) {
	return f.Resolve(ctx, key)
}

func (f *File) Field(_ context.Context, item, field string) (string, error) {
	fields, ok := f.store.Fields[item]
	if !ok {
		return "", fmt.Errorf("item %q not found", item)
	}
	v, ok := fields[field]
	if !ok {
		return "", fmt.Errorf("item %q has no field %q", item, field)
	}
	return v, nil
}

func (f *File) RenderText(ctx context.Context, text string) (string, []error) {
	return RenderText(ctx, f, f.Delims, "manifest", text)
}

// DownloadAttachment copies the attachment file to destPath with owner-only permissions.
func (f *File) DownloadAttachment(_ context.Context, secretName, attachmentName, destPath string) error {
	src, ok := f.store.Attachments[secretName][attachmentName]
	if !ok {
		return fmt.Errorf("item %q has no attachment %q", secretName, attachmentName)
	}
	if !filepath.IsAbs(src) {
		src = filepath.Join(f.dir, src)
	}
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open attachment: %w", err)
	}
	defer in.Close()
	out, err := os.OpenFile(destPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("create attachment file: %w", err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("copy attachment: %w", err)
	}
	return out.Close()
}
