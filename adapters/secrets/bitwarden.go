package secrets

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/koishi/kdeploy/domain"
	"github.com/koishi/kdeploy/internal/logging"
)

// DefaultBitwardenCommand is the Bitwarden CLI executable.
const DefaultBitwardenCommand = "bw"

// Bitwarden implements domain.SecretProvider on the Bitwarden CLI.
// The vault must already be unlocked (BW_SESSION in the environment).
type Bitwarden struct {
	Runner  domain.CommandRunner
	Command string

	// Delims of secret references; DefaultDelims when zero.
	Delims Delims

	mu    sync.Mutex
	cache map[string]string
	items map[string]*bwItem
}

var (
	_ domain.SecretProvider = (*Bitwarden)(nil)
	_ Lookup                = (*Bitwarden)(nil)
)

// NewBitwarden returns a provider that runs command (DefaultBitwardenCommand when empty).
func NewBitwarden(runner domain.CommandRunner, command string) *Bitwarden {
	if command == "" {
		command = DefaultBitwardenCommand
	}
	return &Bitwarden{Runner: runner, Command: command}
}

type bwItem struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Notes  string `json:"notes"`
	Login  *struct {
		Username string `json:"username"`
		Password string `json:"password"`
	} `json:"login"`
	Fields []struct {
		Name  string `json:"name"`
		Value string `json:"value"`
	} `json:"fields"`
	Attachments []struct {
		ID       string `json:"id"`
		FileName string `json:"fileName"`
	} `json:"attachments"`
}

func (b *Bitwarden) run(ctx context.Context, args ...string) (string, error) {
	code, out, err := b.Runner.Run(ctx, domain.Command{Name: b.Command, Args: args})
	if err != nil {
		return "", fmt.Errorf("run %s: %w", b.Command, err)
	}
	if code != 0 {
		return "", fmt.Errorf("%s %s exited with code %d", b.Command, strings.Join(args[:min(2, len(args))], " "), code)
	}
	return out, nil
}

// Resolve returns the password of the item named key. Values are memoized for the provider's lifetime.
func (b *Bitwarden) Resolve(ctx context.Context, key string) (string, error) {
	b.mu.Lock()
	if v, ok := b.cache[key]; ok {
		b.mu.Unlock()
		return v, nil
	}
	b.mu.Unlock()

	out, err := b.run(ctx, "get", "password", key)
	if err != nil {
		return "", fmt.Errorf("resolve %q: %w", key, err)
	}
	v := strings.TrimRight(out, "\r\n")

	b.mu.Lock()
	if b.cache == nil {
		b.cache = map[string]string{}
	}
	b.cache[key] = v
	b.mu.Unlock()
	return v, nil
}

func (b *Bitwarden) item(ctx context.Context, name string) (*bwItem, error) {
	b.mu.Lock()
	if it, ok := b.items[name]; ok {
		b.mu.Unlock()
		return it, nil
	}
	b.mu.Unlock()

	out, err := b.run(ctx, "get", "item", name)
	if err != nil {
		return nil, fmt.Errorf("get item %q: %w", name, err)
	}
	var it bwItem
	if err := json.Unmarshal([]byte(out), &it); err != nil {
		return nil, fmt.Errorf("decode item %q: %w", name, err)
	}

	b.mu.Lock()
	if b.items == nil {
		b.items = map[string]*bwItem{}
	}
	b.items[name] = &it
	b.mu.Unlock()
	return &it, nil
}

// Secret is Resolve, for the template engine.
func (b *Bitwarden) Secret(ctx context.Context, key string) (string, error) {
	return b.Resolve(ctx, key)
}

// Field returns a custom field of an item. The names "username", "password" and "notes"
// fall back to the login and notes of the item when no custom field matches.
func (b *Bitwarden) Field(ctx context.Context, item, field string) (string, error) {
	it, err := b.item(ctx, item)
	if err != nil {
		return "", err
	}
	for _, f := range it.Fields {
		if f.Name == field {
			return f.Value, nil
		}
	}
	switch field {
	case "username":
		if it.Login != nil {
			return it.Login.Username, nil
		}
	case "password":
		if it.Login != nil {
			return it.Login.Password, nil
		}
	case "notes":
		return it.Notes, nil
	}
	return "", fmt.Errorf("item %q has no field %q", item, field)
}

func (b *Bitwarden) RenderText(ctx context.Context, text string) (string, []error) {
	return RenderText(ctx, b, b.Delims, "manifest", text)
}

// DownloadAttachment saves the attachment of the item secretName to destPath.
func (b *Bitwarden) DownloadAttachment(ctx context.Context, secretName, attachmentName, destPath string) error {
	it, err := b.item(ctx, secretName)
	if err != nil {
		return err
	}
	found := false
	for _, a := range it.Attachments {
		if a.FileName == attachmentName || a.ID == attachmentName {
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("item %q has no attachment %q", secretName, attachmentName)
	}
	if _, err := b.run(ctx, "get", "attachment", attachmentName, "--itemid", it.ID, "--output", destPath); err != nil {
		return fmt.Errorf("download attachment %q of %q: %w", attachmentName, secretName, err)
	}
	logging.FromContext(ctx).Debug(ctx, "Bitwarden:DownloadAttachment/eok", "item", secretName, "attachment", attachmentName)
	return nil
}
