package kube

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
	"k8s.io/apimachinery/pkg/runtime"
	utiljson "k8s.io/apimachinery/pkg/util/json"
	utilyaml "k8s.io/apimachinery/pkg/util/yaml"

	"github.com/koishi/kdeploy/domain/model"
)

// DecodeManifest splits a multi-document YAML (or JSON) stream into documents.
// Empty and null documents are skipped; order is preserved. Integers decode as int64.
func DecodeManifest(data []byte) ([]*model.Document, error) {
	r := utilyaml.NewYAMLReader(bufio.NewReader(bytes.NewReader(data)))
	var docs []*model.Document
	for i := 0; ; i++ {
		chunk, err := r.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("read document %d: %w", i, err)
		}
		if len(bytes.TrimSpace(chunk)) == 0 {
			continue
		}
		js, err := utilyaml.ToJSON(chunk)
		if err != nil {
			return nil, fmt.Errorf("parse document %d: %w", i, err)
		}
		var obj map[string]any
		if err := utiljson.Unmarshal(js, &obj); err != nil {
			return nil, fmt.Errorf("document %d is not a mapping: %w", i, err)
		}
		if len(obj) == 0 {
			continue
		}
		docs = append(docs, model.NewDocument(obj))
	}
	return docs, nil
}

// EncodeManifest renders documents as a multi-document YAML stream, each doc preceded by ---.
func EncodeManifest(docs []*model.Document) ([]byte, error) {
	var buf bytes.Buffer
	for _, d := range docs {
		if d == nil {
			continue
		}
		var ybuf bytes.Buffer
		enc := yaml.NewEncoder(&ybuf)
		enc.SetIndent(2)
		if err := enc.Encode(d.Object); err != nil {
			return nil, fmt.Errorf("encode %s: %w", d.Key(), err)
		}
		_ = enc.Close()
		b := ybuf.Bytes()
		buf.WriteString("---\n")
		buf.Write(b)
		if len(b) == 0 || b[len(b)-1] != '\n' {
			buf.WriteByte('\n')
		}
	}
	return buf.Bytes(), nil
}

// ObjectToDocument converts a typed object to a document, pruning empty maps / null values
// and the noisy fields the converter leaves behind.
func ObjectToDocument(obj runtime.Object) (*model.Document, error) {
	m, err := runtime.DefaultUnstructuredConverter.ToUnstructured(obj)
	if err != nil {
		return nil, fmt.Errorf("to unstructured: %w", err)
	}
	pruneMap(m)
	if meta, ok := m["metadata"].(map[string]any); ok {
		delete(meta, "creationTimestamp")
		if len(meta) == 0 {
			delete(m, "metadata")
		}
	}
	if st, ok := m["status"].(map[string]any); ok && len(st) == 0 {
		delete(m, "status")
	}
	return model.NewDocument(m), nil
}

// pruneMap recursively prunes nil values and empty maps from a structure (in-place), preserving empty slices.
func pruneMap(v any) any {
	switch x := v.(type) {
	case map[string]any:
		for k, val := range x {
			cleaned := pruneMap(val)
			switch cv := cleaned.(type) {
			case nil:
				delete(x, k)
			case map[string]any:
				if len(cv) == 0 {
					delete(x, k)
				} else {
					x[k] = cv
				}
			default:
				x[k] = cv
			}
		}
		return x
	case []any:
		for i, it := range x {
			x[i] = pruneMap(it)
		}
		return x
	default:
		return x
	}
}
