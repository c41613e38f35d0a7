package manifest

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	utilyaml "k8s.io/apimachinery/pkg/util/yaml"
	"sigs.k8s.io/yaml"

	"github.com/ndrpnt/deka/internal/logic/batch"
)

// ActionAnnotation selects the per-object action. Recognized values are
// "apply" (the default when the annotation is absent) and "delete".
const ActionAnnotation = "deka.ndrpnt.dev/action"

// Reader turns a multi-document YAML stream into TargetObjects with action
// and namespace resolved, so the batch core never touches raw documents.
type Reader struct {
	logger           *slog.Logger
	defaultNamespace string
}

// NewReader creates a manifest reader. defaultNamespace applies to objects
// whose metadata carries no namespace.
func NewReader(logger *slog.Logger, defaultNamespace string) *Reader {
	return &Reader{
		logger:           logger,
		defaultNamespace: defaultNamespace,
	}
}

// Read decodes every YAML document from src. Any malformed document fails the
// whole batch before an operation starts.
func (r *Reader) Read(src io.Reader) ([]batch.TargetObject, error) {
	yr := utilyaml.NewYAMLReader(bufio.NewReader(src))

	var objects []batch.TargetObject

	for {
		doc, err := yr.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}

			return nil, fmt.Errorf("read document: %w", err)
		}

		if len(bytes.TrimSpace(doc)) == 0 {
			continue
		}

		jsonDoc, err := yaml.YAMLToJSON(doc)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidDocument, err)
		}

		if bytes.Equal(bytes.TrimSpace(jsonDoc), []byte("null")) {
			continue
		}

		obj := &unstructured.Unstructured{}
		if err := obj.UnmarshalJSON(jsonDoc); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidDocument, err)
		}

		target, err := r.toTarget(obj)
		if err != nil {
			return nil, err
		}

		objects = append(objects, target)
	}

	return objects, nil
}

func (r *Reader) toTarget(obj *unstructured.Unstructured) (batch.TargetObject, error) {
	gvk := obj.GroupVersionKind()
	if gvk.Kind == "" || gvk.Version == "" {
		return batch.TargetObject{}, fmt.Errorf("%w: missing apiVersion or kind", ErrInvalidDocument)
	}

	name := obj.GetName()
	if name == "" {
		return batch.TargetObject{}, fmt.Errorf("%w: %s has no metadata.name", ErrInvalidDocument, gvk.Kind)
	}

	action := batch.ActionApply

	if raw, ok := obj.GetAnnotations()[ActionAnnotation]; ok {
		switch raw {
		case string(batch.ActionApply):
			action = batch.ActionApply
		case string(batch.ActionDelete):
			action = batch.ActionDelete
		default:
			return batch.TargetObject{}, fmt.Errorf("%w: %q", ErrUnknownAction, raw)
		}
	}

	namespace := obj.GetNamespace()
	if namespace == "" {
		namespace = r.defaultNamespace
	}

	return batch.TargetObject{
		GVK:       gvk,
		Namespace: namespace,
		Name:      name,
		Action:    action,
		Object:    obj,
	}, nil
}

// Open returns the manifest stream for path; "-" selects stdin.
func Open(path string) (io.ReadCloser, error) {
	if path == "-" {
		return io.NopCloser(os.Stdin), nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open manifest: %w", err)
	}

	return f, nil
}
