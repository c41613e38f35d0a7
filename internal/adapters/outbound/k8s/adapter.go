package k8s

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/url"

	apierrors "k8s.io/apimachinery/pkg/api/errors"
	"k8s.io/apimachinery/pkg/api/meta"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/types"
	"k8s.io/client-go/dynamic"

	"github.com/ndrpnt/deka/internal/logic/batch"
)

type adapter struct {
	logger       *slog.Logger
	client       dynamic.Interface
	mapper       meta.RESTMapper
	fieldManager string
}

// New creates the cluster adapter backed by the dynamic client and a discovery
// REST mapper. Apply is a forced server-side apply attributed to fieldManager.
func New(
	logger *slog.Logger,
	client dynamic.Interface,
	mapper meta.RESTMapper,
	fieldManager string,
) batch.Repository {
	return &adapter{
		logger:       logger,
		client:       client,
		mapper:       mapper,
		fieldManager: fieldManager,
	}
}

var _ batch.Repository = (*adapter)(nil)

func (a *adapter) ApplyCommand(ctx context.Context, obj batch.TargetObject) error {
	resource, err := a.resourceFor(obj)
	if err != nil {
		return err
	}

	data, err := json.Marshal(obj.Object)
	if err != nil {
		return fmt.Errorf("marshal object: %w", err)
	}

	force := true

	_, err = resource.Patch(ctx, obj.Name, types.ApplyPatchType, data, metav1.PatchOptions{
		FieldManager: a.fieldManager,
		Force:        &force,
	})
	if err != nil {
		return fmt.Errorf("apply object: %w", mapAPIError(err))
	}

	return nil
}

func (a *adapter) DeleteCommand(ctx context.Context, obj batch.TargetObject) error {
	resource, err := a.resourceFor(obj)
	if err != nil {
		// An unrecognized kind cannot hold the object, so there is nothing
		// left to delete.
		var target *KindNotFoundError
		if errors.As(err, &target) {
			a.logger.InfoContext(ctx, "object already deleted (kind not found)",
				"object", obj.Identity(),
			)

			return nil
		}

		return err
	}

	err = resource.Delete(ctx, obj.Name, metav1.DeleteOptions{})
	if apierrors.IsNotFound(err) {
		a.logger.InfoContext(ctx, "object already deleted (not found)",
			"object", obj.Identity(),
		)

		return nil
	}

	if err != nil {
		return fmt.Errorf("delete object: %w", mapAPIError(err))
	}

	return nil
}

// resourceFor maps the object's GVK to a namespaced or cluster-scoped dynamic
// resource client. Discovery happens on every attempt so a CRD registered by a
// sibling operation becomes visible on the next retry.
func (a *adapter) resourceFor(obj batch.TargetObject) (dynamic.ResourceInterface, error) {
	mapping, err := a.mapper.RESTMapping(obj.GVK.GroupKind(), obj.GVK.Version)
	if err != nil {
		if meta.IsNoMatchError(err) {
			// Drop cached discovery data so the next attempt re-discovers.
			if resettable, ok := a.mapper.(meta.ResettableRESTMapper); ok {
				resettable.Reset()
			}

			return nil, fmt.Errorf("discover api resource: %w", &KindNotFoundError{Err: err})
		}

		return nil, fmt.Errorf("discover api resource: %w", mapAPIError(err))
	}

	if mapping.Scope.Name() == meta.RESTScopeNameNamespace {
		return a.client.Resource(mapping.Resource).Namespace(obj.Namespace), nil
	}

	return a.client.Resource(mapping.Resource), nil
}

// mapAPIError wraps an API server error in the marker type matching its
// category so the batch classifier can decide retryability without depending
// on apimachinery. Unrecognized errors pass through unwrapped and classify as
// terminal.
func mapAPIError(err error) error {
	switch {
	case apierrors.IsNotFound(err):
		return &NotFoundError{Err: err}
	case apierrors.IsTooManyRequests(err):
		return &TooManyRequestsError{Err: err}
	case apierrors.IsServiceUnavailable(err),
		apierrors.IsServerTimeout(err),
		apierrors.IsTimeout(err),
		apierrors.IsInternalError(err),
		apierrors.IsUnexpectedServerError(err):
		return &UnavailableError{Err: err}
	case isServerError(err):
		return &UnavailableError{Err: err}
	case isTransportError(err):
		return &UnavailableError{Err: err}
	}

	return err
}

// isServerError catches 5xx responses the named helpers miss, such as a 502
// from a gateway or aggregated API server with a nonstandard reason.
func isServerError(err error) bool {
	var statusErr *apierrors.StatusError
	if errors.As(err, &statusErr) {
		return statusErr.ErrStatus.Code >= 500
	}

	return false
}

// isTransportError reports whether err never reached the API server.
func isTransportError(err error) bool {
	var statusErr *apierrors.StatusError
	if errors.As(err, &statusErr) {
		return false
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return true
	}

	var netErr net.Error

	return errors.As(err, &netErr)
}
