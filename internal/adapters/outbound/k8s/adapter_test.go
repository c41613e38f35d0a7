package k8s_test

import (
	"errors"
	"log/slog"
	"net/url"
	"testing"

	"github.com/stretchr/testify/require"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	"k8s.io/apimachinery/pkg/api/meta"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/runtime/schema"
	"k8s.io/apimachinery/pkg/types"
	dynamicfake "k8s.io/client-go/dynamic/fake"
	k8stesting "k8s.io/client-go/testing"

	"github.com/ndrpnt/deka/internal/adapters/outbound/k8s"
	"github.com/ndrpnt/deka/internal/logic/batch"
)

var (
	configMapGVK = schema.GroupVersionKind{Version: "v1", Kind: "ConfigMap"}
	configMapGVR = schema.GroupVersionResource{Version: "v1", Resource: "configmaps"}
	namespaceGVK = schema.GroupVersionKind{Version: "v1", Kind: "Namespace"}
)

func newMapper() meta.RESTMapper {
	mapper := meta.NewDefaultRESTMapper([]schema.GroupVersion{{Version: "v1"}})
	mapper.Add(configMapGVK, meta.RESTScopeNamespace)
	mapper.Add(namespaceGVK, meta.RESTScopeRoot)

	return mapper
}

func newFakeClient() *dynamicfake.FakeDynamicClient {
	return dynamicfake.NewSimpleDynamicClientWithCustomListKinds(
		runtime.NewScheme(),
		map[schema.GroupVersionResource]string{
			configMapGVR: "ConfigMapList",
		},
	)
}

func configMapObject(namespace, name string) batch.TargetObject {
	return batch.TargetObject{
		GVK:       configMapGVK,
		Namespace: namespace,
		Name:      name,
		Action:    batch.ActionApply,
		Object: &unstructured.Unstructured{
			Object: map[string]any{
				"apiVersion": "v1",
				"kind":       "ConfigMap",
				"metadata": map[string]any{
					"name":      name,
					"namespace": namespace,
				},
				"data": map[string]any{"key": "value"},
			},
		},
	}
}

func TestAdapter_ApplyCommand(t *testing.T) {
	t.Parallel()

	logger := slog.Default()

	t.Run("server-side apply patch succeeds", func(t *testing.T) {
		t.Parallel()

		client := newFakeClient()

		var gotPatch k8stesting.PatchAction

		client.PrependReactor("patch", "configmaps", func(action k8stesting.Action) (bool, runtime.Object, error) {
			gotPatch = action.(k8stesting.PatchAction)

			return true, &unstructured.Unstructured{}, nil
		})

		repo := k8s.New(logger, client, newMapper(), "deka")

		err := repo.ApplyCommand(t.Context(), configMapObject("default", "app-settings"))
		require.NoError(t, err)

		require.NotNil(t, gotPatch)
		require.Equal(t, types.ApplyPatchType, gotPatch.GetPatchType())
		require.Equal(t, "app-settings", gotPatch.GetName())
		require.Equal(t, "default", gotPatch.GetNamespace())
	})

	t.Run("unknown kind maps to a retryable kind-not-found error", func(t *testing.T) {
		t.Parallel()

		repo := k8s.New(logger, newFakeClient(), newMapper(), "deka")

		obj := configMapObject("default", "my-foo")
		obj.GVK = schema.GroupVersionKind{Group: "example.com", Version: "v1", Kind: "Foo"}

		err := repo.ApplyCommand(t.Context(), obj)
		require.Error(t, err)

		var kindNotFound *k8s.KindNotFoundError
		require.ErrorAs(t, err, &kindNotFound)
		require.Equal(t, batch.Retryable, batch.Classify(err))
	})

	t.Run("api error categories map to classifier markers", func(t *testing.T) {
		t.Parallel()

		tests := []struct {
			name       string
			giveErr    error
			wantTarget any
			wantClass  batch.Classification
		}{
			{
				name:       "missing namespace is retryable",
				giveErr:    apierrors.NewNotFound(configMapGVR.GroupResource(), "app-settings"),
				wantTarget: new(*k8s.NotFoundError),
				wantClass:  batch.Retryable,
			},
			{
				name:       "too many requests is retryable",
				giveErr:    apierrors.NewTooManyRequests("slow down", 1),
				wantTarget: new(*k8s.TooManyRequestsError),
				wantClass:  batch.Retryable,
			},
			{
				name:       "service unavailable is retryable",
				giveErr:    apierrors.NewServiceUnavailable("etcd down"),
				wantTarget: new(*k8s.UnavailableError),
				wantClass:  batch.Retryable,
			},
			{
				name:       "internal error is retryable",
				giveErr:    apierrors.NewInternalError(errors.New("boom")),
				wantTarget: new(*k8s.UnavailableError),
				wantClass:  batch.Retryable,
			},
			{
				name: "bare 502 from a gateway is retryable",
				giveErr: &apierrors.StatusError{ErrStatus: metav1.Status{
					Code:    502,
					Message: "bad gateway",
				}},
				wantTarget: new(*k8s.UnavailableError),
				wantClass:  batch.Retryable,
			},
			{
				name: "5xx with a nonstandard reason is retryable",
				giveErr: &apierrors.StatusError{ErrStatus: metav1.Status{
					Code:    507,
					Reason:  "EtcdFull",
					Message: "insufficient storage",
				}},
				wantTarget: new(*k8s.UnavailableError),
				wantClass:  batch.Retryable,
			},
			{
				name:       "transport error is retryable",
				giveErr:    &url.Error{Op: "Patch", URL: "https://kube/api", Err: errors.New("connection refused")},
				wantTarget: new(*k8s.UnavailableError),
				wantClass:  batch.Retryable,
			},
			{
				name:      "forbidden passes through as terminal",
				giveErr:   apierrors.NewForbidden(configMapGVR.GroupResource(), "app-settings", errors.New("denied")),
				wantClass: batch.Terminal,
			},
			{
				name:      "invalid object passes through as terminal",
				giveErr:   apierrors.NewBadRequest("field is immutable"),
				wantClass: batch.Terminal,
			},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				t.Parallel()

				client := newFakeClient()
				client.PrependReactor("patch", "configmaps", func(k8stesting.Action) (bool, runtime.Object, error) {
					return true, nil, tt.giveErr
				})

				repo := k8s.New(logger, client, newMapper(), "deka")

				err := repo.ApplyCommand(t.Context(), configMapObject("default", "app-settings"))
				require.Error(t, err)

				if tt.wantTarget != nil {
					require.ErrorAs(t, err, tt.wantTarget)
				}

				require.Equal(t, tt.wantClass, batch.Classify(err))
			})
		}
	})
}

func TestAdapter_DeleteCommand(t *testing.T) {
	t.Parallel()

	logger := slog.Default()

	deleteTarget := func() batch.TargetObject {
		obj := configMapObject("default", "app-settings")
		obj.Action = batch.ActionDelete
		obj.Object = nil

		return obj
	}

	t.Run("delete succeeds", func(t *testing.T) {
		t.Parallel()

		client := newFakeClient()
		client.PrependReactor("delete", "configmaps", func(k8stesting.Action) (bool, runtime.Object, error) {
			return true, nil, nil
		})

		repo := k8s.New(logger, client, newMapper(), "deka")

		require.NoError(t, repo.DeleteCommand(t.Context(), deleteTarget()))
	})

	t.Run("object already gone is success", func(t *testing.T) {
		t.Parallel()

		client := newFakeClient()
		client.PrependReactor("delete", "configmaps", func(k8stesting.Action) (bool, runtime.Object, error) {
			return true, nil, apierrors.NewNotFound(configMapGVR.GroupResource(), "app-settings")
		})

		repo := k8s.New(logger, client, newMapper(), "deka")

		require.NoError(t, repo.DeleteCommand(t.Context(), deleteTarget()))
	})

	t.Run("unknown kind is success", func(t *testing.T) {
		t.Parallel()

		repo := k8s.New(logger, newFakeClient(), newMapper(), "deka")

		obj := deleteTarget()
		obj.GVK = schema.GroupVersionKind{Group: "example.com", Version: "v1", Kind: "Foo"}

		require.NoError(t, repo.DeleteCommand(t.Context(), obj))
	})

	t.Run("server error maps to a retryable marker", func(t *testing.T) {
		t.Parallel()

		client := newFakeClient()
		client.PrependReactor("delete", "configmaps", func(k8stesting.Action) (bool, runtime.Object, error) {
			return true, nil, apierrors.NewServerTimeout(configMapGVR.GroupResource(), "delete", 1)
		})

		repo := k8s.New(logger, client, newMapper(), "deka")

		err := repo.DeleteCommand(t.Context(), deleteTarget())
		require.Error(t, err)

		var unavailable *k8s.UnavailableError
		require.ErrorAs(t, err, &unavailable)
		require.Equal(t, batch.Retryable, batch.Classify(err))
	})
}
