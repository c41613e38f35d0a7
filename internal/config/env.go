package config

// Env key constants. All deka configuration env vars use the DEKA_ prefix and
// act as defaults for the matching CLI flag.

// Name of the manager used to track field ownership during server-side apply.
const (
	envKeyFieldManager  = "DEKA_FIELD_MANAGER"
	defaultFieldManager = "deka"
)

// Retry budget for the whole batch; supports explicit units (e.g. 5m, 300s).
// 0 retries indefinitely.
const (
	envKeyTimeout  = "DEKA_TIMEOUT"
	defaultTimeout = "300s"
)

// Limit of concurrent object operations. 0 disables the limit.
const (
	envKeyParallelism  = "DEKA_PARALLELISM"
	defaultParallelism = "10"
)

// Namespace for objects whose metadata does not set one. If unset, the
// kubeconfig current-context namespace applies.
const envKeyNamespace = "DEKA_NAMESPACE"

// Path to kubeconfig file. If unset, KUBECONFIG is used as fallback.
const envKeyKubeconfig = "DEKA_KUBECONFIG"

// Log level: debug, info, warn, error.
const envKeyLogLevel = "DEKA_LOG_LEVEL"

// Log format: text or json.
const envKeyLogFormat = "DEKA_LOG_FORMAT"

// Port for the status/metrics HTTP server. Empty disables the server.
const envKeyStatusPort = "DEKA_STATUS_PORT"

// Standard k8s env key used as fallback when DEKA_KUBECONFIG is unset.
const envKeyKubeconfigFallback = "KUBECONFIG"
