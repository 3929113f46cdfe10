package v1

import (
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/runtime/schema"
)

// GroupVersion is the group version used to register these objects.
var GroupVersion = schema.GroupVersion{
	Group:   "cache.normcache.io",
	Version: "v1",
}

// SchemeBuilder is used to add go types to the GroupVersionKind scheme.
var SchemeBuilder = runtime.NewSchemeBuilder(
	func(scheme *runtime.Scheme) error {
		scheme.AddKnownTypes(GroupVersion,
			&CacheEnvironment{},
			&CacheEnvironmentList{},
		)
		metav1.AddToGroupVersion(scheme, GroupVersion)
		return nil
	},
)

// CacheEnvironmentSpec defines the desired state of one Environment: which
// persisted backend (if any) warm-loads its base source, and its
// retention/notification policy.
type CacheEnvironmentSpec struct {
	// BackendKind selects the persisted warm-load backend: "none", "redis",
	// or "cassandra".
	BackendKind string `json:"backendKind,omitempty"`
	// BackendConfig provides connection details for BackendKind (addr,
	// keyspace, datacenter...).
	BackendConfig map[string]string `json:"backendConfig,omitempty"`
	// GCIntervalSeconds overrides the Store's default GC tick.
	GCIntervalSeconds int `json:"gcIntervalSeconds,omitempty"`
	// FastNotify opts into the notify() short-circuit (see internal/store's
	// WithFastNotify) at the cost of occasional spurious callbacks.
	FastNotify bool `json:"fastNotify,omitempty"`
}

// CacheEnvironmentStatus defines the observed state of a CacheEnvironment.
type CacheEnvironmentStatus struct {
	// Ready indicates the Environment has been constructed and is serving.
	Ready bool `json:"ready"`
	// LastReconciledTime tracks the last reconciliation.
	LastReconciledTime *metav1.Time `json:"lastReconciledTime,omitempty"`
}

// +kubebuilder:object:root=true
// +kubebuilder:subresource:status

// CacheEnvironment is the Schema for the cacheenvironments API: one custom
// resource provisions exactly one Environment inside the operator process.
type CacheEnvironment struct {
	metav1.TypeMeta   `json:",inline"`
	metav1.ObjectMeta `json:"metadata,omitempty"`

	Spec   CacheEnvironmentSpec   `json:"spec,omitempty"`
	Status CacheEnvironmentStatus `json:"status,omitempty"`
}

// +kubebuilder:object:root=true

// CacheEnvironmentList contains a list of CacheEnvironment.
type CacheEnvironmentList struct {
	metav1.TypeMeta `json:",inline"`
	metav1.ListMeta `json:"metadata,omitempty"`
	Items           []CacheEnvironment `json:"items"`
}

