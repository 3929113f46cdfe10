// Package controller contains the CacheEnvironmentReconciler, which
// provisions and tears down one environment.Environment per
// CacheEnvironment custom resource inside a cluster-hosted
// cache-warming service.
package controller

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"
	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/log"

	v1 "github.com/zugkraft/normcache/api/v1"
	"github.com/zugkraft/normcache/environment"
	"github.com/zugkraft/normcache/internal/network"
	"github.com/zugkraft/normcache/internal/obslog"
	"github.com/zugkraft/normcache/internal/recordstore/cassandra"
	"github.com/zugkraft/normcache/internal/recordstore/redis"
	"github.com/zugkraft/normcache/internal/selector"
	"github.com/zugkraft/normcache/pkg/config"
)

// noopFetcher answers every mutation fetch with an error: the core makes
// no assumption about a transport, so a CacheEnvironment with no Fetcher
// wired in can still serve reads and optimistic updates, just not commit
// real mutations.
type noopFetcher struct{}

func (noopFetcher) Fetch(ctx context.Context, sel selector.Selector) (network.ResponsePayload, error) {
	return network.ResponsePayload{}, fmt.Errorf("controller: no Fetcher configured for this CacheEnvironment")
}

// CacheEnvironmentReconciler reconciles a CacheEnvironment object.
type CacheEnvironmentReconciler struct {
	client.Client
	Scheme *runtime.Scheme

	// NewFetcher builds the network.Fetcher a reconciled Environment
	// executes mutations through. Defaults to noopFetcher when nil.
	NewFetcher func(v1.CacheEnvironment) network.Fetcher

	// Defaults, when set, supplies cluster-wide fallbacks (GC cadence,
	// fast-notify, backend selection) for any CacheEnvironment whose spec
	// leaves the corresponding field at its zero value. Loaded once at
	// operator startup from the --config flag; nil means every
	// CacheEnvironment must specify its own policy.
	Defaults *config.Config

	mu           sync.Mutex
	environments map[string]*environment.Environment
}

// +kubebuilder:rbac:groups=cache.normcache.io,resources=cacheenvironments,verbs=get;list;watch;create;update;patch;delete
// +kubebuilder:rbac:groups=cache.normcache.io,resources=cacheenvironments/status,verbs=get;update;patch

func (r *CacheEnvironmentReconciler) Reconcile(ctx context.Context, req ctrl.Request) (ctrl.Result, error) {
	logger := log.FromContext(ctx)

	var ce v1.CacheEnvironment
	if err := r.Get(ctx, req.NamespacedName, &ce); err != nil {
		logger.Error(err, "unable to fetch CacheEnvironment")
		return ctrl.Result{}, client.IgnoreNotFound(err)
	}

	key := req.NamespacedName.String()
	r.mu.Lock()
	if r.environments == nil {
		r.environments = make(map[string]*environment.Environment)
	}
	_, exists := r.environments[key]
	r.mu.Unlock()

	if !exists {
		env, err := r.buildEnvironment(ctx, key, ce)
		if err != nil {
			logger.Error(err, "failed to build environment", "environment", key)
			return ctrl.Result{}, err
		}
		r.mu.Lock()
		r.environments[key] = env
		r.mu.Unlock()
		logger.Info("provisioned environment", "environment", key)
	}

	ce.Status.Ready = true
	now := metav1.Now()
	ce.Status.LastReconciledTime = &now
	if err := r.Status().Update(ctx, &ce); err != nil {
		logger.Error(err, "failed to update CacheEnvironment status")
		return ctrl.Result{}, err
	}

	return ctrl.Result{}, nil
}

func (r *CacheEnvironmentReconciler) buildEnvironment(ctx context.Context, name string, ce v1.CacheEnvironment) (*environment.Environment, error) {
	fetcher := network.Fetcher(noopFetcher{})
	if r.NewFetcher != nil {
		fetcher = r.NewFetcher(ce)
	}

	opts := []environment.Option{obslogOption()}
	switch {
	case ce.Spec.GCIntervalSeconds > 0:
		opts = append(opts, environment.WithGCInterval(time.Duration(ce.Spec.GCIntervalSeconds)*time.Second))
	case r.Defaults != nil && r.Defaults.Retention.GCIntervalSeconds > 0:
		opts = append(opts, environment.WithGCInterval(time.Duration(r.Defaults.Retention.GCIntervalSeconds)*time.Second))
	}
	if ce.Spec.FastNotify || (r.Defaults != nil && r.Defaults.Retention.FastNotify) {
		opts = append(opts, environment.WithFastNotify(true))
	}
	loader, err := buildLoader(ce, r.Defaults)
	if err != nil {
		return nil, err
	}
	if loader != nil {
		opts = append(opts, environment.WithWarmLoad(loader))
	}

	return environment.New(ctx, name, fetcher, opts...)
}

func obslogOption() environment.Option {
	return environment.WithLogger(obslog.New(log.Log))
}

func buildLoader(ce v1.CacheEnvironment, defaults *config.Config) (environment.Loader, error) {
	kind := ce.Spec.BackendKind
	backendConfig := ce.Spec.BackendConfig
	if kind == "" && defaults != nil && defaults.Backend.Kind != "" {
		kind = defaults.Backend.Kind
		if backendConfig == nil {
			backendConfig = map[string]string{
				"addr":     defaults.Backend.Addr,
				"keyspace": defaults.Backend.Keyspace,
				"hosts":    defaults.Backend.Addr,
			}
		}
	}
	switch kind {
	case "", "none", "mock":
		return nil, nil
	case "redis":
		addr := backendConfig["addr"]
		if addr == "" {
			return nil, fmt.Errorf("controller: redis backend requires backendConfig.addr")
		}
		return redis.New(addr, 0), nil
	case "cassandra":
		keyspace := backendConfig["keyspace"]
		hosts := backendConfig["hosts"]
		if keyspace == "" || hosts == "" {
			return nil, fmt.Errorf("controller: cassandra backend requires backendConfig.keyspace and backendConfig.hosts")
		}
		return cassandra.New(keyspace, strings.Split(hosts, ",")...)
	default:
		return nil, fmt.Errorf("controller: unknown backendKind %q", kind)
	}
}

// SetupWithManager sets up the controller with the Manager.
func (r *CacheEnvironmentReconciler) SetupWithManager(mgr ctrl.Manager) error {
	r.environments = make(map[string]*environment.Environment)
	return ctrl.NewControllerManagedBy(mgr).
		For(&v1.CacheEnvironment{}).
		Complete(r)
}
