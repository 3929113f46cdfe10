// cacheserver is the operator entrypoint: it watches CacheEnvironment
// custom resources and provisions one environment.Environment per
// resource, running as a cluster-hosted cache-warming service.
package main

import (
	"flag"
	"os"

	"github.com/go-logr/logr/funcr"
	"k8s.io/apimachinery/pkg/runtime"
	utilruntime "k8s.io/apimachinery/pkg/util/runtime"
	clientgoscheme "k8s.io/client-go/kubernetes/scheme"
	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/log"
	metricsserver "sigs.k8s.io/controller-runtime/pkg/metrics/server"

	cachev1 "github.com/zugkraft/normcache/api/v1"
	"github.com/zugkraft/normcache/internal/controller"
	"github.com/zugkraft/normcache/pkg/config"
)

var scheme = runtime.NewScheme()

func init() {
	utilruntime.Must(clientgoscheme.AddToScheme(scheme))
	utilruntime.Must(cachev1.SchemeBuilder.AddToScheme(scheme))
}

func main() {
	var metricsAddr string
	var probeAddr string
	var configPath string
	flag.StringVar(&metricsAddr, "metrics-bind-address", ":8080", "address the metrics endpoint binds to")
	flag.StringVar(&probeAddr, "health-probe-bind-address", ":8081", "address the health probe endpoint binds to")
	flag.StringVar(&configPath, "config", "", "path to a YAML file of cluster-wide CacheEnvironment defaults")
	flag.Parse()

	log.SetLogger(funcr.New(func(prefix, args string) {
		os.Stdout.WriteString(prefix + " " + args + "\n")
	}, funcr.Options{}))

	var defaults *config.Config
	if configPath != "" {
		cfg, err := config.Load(configPath)
		if err != nil {
			log.Log.Error(err, "unable to load config", "path", configPath)
			os.Exit(1)
		}
		defaults = cfg
	}

	mgr, err := ctrl.NewManager(ctrl.GetConfigOrDie(), ctrl.Options{
		Scheme:                 scheme,
		Metrics:                metricsserver.Options{BindAddress: metricsAddr},
		HealthProbeBindAddress: probeAddr,
	})
	if err != nil {
		log.Log.Error(err, "unable to start manager")
		os.Exit(1)
	}

	reconciler := &controller.CacheEnvironmentReconciler{
		Client:   mgr.GetClient(),
		Scheme:   mgr.GetScheme(),
		Defaults: defaults,
	}
	if err := reconciler.SetupWithManager(mgr); err != nil {
		log.Log.Error(err, "unable to create controller", "controller", "CacheEnvironment")
		os.Exit(1)
	}

	log.Log.Info("starting cacheserver")
	if err := mgr.Start(ctrl.SetupSignalHandler()); err != nil {
		log.Log.Error(err, "problem running manager")
		os.Exit(1)
	}
}
