package kube

import (
	"context"
	"fmt"
	"os"

	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/dynamic"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"
)

// Client bundles the typed clientset with the rest.Config it was built from.
// The package sticks to client construction and API verbs; the backend driver
// layers the synthesis logic on top.
type Client struct {
	// RESTConfig is the connection the clients share.
	RESTConfig *rest.Config
	// Clientset serves the built-in resource groups.
	Clientset kubernetes.Interface

	// kubeconfig keeps the source bytes when the client came from a
	// kubeconfig. Helm needs them written back to a file.
	kubeconfig []byte
}

// Options tunes client construction. The zero value is usable.
type Options struct {
	// UserAgent is appended to the default user agent when set.
	UserAgent string
	// QPS caps request throughput client-side; zero picks 20.
	QPS float32
	// Burst caps the rate limiter burst; zero picks 50.
	Burst int
}

// NewClientFromRESTConfig wraps an existing rest.Config in a Client.
func NewClientFromRESTConfig(cfg *rest.Config, opts *Options) (*Client, error) {
	if cfg == nil {
		return nil, fmt.Errorf("REST config is nil")
	}
	o := Options{QPS: 20, Burst: 50}
	if opts != nil {
		if opts.QPS > 0 {
			o.QPS = opts.QPS
		}
		if opts.Burst > 0 {
			o.Burst = opts.Burst
		}
		o.UserAgent = opts.UserAgent
	}
	cfg.QPS = o.QPS
	cfg.Burst = o.Burst
	if o.UserAgent != "" {
		_ = rest.AddUserAgent(cfg, o.UserAgent)
	}

	cs, err := kubernetes.NewForConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("build clientset: %w", err)
	}
	return &Client{RESTConfig: cfg, Clientset: cs}, nil
}

// NewClientFromKubeconfig builds a Client from kubeconfig bytes and retains
// them for Helm operations.
func NewClientFromKubeconfig(_ context.Context, kubeconfig []byte, opts *Options) (*Client, error) {
	if len(kubeconfig) == 0 {
		return nil, fmt.Errorf("kubeconfig is empty")
	}
	cfg, err := clientcmd.RESTConfigFromKubeConfig(kubeconfig)
	if err != nil {
		return nil, fmt.Errorf("parse kubeconfig: %w", err)
	}
	c, err := NewClientFromRESTConfig(cfg, opts)
	if err != nil {
		return nil, err
	}
	c.kubeconfig = kubeconfig
	return c, nil
}

// NewClientFromKubeconfigPath reads path and delegates to
// NewClientFromKubeconfig.
func NewClientFromKubeconfigPath(ctx context.Context, path string, opts *Options) (*Client, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read kubeconfig %s: %w", path, err)
	}
	return NewClientFromKubeconfig(ctx, data, opts)
}

// Kubeconfig returns the raw kubeconfig bytes the client was built from, or
// nil when it was constructed from a bare REST config.
func (c *Client) Kubeconfig() []byte {
	if c == nil {
		return nil
	}
	return c.kubeconfig
}

// dynamicClient builds a dynamic client from the REST config. Apply and
// delete go through the dynamic client so CRDs need no typed scheme.
func (c *Client) dynamicClient() (dynamic.Interface, error) {
	if c == nil || c.RESTConfig == nil {
		return nil, fmt.Errorf("kube client is not initialized")
	}
	return dynamic.NewForConfig(c.RESTConfig)
}

// core returns the typed clientset, guarding against a half-built client.
func (c *Client) core() (kubernetes.Interface, error) {
	if c == nil || c.Clientset == nil {
		return nil, fmt.Errorf("kube client is not initialized")
	}
	return c.Clientset, nil
}

// CreateServiceAccount ensures the ServiceAccount exists with at least the
// given annotations. Annotations set by other controllers survive the merge.
func (c *Client) CreateServiceAccount(ctx context.Context, namespace, name string, annotations map[string]string) error {
	cs, err := c.core()
	if err != nil {
		return err
	}
	if namespace == "" || name == "" {
		return fmt.Errorf("serviceaccount namespace and name are required")
	}

	accounts := cs.CoreV1().ServiceAccounts(namespace)
	sa, err := accounts.Get(ctx, name, metav1.GetOptions{})
	switch {
	case err == nil:
		if sa.Annotations == nil {
			sa.Annotations = map[string]string{}
		}
		changed := false
		for k, v := range annotations {
			if cur, ok := sa.Annotations[k]; !ok || cur != v {
				sa.Annotations[k] = v
				changed = true
			}
		}
		if !changed {
			return nil
		}
		if _, err := accounts.Update(ctx, sa, metav1.UpdateOptions{}); err != nil {
			return fmt.Errorf("update serviceaccount %s/%s: %w", namespace, name, err)
		}
		return nil
	case !apierrors.IsNotFound(err):
		return fmt.Errorf("get serviceaccount %s/%s: %w", namespace, name, err)
	}

	sa = &corev1.ServiceAccount{ObjectMeta: metav1.ObjectMeta{Name: name}}
	if len(annotations) > 0 {
		sa.Annotations = annotations
	}
	if _, err := accounts.Create(ctx, sa, metav1.CreateOptions{}); err != nil && !apierrors.IsAlreadyExists(err) {
		return fmt.Errorf("create serviceaccount %s/%s: %w", namespace, name, err)
	}
	return nil
}
