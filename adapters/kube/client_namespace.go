package kube

import (
	"context"
	"fmt"

	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

// CreateNamespace ensures the namespace exists. Losing the create race to a
// concurrent caller counts as success.
func (c *Client) CreateNamespace(ctx context.Context, name string) error {
	cs, err := c.core()
	if err != nil {
		return err
	}
	if name == "" {
		return fmt.Errorf("namespace name is empty")
	}
	ns := &corev1.Namespace{ObjectMeta: metav1.ObjectMeta{Name: name}}
	if _, err := cs.CoreV1().Namespaces().Create(ctx, ns, metav1.CreateOptions{}); err != nil && !apierrors.IsAlreadyExists(err) {
		return fmt.Errorf("create namespace %s: %w", name, err)
	}
	return nil
}

// GetNamespace returns the named namespace, or nil when it does not exist.
func (c *Client) GetNamespace(ctx context.Context, name string) (*corev1.Namespace, error) {
	cs, err := c.core()
	if err != nil {
		return nil, err
	}
	ns, err := cs.CoreV1().Namespaces().Get(ctx, name, metav1.GetOptions{})
	if apierrors.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get namespace %s: %w", name, err)
	}
	return ns, nil
}

// ListAppNamespaces returns every namespace carrying the application-name
// label, i.e. the isolation namespaces this system manages.
func (c *Client) ListAppNamespaces(ctx context.Context) ([]corev1.Namespace, error) {
	cs, err := c.core()
	if err != nil {
		return nil, err
	}
	list, err := cs.CoreV1().Namespaces().List(ctx, metav1.ListOptions{LabelSelector: LabelAppName})
	if err != nil {
		return nil, fmt.Errorf("list app namespaces: %w", err)
	}
	return list.Items, nil
}

// DeleteNamespace removes the namespace. A namespace that is already gone is
// not an error.
func (c *Client) DeleteNamespace(ctx context.Context, name string) error {
	cs, err := c.core()
	if err != nil {
		return err
	}
	if name == "" {
		return fmt.Errorf("namespace name is empty")
	}
	if err := cs.CoreV1().Namespaces().Delete(ctx, name, metav1.DeleteOptions{}); err != nil && !apierrors.IsNotFound(err) {
		return fmt.Errorf("delete namespace %s: %w", name, err)
	}
	return nil
}
