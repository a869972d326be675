package kube

import (
	"context"
	"fmt"

	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

// ListServiceDeployments returns the workload deployments of one application
// namespace, i.e. those carrying the service-name label.
func (c *Client) ListServiceDeployments(ctx context.Context, namespace string) ([]appsv1.Deployment, error) {
	if c == nil || c.Clientset == nil {
		return nil, fmt.Errorf("kube client is not initialized")
	}
	list, err := c.Clientset.AppsV1().Deployments(namespace).List(ctx, metav1.ListOptions{LabelSelector: LabelServiceName})
	if err != nil {
		return nil, fmt.Errorf("list deployments in %s: %w", namespace, err)
	}
	return list.Items, nil
}

// GetServiceDeployment returns the named workload deployment, or nil when it
// does not exist.
func (c *Client) GetServiceDeployment(ctx context.Context, namespace, name string) (*appsv1.Deployment, error) {
	if c == nil || c.Clientset == nil {
		return nil, fmt.Errorf("kube client is not initialized")
	}
	dep, err := c.Clientset.AppsV1().Deployments(namespace).Get(ctx, name, metav1.GetOptions{})
	if err != nil {
		if apierrors.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get deployment %s/%s: %w", namespace, name, err)
	}
	return dep, nil
}

// ListServiceEndpoints returns the in-namespace service endpoints of one
// application namespace.
func (c *Client) ListServiceEndpoints(ctx context.Context, namespace string) ([]corev1.Service, error) {
	if c == nil || c.Clientset == nil {
		return nil, fmt.Errorf("kube client is not initialized")
	}
	list, err := c.Clientset.CoreV1().Services(namespace).List(ctx, metav1.ListOptions{LabelSelector: LabelServiceName})
	if err != nil {
		return nil, fmt.Errorf("list services in %s: %w", namespace, err)
	}
	return list.Items, nil
}
