package kube

import (
	"context"
	"fmt"

	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/dynamic"
)

// IngressEndpoint returns the external IP and FQDN (if any) of the ingress
// controller Service by reading its LoadBalancer status. When the Service or
// fields are not found, it returns empty strings without error.
func (c *Client) IngressEndpoint(ctx context.Context, namespace, serviceName string) (string, string, error) {
	if c == nil || c.Clientset == nil {
		return "", "", fmt.Errorf("kube client is not initialized")
	}

	svc, err := c.Clientset.CoreV1().Services(namespace).Get(ctx, serviceName, metav1.GetOptions{})
	if err != nil {
		if apierrors.IsNotFound(err) {
			return "", "", nil
		}
		return "", "", fmt.Errorf("get service %s/%s: %w", namespace, serviceName, err)
	}

	if len(svc.Status.LoadBalancer.Ingress) == 0 {
		return "", "", nil
	}

	ing := svc.Status.LoadBalancer.Ingress[0]
	return ing.IP, ing.Hostname, nil
}

// ListIngressRoutes returns the Traefik IngressRoute objects of one
// application namespace.
func (c *Client) ListIngressRoutes(ctx context.Context, namespace string) ([]*IngressRoute, error) {
	if c == nil || c.RESTConfig == nil {
		return nil, fmt.Errorf("kube client is not initialized")
	}
	dy, err := dynamic.NewForConfig(c.RESTConfig)
	if err != nil {
		return nil, fmt.Errorf("create dynamic client: %w", err)
	}
	list, err := dy.Resource(IngressRouteGVR).Namespace(namespace).List(ctx, metav1.ListOptions{})
	if err != nil {
		if apierrors.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("list ingress routes in %s: %w", namespace, err)
	}
	routes := make([]*IngressRoute, 0, len(list.Items))
	for i := range list.Items {
		route, err := IngressRouteFromUnstructured(&list.Items[i])
		if err != nil {
			return nil, err
		}
		routes = append(routes, route)
	}
	return routes, nil
}

