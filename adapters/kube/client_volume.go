package kube

import (
	"context"
	"fmt"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

// ListVolumeClaims returns the persistent volume claims in a namespace
// matching labelSelector. Claim lookup goes through labels because claim
// names carry a generated suffix.
func (c *Client) ListVolumeClaims(ctx context.Context, namespace, labelSelector string) ([]corev1.PersistentVolumeClaim, error) {
	if c == nil || c.Clientset == nil {
		return nil, fmt.Errorf("kube client is not initialized")
	}
	list, err := c.Clientset.CoreV1().PersistentVolumeClaims(namespace).List(ctx, metav1.ListOptions{LabelSelector: labelSelector})
	if err != nil {
		return nil, fmt.Errorf("list volume claims in %s: %w", namespace, err)
	}
	return list.Items, nil
}

// CreateVolumeClaim creates a claim and returns it with the server-completed
// generated name.
func (c *Client) CreateVolumeClaim(ctx context.Context, claim *corev1.PersistentVolumeClaim) (*corev1.PersistentVolumeClaim, error) {
	if c == nil || c.Clientset == nil {
		return nil, fmt.Errorf("kube client is not initialized")
	}
	created, err := c.Clientset.CoreV1().PersistentVolumeClaims(claim.Namespace).Create(ctx, claim, metav1.CreateOptions{})
	if err != nil {
		return nil, fmt.Errorf("create volume claim in %s: %w", claim.Namespace, err)
	}
	return created, nil
}
