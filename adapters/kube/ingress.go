package kube

// TraefikReleaseName is the Helm release name for Traefik and also used as the
// default Service/Deployment name of the ingress controller.
const TraefikReleaseName = "traefik"

// DefaultIngressNamespace hosts the ingress controller unless configured
// otherwise.
const DefaultIngressNamespace = "greenroom-ingress"

// DefaultIngressServiceAccount is the ServiceAccount the ingress controller
// runs under unless configured otherwise.
const DefaultIngressServiceAccount = "greenroom-ingress"

// IngressOptions configures the Traefik ingress controller installation.
// Every field is optional; zero values fall back to documented defaults.
type IngressOptions struct {
	// Namespace hosts the ingress controller release.
	Namespace string
	// ServiceAccount is the pre-created ServiceAccount of the controller.
	ServiceAccount string
	// ServiceAccountAnnotations are merged onto the ServiceAccount, e.g. for
	// workload-identity bindings.
	ServiceAccountAnnotations map[string]string
	// CertEmail is the ACME registration address for the certificate
	// resolvers.
	CertEmail string
}

func (o *IngressOptions) defaults() {
	if o.Namespace == "" {
		o.Namespace = DefaultIngressNamespace
	}
	if o.ServiceAccount == "" {
		o.ServiceAccount = DefaultIngressServiceAccount
	}
}
