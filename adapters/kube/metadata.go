package kube

// Centralized label and annotation keys used by the kube adapter.
// Keep these constants stable; changes are API-visible in clusters.
const (
	// Domain is the namespace domain for all greenroom custom labels and annotations.
	Domain = "greenroom.dev"

	// LabelAppName records the raw application name. Object names always use
	// the normalized form; the raw form lives only in this label.
	LabelAppName = Domain + "/app-name"
	// LabelServiceName records the service name.
	LabelServiceName = Domain + "/service-name"
	// LabelContainerType records the container role within the application.
	LabelContainerType = Domain + "/container-type"
	// LabelStorageType records the storage kind of a persistent volume claim,
	// derived from the last segment of the declared volume path.
	LabelStorageType = Domain + "/storage-type"

	// AnnotationImage records the deployed image reference on the workload.
	AnnotationImage = Domain + "/image"
	// AnnotationReplicatedEnv records a JSON summary of environment variables
	// marked for replication.
	AnnotationReplicatedEnv = Domain + "/replicated-env"

	// AnnotationTraefikEntryPoints selects the Traefik entry points serving a
	// synthesized ingress route.
	AnnotationTraefikEntryPoints = "traefik.ingress.kubernetes.io/router.entrypoints"

	// AnnotationImageHash forces pod recreation when the pinned image digest
	// changes between deployments.
	AnnotationImageHash = "imageHash"
	// AnnotationDate is stamped with the synthesis time so every deployment
	// recreates pods.
	AnnotationDate = "date"
)
