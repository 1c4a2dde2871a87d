package overlay

// CloudRegion is the detected cloud provider and region. Unknown values are
// reported as "unknown".
type CloudRegion struct {
	Provider string
	Region   string
}

const unknown = "unknown"

// DetectCloudRegion inspects env, in order:
//  1. DEEPMERGE_CLOUD_PROVIDER / DEEPMERGE_CLOUD_REGION
//  2. AWS_REGION / AWS_DEFAULT_REGION
//  3. AZURE_REGION / AZURE_LOCATION
//  4. GOOGLE_CLOUD_REGION / CLOUDSDK_COMPUTE_REGION
func DetectCloudRegion(env map[string]string) CloudRegion {
	if env[EnvCloudProvider] != "" || env[EnvCloudRegion] != "" {
		return CloudRegion{
			Provider: firstNonEmpty(env[EnvCloudProvider], unknown),
			Region:   firstNonEmpty(env[EnvCloudRegion], unknown),
		}
	}
	for _, p := range []struct {
		provider string
		vars     []string
	}{
		{"aws", []string{"AWS_REGION", "AWS_DEFAULT_REGION"}},
		{"azure", []string{"AZURE_REGION", "AZURE_LOCATION"}},
		{"gcp", []string{"GOOGLE_CLOUD_REGION", "CLOUDSDK_COMPUTE_REGION"}},
	} {
		for _, v := range p.vars {
			if r := env[v]; r != "" {
				return CloudRegion{Provider: p.provider, Region: r}
			}
		}
	}
	return CloudRegion{Provider: unknown, Region: unknown}
}

// Known reports whether both provider and region were detected.
func (c CloudRegion) Known() bool {
	return c.KnownProvider() && c.Region != "" && c.Region != unknown
}

// KnownProvider reports whether the provider was detected.
func (c CloudRegion) KnownProvider() bool {
	return c.Provider != "" && c.Provider != unknown
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
