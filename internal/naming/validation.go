package naming

import (
	"fmt"
	"strings"

	utilvalidation "k8s.io/apimachinery/pkg/util/validation"
)

func validateDNS1123Label(name string, labelKind string) error {
	if name == "" {
		return fmt.Errorf("%s name must not be empty", labelKind)
	}
	if errs := utilvalidation.IsDNS1123Label(name); len(errs) > 0 {
		return fmt.Errorf("invalid %s name %q: %s", labelKind, name, strings.Join(errs, ", "))
	}
	return nil
}

// ValidateNamespace checks a namespace given on the command line.
func ValidateNamespace(name string) error {
	return validateDNS1123Label(name, "namespace")
}

// ValidateSecretName checks a Secret name (DNS-1123 subdomain).
func ValidateSecretName(name string) error {
	if name == "" {
		return fmt.Errorf("secret name must not be empty")
	}
	if errs := utilvalidation.IsDNS1123Subdomain(name); len(errs) > 0 {
		return fmt.Errorf("invalid secret name %q: %s", name, strings.Join(errs, ", "))
	}
	return nil
}
