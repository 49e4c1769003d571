package provider

import "strings"

// ValidateBucketName enforces the DNS-label subset every S3-compatible
// backend accepts: 3-63 characters of lowercase letters, digits, dots
// and hyphens, starting and ending alphanumeric, with no consecutive
// dots. Every operation that takes a bucket name runs through here, so
// a name is judged the same way no matter which call rejects it.
func ValidateBucketName(name string) error {
	if len(name) < 3 || len(name) > 63 {
		return &BucketNameError{Name: name, Reason: "must be between 3 and 63 characters"}
	}
	for _, r := range name {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') && r != '.' && r != '-' {
			return &BucketNameError{Name: name, Reason: "may only contain lowercase letters, digits, '.' and '-'"}
		}
	}
	if !isAlnum(name[0]) || !isAlnum(name[len(name)-1]) {
		return &BucketNameError{Name: name, Reason: "must start and end with a letter or digit"}
	}
	if strings.Contains(name, "..") {
		return &BucketNameError{Name: name, Reason: "must not contain consecutive dots"}
	}
	return nil
}

func isAlnum(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9')
}
