// Package phone handles the composed phone number form the web client
// submits: a country code prefix joined to the subscriber digits with an
// underscore, for example "+1_5551234567".
package phone

import "strings"

// Compose joins a country code and subscriber digits into the stored form.
func Compose(countryCode, digits string) string {
	return countryCode + "_" + digits
}

// Split divides a stored phone number into its country code prefix and
// subscriber digits. The digits are everything after the last underscore,
// so composed prefixes like "+1_US" survive a round trip. A value with no
// underscore is returned as digits with an empty country code.
func Split(stored string) (countryCode, digits string) {
	i := strings.LastIndex(stored, "_")
	if i < 0 {
		return "", stored
	}
	return stored[:i], stored[i+1:]
}

// Display renders a stored phone number for humans by replacing the
// underscores with spaces.
func Display(stored string) string {
	return strings.ReplaceAll(stored, "_", " ")
}
